// Package extract installs the payload archive into a destination directory.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"github.com/slok/instl/internal/log"
	"github.com/slok/instl/internal/model"
)

// EngineConfig is the configuration for the extraction engine.
type EngineConfig struct {
	FS     afero.Fs
	Logger log.Logger
}

func (c *EngineConfig) defaults() error {
	if c.FS == nil {
		c.FS = afero.NewOsFs()
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "extract.Engine"})
	return nil
}

// Engine writes the payload to a temporary archive next to the destination,
// decompresses it into the destination and removes the temporary archive.
type Engine struct {
	fs     afero.Fs
	logger log.Logger
}

// NewEngine returns a new extraction engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{fs: cfg.FS, logger: cfg.Logger}, nil
}

// InstallOptions are the options of an installation.
type InstallOptions struct {
	Payload     model.ArchivePayload
	Destination string
	// Create is set when the destination doesn't exist yet and must be created.
	Create bool
	// OnCheckpoint receives the progress checkpoints, it must not block.
	OnCheckpoint func(model.Checkpoint)
}

// Install runs the installation steps in order. Files extracted before a failure
// are left in place.
func (e *Engine) Install(ctx context.Context, opts InstallOptions) (*model.ExtractResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := e.logger.WithCtxValues(ctx)
	emit := opts.OnCheckpoint
	if emit == nil {
		emit = func(model.Checkpoint) {}
	}
	dst := filepath.Clean(opts.Destination)

	emit(model.CheckpointStart)

	// 1. Temporary archive.
	tmpPath, err := e.writeTempArchive(filepath.Dir(dst), opts.Payload)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Archive written to %s", tmpPath)

	cleaned := false
	defer func() {
		if cleaned {
			return
		}
		if err := e.fs.Remove(tmpPath); err != nil {
			logger.Warningf("Could not remove temporary archive %s: %v", tmpPath, err)
		}
	}()

	emit(model.CheckpointArchiveWritten)

	// 2. Destination.
	if opts.Create {
		err := e.fs.Mkdir(dst, 0o755)
		if err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("could not create destination %s: %w: %w", dst, model.ErrIO, err)
		}
	}

	// 3. Extraction, the destination must still be empty.
	if err := e.checkDestination(dst); err != nil {
		return nil, err
	}

	files, err := e.extractArchive(tmpPath, dst)
	if err != nil {
		return nil, err
	}
	logger.Infof("Extracted %d files into %s", files, dst)

	emit(model.CheckpointExtracted)

	// 4. Cleanup.
	res := &model.ExtractResult{
		Destination: dst,
		Files:       files,
		TempArchive: tmpPath,
	}
	cleaned = true
	if err := e.fs.Remove(tmpPath); err != nil {
		logger.Warningf("Could not remove temporary archive %s: %v", tmpPath, err)
		res.CleanupErr = fmt.Errorf("could not remove temporary archive %s: %w", tmpPath, err)
	}

	emit(model.CheckpointCleaned)

	return res, nil
}

func (e *Engine) writeTempArchive(dir string, p model.ArchivePayload) (string, error) {
	f, err := afero.TempFile(e.fs, dir, "."+p.Name()+"-*.zip")
	if err != nil {
		return "", fmt.Errorf("could not create temporary archive on %s: %w: %w", dir, model.ErrIO, err)
	}
	path := f.Name()

	_, err = io.Copy(f, p.Reader())
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = e.fs.Remove(path)
		return "", fmt.Errorf("could not write temporary archive %s: %w: %w", path, model.ErrIO, err)
	}

	return path, nil
}

func (e *Engine) checkDestination(dst string) error {
	info, err := e.fs.Stat(dst)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("destination %s is missing: %w", dst, model.ErrDestinationConflict)
		}
		return fmt.Errorf("could not stat destination %s: %w: %w", dst, model.ErrIO, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination %s is not a directory: %w", dst, model.ErrDestinationConflict)
	}

	empty, err := afero.IsEmpty(e.fs, dst)
	if err != nil {
		return fmt.Errorf("could not read destination %s: %w: %w", dst, model.ErrIO, err)
	}
	if !empty {
		return fmt.Errorf("destination %s is not empty: %w", dst, model.ErrDestinationConflict)
	}

	return nil
}

func (e *Engine) extractArchive(archivePath, dst string) (int, error) {
	f, err := e.fs.Open(archivePath)
	if err != nil {
		return 0, fmt.Errorf("could not open temporary archive: %w: %w", model.ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("could not stat temporary archive: %w: %w", model.ErrIO, err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return 0, fmt.Errorf("could not read archive: %w: %w", model.ErrCorrupt, err)
	}

	// Directory permissions are applied at the end so read-only directories
	// don't block the extraction of their content.
	type dirMode struct {
		path string
		mode fs.FileMode
	}
	dirs := []dirMode{}
	files := 0

	for _, zf := range zr.File {
		target, err := entryTarget(dst, zf.Name)
		if err != nil {
			return files, err
		}
		if target == dst {
			continue
		}

		mode := zf.Mode()
		switch {
		case mode.IsDir():
			if err := e.checkNoSymlinks(dst, target); err != nil {
				return files, err
			}
			if err := e.fs.MkdirAll(target, 0o755); err != nil {
				return files, fmt.Errorf("could not create directory %s: %w: %w", target, model.ErrIO, err)
			}
			dirs = append(dirs, dirMode{path: target, mode: mode.Perm()})

		case mode&fs.ModeSymlink != 0:
			if err := e.extractSymlink(dst, target, zf); err != nil {
				return files, err
			}
			files++

		default:
			if err := e.extractFile(dst, target, zf); err != nil {
				return files, err
			}
			files++
		}
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		if err := e.chmod(dirs[i].path, dirs[i].mode); err != nil {
			return files, err
		}
	}

	return files, nil
}

func (e *Engine) extractFile(dst, target string, zf *zip.File) error {
	if err := e.checkNoSymlinks(dst, filepath.Dir(target)); err != nil {
		return err
	}
	if err := e.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("could not create directory for %s: %w: %w", target, model.ErrIO, err)
	}

	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("could not open archive entry %s: %w: %w", zf.Name, model.ErrCorrupt, err)
	}
	defer rc.Close()

	perm := zf.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}

	// O_EXCL: never overwrite something that appeared after validation.
	out, err := e.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("could not create %s: %w: %w", target, model.ErrIO, err)
	}

	er := &entryReader{Reader: rc}
	_, err = io.Copy(out, er)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if er.err != nil {
			return fmt.Errorf("could not decompress %s: %w: %w", zf.Name, model.ErrCorrupt, err)
		}
		return fmt.Errorf("could not write %s: %w: %w", target, model.ErrIO, err)
	}

	return e.chmod(target, perm)
}

func (e *Engine) extractSymlink(dst, target string, zf *zip.File) error {
	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("could not open archive entry %s: %w: %w", zf.Name, model.ErrCorrupt, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("could not decompress %s: %w: %w", zf.Name, model.ErrCorrupt, err)
	}

	if err := e.checkNoSymlinks(dst, filepath.Dir(target)); err != nil {
		return err
	}

	linkTarget := filepath.FromSlash(string(data))
	if filepath.IsAbs(linkTarget) || filepath.VolumeName(linkTarget) != "" {
		return fmt.Errorf("symlink %s points outside the destination: %w", zf.Name, model.ErrCorrupt)
	}
	if err := e.checkLinkTarget(dst, target, linkTarget); err != nil {
		return fmt.Errorf("symlink %s: %w", zf.Name, err)
	}

	linker, ok := e.fs.(afero.Linker)
	if !ok {
		return fmt.Errorf("filesystem can't create symlink %s: %w", target, model.ErrIO)
	}

	if err := e.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("could not create directory for %s: %w: %w", target, model.ErrIO, err)
	}
	if err := linker.SymlinkIfPossible(linkTarget, target); err != nil {
		return fmt.Errorf("could not create symlink %s: %w: %w", target, model.ErrIO, err)
	}

	return nil
}

func (e *Engine) chmod(path string, mode fs.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := e.fs.Chmod(path, mode); err != nil {
		return fmt.Errorf("could not set permissions on %s: %w: %w", path, model.ErrIO, err)
	}
	return nil
}

func (e *Engine) lstat(path string) (fs.FileInfo, error) {
	if l, ok := e.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return e.fs.Stat(path)
}

// checkNoSymlinks fails when an existing component of path below root is a
// symlink, so writes never follow links created by earlier entries.
func (e *Engine) checkNoSymlinks(root, path string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil || !within(root, path) {
		return fmt.Errorf("path %s escapes the destination: %w", path, model.ErrCorrupt)
	}

	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "" || part == "." {
			continue
		}
		cur = filepath.Join(cur, part)
		info, err := e.lstat(cur)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not stat %s: %w: %w", cur, model.ErrIO, err)
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("path %s goes through symlink %s: %w", path, cur, model.ErrCorrupt)
		}
	}

	return nil
}

// checkLinkTarget resolves the link target one component at a time from the
// link directory. Every step must stay inside root and can't cross another symlink.
func (e *Engine) checkLinkTarget(root, link, linkTarget string) error {
	cur := filepath.Dir(link)
	for _, part := range strings.Split(linkTarget, string(filepath.Separator)) {
		switch part {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
		default:
			cur = filepath.Join(cur, part)
			if info, err := e.lstat(cur); err == nil && info.Mode()&fs.ModeSymlink != 0 {
				return fmt.Errorf("target goes through symlink %s: %w", cur, model.ErrCorrupt)
			}
		}
		if !within(root, cur) {
			return fmt.Errorf("target points outside the destination: %w", model.ErrCorrupt)
		}
	}

	return nil
}

// entryTarget returns the destination path of an archive entry, rejecting
// entries that would land outside the destination.
func entryTarget(dst, name string) (string, error) {
	clean := filepath.FromSlash(name)
	if filepath.IsAbs(clean) || strings.HasPrefix(name, "/") || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("archive entry %q has an absolute path: %w", name, model.ErrCorrupt)
	}

	target := filepath.Join(dst, clean)
	if !within(dst, target) {
		return "", fmt.Errorf("archive entry %q escapes the destination: %w", name, model.ErrCorrupt)
	}

	return target, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// entryReader remembers read errors so they can be told apart from write errors.
type entryReader struct {
	io.Reader
	err error
}

func (r *entryReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		r.err = err
	}
	return n, err
}

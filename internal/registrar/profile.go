package registrar

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/moby/sys/atomicwriter"

	"github.com/slok/instl/internal/log"
	"github.com/slok/instl/internal/model"
)

const (
	blockStartFmt = "# >>> instl: %s >>>"
	blockEndFmt   = "# <<< instl: %s <<<"
	exportPrefix  = `export PATH="`
	exportSuffix  = `:$PATH"`
)

// ShellProfileConfig is the configuration for the shell profile registrar.
type ShellProfileConfig struct {
	// Profiles are the shell startup files that will receive the entry.
	Profiles []string
	// Product names the managed block so different products don't share it.
	Product string
	Logger  log.Logger
}

func (c *ShellProfileConfig) defaults() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("at least one profile is required")
	}
	if c.Product == "" {
		return fmt.Errorf("product is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "registrar.ShellProfile"})
	return nil
}

// ShellProfile registers directories with a managed block of PATH exports on
// shell startup files.
type ShellProfile struct {
	profiles   []string
	blockStart string
	blockEnd   string
	logger     log.Logger
}

// NewShellProfile returns a new shell profile registrar.
func NewShellProfile(cfg ShellProfileConfig) (*ShellProfile, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &ShellProfile{
		profiles:   cfg.Profiles,
		blockStart: fmt.Sprintf(blockStartFmt, cfg.Product),
		blockEnd:   fmt.Sprintf(blockEndFmt, cfg.Product),
		logger:     cfg.Logger,
	}, nil
}

// Register adds the directory to every profile that doesn't have it yet.
func (s *ShellProfile) Register(ctx context.Context, dir string) error {
	if dir == "" || strings.ContainsAny(dir, "\n\r") {
		return fmt.Errorf("invalid directory %q: %w", dir, model.ErrPersistFailed)
	}
	dir = filepath.Clean(dir)

	var result *multierror.Error
	for _, p := range s.profiles {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", model.ErrPersistFailed, err)
		}

		added, err := s.registerOn(p, dir)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", p, err))
			continue
		}
		if added {
			s.logger.Infof("Added %s to PATH on %s", dir, p)
		} else {
			s.logger.Debugf("%s already on PATH on %s", dir, p)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistFailed, err)
	}
	return nil
}

// Entries returns the directories registered on a profile.
func (s *ShellProfile) Entries(profile string) ([]string, error) {
	data, err := os.ReadFile(profile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	_, entries, _, err := s.parse(string(data))
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *ShellProfile) registerOn(profile, dir string) (bool, error) {
	path := profile
	if resolved, err := filepath.EvalSymlinks(profile); err == nil {
		path = resolved
	}

	var content string
	perm := fs.FileMode(0o644)
	info, err := os.Stat(path)
	switch {
	case err == nil:
		data, err := os.ReadFile(path)
		if err != nil {
			return false, fmt.Errorf("could not read profile: %w", err)
		}
		content = string(data)
		perm = info.Mode().Perm()
	case errors.Is(err, fs.ErrNotExist):
	default:
		return false, fmt.Errorf("could not stat profile: %w", err)
	}

	lines, entries, blockAt, err := s.parse(content)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if filepath.Clean(e) == dir {
			return false, nil
		}
	}
	entries = append(entries, dir)

	block := []string{s.blockStart}
	for _, e := range entries {
		block = append(block, exportLine(e))
	}
	block = append(block, s.blockEnd)

	var out []string
	if blockAt < 0 {
		out = lines
		if len(out) > 0 && out[len(out)-1] != "" {
			out = append(out, "")
		}
		out = append(out, block...)
	} else {
		out = append(out, lines[:blockAt]...)
		out = append(out, block...)
		out = append(out, lines[blockAt:]...)
	}

	data := strings.Join(out, "\n") + "\n"
	if err := atomicwriter.WriteFile(path, []byte(data), perm); err != nil {
		return false, fmt.Errorf("could not write profile: %w", err)
	}

	return true, nil
}

// parse splits the profile content in the lines outside the managed block, the
// entries of the block and the line index where the block was. A block that
// isn't closed or has lines other than PATH exports is an error, the profile
// can't be rewritten without losing them.
func (s *ShellProfile) parse(content string) (lines []string, entries []string, blockAt int, err error) {
	blockAt = -1
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil, nil, blockAt, nil
	}

	inBlock := false
	for _, l := range strings.Split(content, "\n") {
		switch {
		case !inBlock && strings.TrimSpace(l) == s.blockStart:
			inBlock = true
			if blockAt < 0 {
				blockAt = len(lines)
			}
		case inBlock && strings.TrimSpace(l) == s.blockEnd:
			inBlock = false
		case inBlock:
			if strings.TrimSpace(l) == "" {
				continue
			}
			e, ok := parseExportLine(l)
			if !ok {
				return nil, nil, -1, fmt.Errorf("unexpected line on managed block %q: %q", s.blockStart, l)
			}
			if !contains(entries, e) {
				entries = append(entries, e)
			}
		default:
			lines = append(lines, l)
		}
	}

	if inBlock {
		return nil, nil, -1, fmt.Errorf("managed block %q is not closed with %q", s.blockStart, s.blockEnd)
	}

	return lines, entries, blockAt, nil
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

var shellEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

func exportLine(dir string) string {
	return exportPrefix + shellEscaper.Replace(dir) + exportSuffix
}

func parseExportLine(l string) (string, bool) {
	l = strings.TrimSpace(l)
	if !strings.HasPrefix(l, exportPrefix) || !strings.HasSuffix(l, exportSuffix) {
		return "", false
	}
	quoted := strings.TrimSuffix(strings.TrimPrefix(l, exportPrefix), exportSuffix)

	var b strings.Builder
	escaped := false
	for _, r := range quoted {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String(), true
}

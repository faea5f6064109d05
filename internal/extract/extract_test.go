package extract_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/instl/internal/extract"
	"github.com/slok/instl/internal/model"
	"github.com/slok/instl/internal/payload/payloadtest"
)

type checkpointRecorder struct {
	percents []int
}

func (c *checkpointRecorder) record(cp model.Checkpoint) {
	c.percents = append(c.percents, cp.Percent)
}

// failRemoveFS fails every remove of temporary archives.
type failRemoveFS struct {
	afero.Fs
}

func (f failRemoveFS) Remove(name string) error {
	if strings.HasSuffix(name, ".zip") {
		return errors.New("remove not allowed")
	}
	return f.Fs.Remove(name)
}

func storedZip(t *testing.T, files [][2]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		hdr := &zip.FileHeader{Name: f[0], Method: zip.Store}
		hdr.SetMode(0o644)
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		_, err = w.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func dirNames(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()

	infos, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	names := []string{}
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names
}

func TestEngineInstall(t *testing.T) {
	tests := map[string]struct {
		payload        func(t *testing.T) model.ArchivePayload
		prepare        func(t *testing.T, dst string)
		create         bool
		expCheckpoints []int
		expErr         error
		expFiles       int
		assert         func(t *testing.T, root, dst string)
	}{
		"Installing into a missing destination should create it and extract everything.": {
			payload: func(t *testing.T) model.ArchivePayload {
				return payloadtest.Payload(t, "kube", payloadtest.DefaultFiles())
			},
			prepare:        func(t *testing.T, dst string) {},
			create:         true,
			expCheckpoints: []int{0, 20, 80, 100},
			expFiles:       3,
			assert: func(t *testing.T, root, dst string) {
				data, err := os.ReadFile(filepath.Join(dst, "conf", "app.yaml"))
				require.NoError(t, err)
				assert.Equal(t, "debug: false\n", string(data))

				info, err := os.Stat(filepath.Join(dst, "bin", "kube"))
				require.NoError(t, err)
				assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

				// No temporary archive left next to the destination.
				entries, err := os.ReadDir(root)
				require.NoError(t, err)
				require.Len(t, entries, 1)
				assert.Equal(t, "app", entries[0].Name())
			},
		},

		"Installing into an existing empty destination should extract everything.": {
			payload: func(t *testing.T) model.ArchivePayload {
				return payloadtest.Payload(t, "kube", payloadtest.DefaultFiles())
			},
			prepare: func(t *testing.T, dst string) {
				require.NoError(t, os.Mkdir(dst, 0o755))
			},
			expCheckpoints: []int{0, 20, 80, 100},
			expFiles:       3,
			assert: func(t *testing.T, root, dst string) {
				_, err := os.Stat(filepath.Join(dst, "README.md"))
				assert.NoError(t, err)
			},
		},

		"Files without explicit parent directory entries should be extracted.": {
			payload: func(t *testing.T) model.ArchivePayload {
				return payloadtest.Payload(t, "kube", map[string]payloadtest.File{
					"deep/nested/file.txt": {Data: "x"},
				})
			},
			prepare:        func(t *testing.T, dst string) {},
			create:         true,
			expCheckpoints: []int{0, 20, 80, 100},
			expFiles:       1,
			assert: func(t *testing.T, root, dst string) {
				_, err := os.Stat(filepath.Join(dst, "deep", "nested", "file.txt"))
				assert.NoError(t, err)
			},
		},

		"A destination created by someone else in the meantime but still empty should be used.": {
			payload: func(t *testing.T) model.ArchivePayload {
				return payloadtest.Payload(t, "kube", payloadtest.DefaultFiles())
			},
			prepare: func(t *testing.T, dst string) {
				require.NoError(t, os.Mkdir(dst, 0o755))
			},
			create:         true,
			expCheckpoints: []int{0, 20, 80, 100},
			expFiles:       3,
		},

		"A destination that got content after validation should fail with a destination conflict.": {
			payload: func(t *testing.T) model.ArchivePayload {
				return payloadtest.Payload(t, "kube", payloadtest.DefaultFiles())
			},
			prepare: func(t *testing.T, dst string) {
				require.NoError(t, os.Mkdir(dst, 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(dst, "readme.txt"), []byte("x"), 0o644))
			},
			expCheckpoints: []int{0, 20},
			expErr:         model.ErrDestinationConflict,
			assert: func(t *testing.T, root, dst string) {
				// Nothing written into the destination and the temporary archive is gone.
				entries, err := os.ReadDir(dst)
				require.NoError(t, err)
				assert.Len(t, entries, 1)

				entries, err = os.ReadDir(root)
				require.NoError(t, err)
				assert.Len(t, entries, 1)
			},
		},

		"A destination that disappeared after validation should fail with a destination conflict.": {
			payload: func(t *testing.T) model.ArchivePayload {
				return payloadtest.Payload(t, "kube", payloadtest.DefaultFiles())
			},
			prepare:        func(t *testing.T, dst string) {},
			expCheckpoints: []int{0, 20},
			expErr:         model.ErrDestinationConflict,
		},

		"A truncated archive should fail as corrupt after writing the archive.": {
			payload: func(t *testing.T) model.ArchivePayload {
				return payloadtest.TruncatedPayload(t, "kube", payloadtest.DefaultFiles())
			},
			prepare:        func(t *testing.T, dst string) {},
			create:         true,
			expCheckpoints: []int{0, 20},
			expErr:         model.ErrCorrupt,
			assert: func(t *testing.T, root, dst string) {
				info, err := os.Stat(dst)
				require.NoError(t, err)
				assert.True(t, info.IsDir())
			},
		},

		"A corrupted entry should fail as corrupt and leave previously extracted files.": {
			payload: func(t *testing.T) model.ArchivePayload {
				data := storedZip(t, [][2]string{
					{"a.txt", "first file"},
					{"b.txt", "BBBBBBBBBBBBBBBBBBBBBBBB"},
				})
				data = bytes.Replace(data, []byte("BBBBBBBBBBBBBBBBBBBBBBBB"), []byte("CCCCCCCCCCCCCCCCCCCCCCCC"), 1)
				p, err := model.NewArchivePayload("kube", "", data)
				require.NoError(t, err)
				return p
			},
			prepare:        func(t *testing.T, dst string) {},
			create:         true,
			expCheckpoints: []int{0, 20},
			expErr:         model.ErrCorrupt,
			assert: func(t *testing.T, root, dst string) {
				data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
				require.NoError(t, err)
				assert.Equal(t, "first file", string(data))
			},
		},

		"An entry escaping the destination should fail as corrupt.": {
			payload: func(t *testing.T) model.ArchivePayload {
				data := storedZip(t, [][2]string{{"../evil.txt", "evil"}})
				p, err := model.NewArchivePayload("kube", "", data)
				require.NoError(t, err)
				return p
			},
			prepare:        func(t *testing.T, dst string) {},
			create:         true,
			expCheckpoints: []int{0, 20},
			expErr:         model.ErrCorrupt,
			assert: func(t *testing.T, root, dst string) {
				_, err := os.Stat(filepath.Join(root, "evil.txt"))
				assert.True(t, errors.Is(err, os.ErrNotExist))
			},
		},

		"Relative symlinks inside the destination should be extracted.": {
			payload: func(t *testing.T) model.ArchivePayload {
				return payloadtest.Payload(t, "kube", map[string]payloadtest.File{
					"bin/":     {Mode: 0o755},
					"bin/k":    {Data: "kube", Mode: os.ModeSymlink | 0o777},
					"bin/kube": {Data: "#!/bin/sh\n", Mode: 0o755},
				})
			},
			prepare:        func(t *testing.T, dst string) {},
			create:         true,
			expCheckpoints: []int{0, 20, 80, 100},
			expFiles:       2,
			assert: func(t *testing.T, root, dst string) {
				link, err := os.Readlink(filepath.Join(dst, "bin", "k"))
				require.NoError(t, err)
				assert.Equal(t, "kube", link)
			},
		},

		"A symlink pointing outside the destination should fail as corrupt.": {
			payload: func(t *testing.T) model.ArchivePayload {
				return payloadtest.Payload(t, "kube", map[string]payloadtest.File{
					"up": {Data: "..", Mode: os.ModeSymlink | 0o777},
				})
			},
			prepare:        func(t *testing.T, dst string) {},
			create:         true,
			expCheckpoints: []int{0, 20},
			expErr:         model.ErrCorrupt,
		},

		"A chain of symlinks escaping the destination should fail as corrupt without writing outside.": {
			payload: func(t *testing.T) model.ArchivePayload {
				return payloadtest.Payload(t, "kube", map[string]payloadtest.File{
					"sub":          {Data: ".", Mode: os.ModeSymlink | 0o777},
					"sub/up":       {Data: "..", Mode: os.ModeSymlink | 0o777},
					"up/pwned.txt": {Data: "pwned"},
				})
			},
			prepare:        func(t *testing.T, dst string) {},
			create:         true,
			expCheckpoints: []int{0, 20},
			expErr:         model.ErrCorrupt,
			assert: func(t *testing.T, root, dst string) {
				_, err := os.Lstat(filepath.Join(dst, "up"))
				assert.True(t, errors.Is(err, os.ErrNotExist))
				_, err = os.Stat(filepath.Join(root, "pwned.txt"))
				assert.True(t, errors.Is(err, os.ErrNotExist))
			},
		},

		"A symlink whose target goes through another symlink should fail as corrupt.": {
			payload: func(t *testing.T) model.ArchivePayload {
				return payloadtest.Payload(t, "kube", map[string]payloadtest.File{
					"a": {Data: ".", Mode: os.ModeSymlink | 0o777},
					"b": {Data: "a/..", Mode: os.ModeSymlink | 0o777},
				})
			},
			prepare:        func(t *testing.T, dst string) {},
			create:         true,
			expCheckpoints: []int{0, 20},
			expErr:         model.ErrCorrupt,
			assert: func(t *testing.T, root, dst string) {
				_, err := os.Lstat(filepath.Join(dst, "b"))
				assert.True(t, errors.Is(err, os.ErrNotExist))
			},
		},

		"A destination whose parent is missing should fail with an IO error before any checkpoint after start.": {
			payload: func(t *testing.T) model.ArchivePayload {
				return payloadtest.Payload(t, "kube", payloadtest.DefaultFiles())
			},
			prepare: func(t *testing.T, dst string) {
				require.NoError(t, os.Remove(filepath.Dir(dst)))
			},
			create:         true,
			expCheckpoints: []int{0},
			expErr:         model.ErrIO,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			root := filepath.Join(t.TempDir(), "root")
			require.NoError(t, os.Mkdir(root, 0o755))
			dst := filepath.Join(root, "app")
			test.prepare(t, dst)

			e, err := extract.NewEngine(extract.EngineConfig{})
			require.NoError(t, err)

			rec := &checkpointRecorder{}
			res, err := e.Install(context.Background(), extract.InstallOptions{
				Payload:      test.payload(t),
				Destination:  dst,
				Create:       test.create,
				OnCheckpoint: rec.record,
			})

			assert.Equal(test.expCheckpoints, rec.percents)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			} else if assert.NoError(err) {
				assert.Equal(test.expFiles, res.Files)
				assert.Equal(dst, res.Destination)
				assert.NoError(res.CleanupErr)
			}

			if test.assert != nil {
				test.assert(t, root, dst)
			}
		})
	}
}

func TestEngineInstallCleanupFailureIsNotFatal(t *testing.T) {
	assert := assert.New(t)

	fs := failRemoveFS{Fs: afero.NewMemMapFs()}
	require.NoError(t, fs.MkdirAll("/opt", 0o755))

	e, err := extract.NewEngine(extract.EngineConfig{FS: fs})
	require.NoError(t, err)

	rec := &checkpointRecorder{}
	res, err := e.Install(context.Background(), extract.InstallOptions{
		Payload:      payloadtest.Payload(t, "kube", payloadtest.DefaultFiles()),
		Destination:  "/opt/kube",
		Create:       true,
		OnCheckpoint: rec.record,
	})
	require.NoError(t, err)

	assert.Equal([]int{0, 20, 80, 100}, rec.percents)
	assert.Error(res.CleanupErr)
	assert.Equal(3, res.Files)

	// The temporary archive is still there, next to the destination.
	names := dirNames(t, fs, "/opt")
	assert.Len(names, 2)
	assert.Contains(names, "kube")
}

func TestEngineInstallInMemory(t *testing.T) {
	assert := assert.New(t)

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/opt", 0o755))

	e, err := extract.NewEngine(extract.EngineConfig{FS: fs})
	require.NoError(t, err)

	res, err := e.Install(context.Background(), extract.InstallOptions{
		Payload:     payloadtest.Payload(t, "kube", payloadtest.DefaultFiles()),
		Destination: "/opt/kube",
		Create:      true,
	})
	require.NoError(t, err)
	assert.Equal(3, res.Files)

	assert.Equal([]string{"kube"}, dirNames(t, fs, "/opt"))
	assert.ElementsMatch([]string{"README.md", "bin", "conf"}, dirNames(t, fs, "/opt/kube"))
}

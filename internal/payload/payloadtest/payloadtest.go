// Package payloadtest has helpers to build payload archives on tests.
package payloadtest

import (
	"bytes"
	"io/fs"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/slok/instl/internal/model"
)

// File is a file to be stored in a test archive. Directories end with "/".
type File struct {
	Data string
	Mode fs.FileMode
}

// ZipBytes returns a zip archive with the files.
func ZipBytes(t *testing.T, files map[string]File) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		f := files[name]
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		if name[len(name)-1] == '/' {
			mode |= fs.ModeDir
		}
		hdr.SetMode(mode)

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("creating zip entry %s: %s", name, err)
		}
		if _, err := w.Write([]byte(f.Data)); err != nil {
			t.Fatalf("writing zip entry %s: %s", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %s", err)
	}

	return buf.Bytes()
}

// DefaultFiles is a small product layout with an executable.
func DefaultFiles() map[string]File {
	return map[string]File{
		"bin/":          {Mode: 0o755},
		"bin/kube":      {Data: "#!/bin/sh\necho kube\n", Mode: 0o755},
		"README.md":     {Data: "kube\n"},
		"conf/":         {Mode: 0o755},
		"conf/app.yaml": {Data: "debug: false\n"},
	}
}

// Payload returns a payload with the files.
func Payload(t *testing.T, name string, files map[string]File) model.ArchivePayload {
	t.Helper()

	p, err := model.NewArchivePayload(name, "", ZipBytes(t, files))
	if err != nil {
		t.Fatalf("creating payload: %s", err)
	}
	return p
}

// TruncatedPayload returns a payload whose archive has been cut in half.
func TruncatedPayload(t *testing.T, name string, files map[string]File) model.ArchivePayload {
	t.Helper()

	data := ZipBytes(t, files)
	p, err := model.NewArchivePayload(name, "", data[:len(data)/2])
	if err != nil {
		t.Fatalf("creating payload: %s", err)
	}
	return p
}

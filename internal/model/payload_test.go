package model_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/instl/internal/model"
)

func TestNewArchivePayload(t *testing.T) {
	tests := map[string]struct {
		name      string
		binDir    string
		data      []byte
		expBinDir string
		expErr    error
	}{
		"A valid payload should not fail.": {
			name:      "kube",
			binDir:    "tools/bin",
			data:      []byte("PK"),
			expBinDir: "tools/bin",
		},

		"Missing bin dir should use the default one.": {
			name:      "kube",
			data:      []byte("PK"),
			expBinDir: "bin",
		},

		"Missing name should fail.": {
			data:   []byte("PK"),
			expErr: model.ErrNotValid,
		},

		"A name with path separators should fail.": {
			name:   "../kube",
			data:   []byte("PK"),
			expErr: model.ErrNotValid,
		},

		"Empty data should fail.": {
			name:   "kube",
			expErr: model.ErrNotValid,
		},

		"A bin dir escaping the destination should fail.": {
			name:   "kube",
			binDir: "../bin",
			data:   []byte("PK"),
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			p, err := model.NewArchivePayload(test.name, test.binDir, test.data)
			if test.expErr != nil {
				assert.True(errors.Is(err, test.expErr))
				return
			}
			require.NoError(t, err)

			assert.Equal(test.name, p.Name())
			assert.Equal(test.expBinDir, p.BinDir())
			assert.Equal(int64(len(test.data)), p.Size())
		})
	}
}

func TestArchivePayloadIsImmutable(t *testing.T) {
	data := []byte("original")
	p, err := model.NewArchivePayload("kube", "", data)
	require.NoError(t, err)

	data[0] = 'X'

	got, err := io.ReadAll(p.Reader())
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
}

//go:build !windows

package registrar_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/instl/internal/registrar"
)

func TestNewDefaultUpdatesExistingRCFiles(t *testing.T) {
	assert := assert.New(t)

	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, ".bashrc"), []byte("# bash\n"), 0o644))

	r, err := registrar.NewDefault(registrar.DefaultConfig{HomeDir: home, Product: "kube"})
	require.NoError(t, err)
	require.NoError(t, r.Register(context.Background(), "/opt/kube/bin"))

	for _, f := range []string{".profile", ".bashrc"} {
		data, err := os.ReadFile(filepath.Join(home, f))
		require.NoError(t, err)
		assert.Contains(string(data), `export PATH="/opt/kube/bin:$PATH"`)
	}

	// Shells that were not configured are left alone.
	_, err = os.Stat(filepath.Join(home, ".zshrc"))
	assert.True(os.IsNotExist(err))
}

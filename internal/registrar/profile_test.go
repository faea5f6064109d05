package registrar_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/instl/internal/model"
	"github.com/slok/instl/internal/registrar"
)

func TestShellProfileRegister(t *testing.T) {
	tests := map[string]struct {
		initial    *string
		dirs       []string
		expEntries []string
		expContent string
	}{
		"Registering on a missing profile should create it with the managed block.": {
			dirs:       []string{"/opt/kube/bin"},
			expEntries: []string{"/opt/kube/bin"},
			expContent: `# >>> instl: kube >>>
export PATH="/opt/kube/bin:$PATH"
# <<< instl: kube <<<
`,
		},

		"Registering the same directory twice should leave a single entry.": {
			dirs:       []string{"/opt/kube/bin", "/opt/kube/bin"},
			expEntries: []string{"/opt/kube/bin"},
			expContent: `# >>> instl: kube >>>
export PATH="/opt/kube/bin:$PATH"
# <<< instl: kube <<<
`,
		},

		"Registering different directories should add them to the same block.": {
			dirs:       []string{"/opt/kube/bin", "/srv/kube/bin"},
			expEntries: []string{"/opt/kube/bin", "/srv/kube/bin"},
			expContent: `# >>> instl: kube >>>
export PATH="/opt/kube/bin:$PATH"
export PATH="/srv/kube/bin:$PATH"
# <<< instl: kube <<<
`,
		},

		"Registering on an existing profile should keep its content.": {
			initial: ptr("export EDITOR=vim\n"),
			dirs:    []string{"/opt/kube/bin"},
			expEntries: []string{
				"/opt/kube/bin",
			},
			expContent: `export EDITOR=vim

# >>> instl: kube >>>
export PATH="/opt/kube/bin:$PATH"
# <<< instl: kube <<<
`,
		},

		"Registering on a profile with a block should update the block in place.": {
			initial: ptr(`export A=1
# >>> instl: kube >>>
export PATH="/opt/kube/bin:$PATH"
# <<< instl: kube <<<
export B=2
`),
			dirs:       []string{"/srv/kube/bin"},
			expEntries: []string{"/opt/kube/bin", "/srv/kube/bin"},
			expContent: `export A=1
# >>> instl: kube >>>
export PATH="/opt/kube/bin:$PATH"
export PATH="/srv/kube/bin:$PATH"
# <<< instl: kube <<<
export B=2
`,
		},

		"Directories with trailing separators should be registered once cleaned.": {
			dirs:       []string{"/opt/kube/bin/", "/opt/kube/bin", "/opt/kube/./bin"},
			expEntries: []string{"/opt/kube/bin"},
			expContent: `# >>> instl: kube >>>
export PATH="/opt/kube/bin:$PATH"
# <<< instl: kube <<<
`,
		},

		"Directories with shell special chars should be escaped.": {
			dirs:       []string{`/opt/my "kube" $HOME/bin`},
			expEntries: []string{`/opt/my "kube" $HOME/bin`},
			expContent: `# >>> instl: kube >>>
export PATH="/opt/my \"kube\" \$HOME/bin:$PATH"
# <<< instl: kube <<<
`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			profile := filepath.Join(t.TempDir(), ".profile")
			if test.initial != nil {
				require.NoError(t, os.WriteFile(profile, []byte(*test.initial), 0o600))
			}

			r, err := registrar.NewShellProfile(registrar.ShellProfileConfig{
				Profiles: []string{profile},
				Product:  "kube",
			})
			require.NoError(t, err)

			for _, d := range test.dirs {
				require.NoError(t, r.Register(context.Background(), d))
			}

			data, err := os.ReadFile(profile)
			require.NoError(t, err)
			assert.Equal(test.expContent, string(data))

			entries, err := r.Entries(profile)
			require.NoError(t, err)
			assert.Equal(test.expEntries, entries)

			if test.initial != nil {
				info, err := os.Stat(profile)
				require.NoError(t, err)
				assert.Equal(os.FileMode(0o600), info.Mode().Perm())
			}
		})
	}
}

func TestShellProfileRegisterMultipleProfiles(t *testing.T) {
	dir := t.TempDir()
	profiles := []string{filepath.Join(dir, ".profile"), filepath.Join(dir, ".zshrc")}

	r, err := registrar.NewShellProfile(registrar.ShellProfileConfig{Profiles: profiles, Product: "kube"})
	require.NoError(t, err)

	require.NoError(t, r.Register(context.Background(), "/opt/kube/bin"))
	require.NoError(t, r.Register(context.Background(), "/opt/kube/bin"))

	for _, p := range profiles {
		entries, err := r.Entries(p)
		require.NoError(t, err)
		assert.Equal(t, []string{"/opt/kube/bin"}, entries)
	}
}

func TestShellProfileRegisterFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "dotfiles-profile")
	link := filepath.Join(dir, ".profile")
	require.NoError(t, os.WriteFile(target, []byte("export A=1\n"), 0o644))
	require.NoError(t, os.Symlink(target, link))

	r, err := registrar.NewShellProfile(registrar.ShellProfileConfig{Profiles: []string{link}, Product: "kube"})
	require.NoError(t, err)
	require.NoError(t, r.Register(context.Background(), "/opt/kube/bin"))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.True(t, info.Mode()&os.ModeSymlink != 0)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `export PATH="/opt/kube/bin:$PATH"`))
}

func TestShellProfileRegisterFailure(t *testing.T) {
	tests := map[string]struct {
		profile func(dir string) string
		initial *string
		regDir  string
	}{
		"A profile on a missing directory should fail to persist.": {
			profile: func(dir string) string { return filepath.Join(dir, "missing", ".profile") },
			regDir:  "/opt/kube/bin",
		},

		"A directory with new lines should fail to persist.": {
			profile: func(dir string) string { return filepath.Join(dir, ".profile") },
			regDir:  "/opt/kube\n/bin",
		},

		"A managed block without end marker should fail to persist and keep the profile untouched.": {
			profile: func(dir string) string { return filepath.Join(dir, ".profile") },
			initial: ptr(`# >>> instl: kube >>>
export PATH="/opt/kube/bin:$PATH"
export EDITOR=vim
alias ll='ls -l'
`),
			regDir: "/srv/kube/bin",
		},

		"A managed block with user lines should fail to persist and keep the profile untouched.": {
			profile: func(dir string) string { return filepath.Join(dir, ".profile") },
			initial: ptr(`# >>> instl: kube >>>
export PATH="/opt/kube/bin:$PATH"
export EDITOR=vim
# <<< instl: kube <<<
`),
			regDir: "/srv/kube/bin",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			profile := test.profile(t.TempDir())
			if test.initial != nil {
				require.NoError(t, os.WriteFile(profile, []byte(*test.initial), 0o644))
			}

			r, err := registrar.NewShellProfile(registrar.ShellProfileConfig{
				Profiles: []string{profile},
				Product:  "kube",
			})
			require.NoError(t, err)

			err = r.Register(context.Background(), test.regDir)
			assert.ErrorIs(t, err, model.ErrPersistFailed)

			if test.initial != nil {
				data, err := os.ReadFile(profile)
				require.NoError(t, err)
				assert.Equal(t, *test.initial, string(data))
			}
		})
	}
}

func TestNewShellProfileInvalidConfig(t *testing.T) {
	_, err := registrar.NewShellProfile(registrar.ShellProfileConfig{Product: "kube"})
	assert.Error(t, err)

	_, err = registrar.NewShellProfile(registrar.ShellProfileConfig{Profiles: []string{"/tmp/.profile"}})
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }

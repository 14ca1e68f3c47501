package bridge

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		path string
		want string
	}{
		{path: "~", want: home},
		{path: "~/.stepmania-5.1/Save/lights.out", want: filepath.Join(home, ".stepmania-5.1/Save/lights.out")},
		{path: "/var/run/sextet", want: "/var/run/sextet"},
		{path: "relative/path", want: "relative/path"},
		{path: "~other/file", want: "~other/file"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ExpandPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenInput(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "lights.out"), []byte("\x01\n"), 0o600))

	r, err := OpenInput("~/lights.out")
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x01\n"), data)
}

func TestOpenInputStdin(t *testing.T) {
	r, err := OpenInput(StdinPath)
	require.NoError(t, err)
	assert.Same(t, os.Stdin, r)
}

func TestOpenInputMissing(t *testing.T) {
	_, err := OpenInput(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrInput)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package bridge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// StdinPath selects standard input as the sextet source.
const StdinPath = "-"

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// OpenInput opens the sextet source. "-" returns standard input. Closing
// the returned file unblocks a pending read on a pipe.
func OpenInput(path string) (io.ReadCloser, error) {
	if path == StdinPath {
		return os.Stdin, nil
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}

	f, err := os.Open(expanded) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	return f, nil
}

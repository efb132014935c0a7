package engine

import (
	"errors"
	"io/fs"
	"os"

	"github.com/ossyrian/carc/internal/errdefs"
)

// The Require checks are the path preconditions of the engine operations.
// They are exported so the CLI can report the same errors before an engine
// call. Each failure is an *errdefs.ValidationError naming field.

// RequirePath rejects an empty path.
func RequirePath(field, path string) error {
	if path == "" {
		return errdefs.Invalid(field, nil, "cannot be empty")
	}
	return nil
}

// RequireDir requires path to name an existing directory, following
// symlinks.
func RequireDir(field, path string) error {
	if err := RequirePath(field, path); err != nil {
		return err
	}
	st, err := os.Stat(path)
	if err != nil || !st.IsDir() {
		return errdefs.Invalid(field, path, "must be an existing directory")
	}
	return nil
}

// RequireFile requires path to name an existing regular file.
func RequireFile(field, path string) error {
	if err := RequirePath(field, path); err != nil {
		return err
	}
	st, err := os.Stat(path)
	if err != nil || !st.Mode().IsRegular() {
		return errdefs.Invalid(field, path, "must be an existing file")
	}
	return nil
}

// RequireAbsent requires that nothing, not even a dangling symlink, exists
// at path.
func RequireAbsent(field, path string) error {
	if err := RequirePath(field, path); err != nil {
		return err
	}
	if _, err := os.Lstat(path); !errors.Is(err, fs.ErrNotExist) {
		return errdefs.Invalid(field, path, "cannot be an existing file")
	}
	return nil
}

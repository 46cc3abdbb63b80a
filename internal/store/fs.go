package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/gallerist/internal/errors"
)

// WriteFileAtomic writes data to path through a temporary file in the same
// directory followed by a rename, so readers see either the old or the new
// content. Missing parent directories are created.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ValidateID checks that id can name a page directory directly under the gallery root.
func ValidateID(id string) error {
	if err := validateName(id); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid page id %q: %s", id, err))
	}
	return nil
}

// ValidateFilename checks that name can name a photo directly inside a photos directory.
func ValidateFilename(name string) error {
	if err := validateName(name); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid filename %q: %s", name, err))
	}
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("must not be empty")
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("must not start with a dot")
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("must not contain path separators")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return fmt.Errorf("must not contain control characters")
		}
	}
	return nil
}

// SanitizeFilename turns an uploaded file name into a safe base name.
// Directory components are dropped, control characters removed, and a
// leading dot stripped. Returns "unnamed" when nothing usable is left.
func SanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, "\\", "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}

	var result strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			result.WriteRune(r)
		}
	}
	s = strings.TrimSpace(result.String())
	s = strings.TrimLeft(s, ".")

	if s == "" {
		s = "unnamed"
	}
	return s
}

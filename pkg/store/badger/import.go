package badger

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/marmos91/gopherd/internal/logger"
)

// Import copies every regular file below src into the store, keyed by its
// slash-separated path relative to src. Dotfiles are kept so ".gopher"
// indexes travel with their directory.
//
// Returns the number of files written.
func (s *BadgerStore) Import(ctx context.Context, src string) (int, error) {
	count := 0

	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, "../") {
			return fmt.Errorf("import: %s is outside %s", p, src)
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("import: read %s: %w", p, err)
		}

		if err := s.Put(ctx, path.Clean(name), data); err != nil {
			return fmt.Errorf("import: store %s: %w", name, err)
		}

		logger.Debug("Imported %s (%d bytes)", name, len(data))
		count++
		return nil
	})
	if err != nil {
		return count, err
	}

	return count, nil
}

package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionTimestampLayout = "20060102150405"

var migrationNameRe = regexp.MustCompile(`[^a-z0-9_]+`)

// slugifyMigrationName lowercases the human name and reduces it to the
// characters goose tolerates in a migration filename.
func slugifyMigrationName(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = migrationNameRe.ReplaceAllString(slug, "_")
	return strings.Trim(slug, "_")
}

// CreateSQLMigration writes an empty timestamped goose SQL migration into dir
// and returns its path. It refuses to overwrite an existing file.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := slugifyMigrationName(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q is empty after slugify", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version := time.Now().UTC().Format(versionTimestampLayout)
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, slug))
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("migration already exists: %s", path)
	}

	body := fmt.Sprintf(`-- +goose Up
-- +goose StatementBegin
-- %s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %s
-- +goose StatementEnd
`, slug, slug)

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

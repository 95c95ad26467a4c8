package database

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"

	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

type schemaMigration struct {
	Version string `gorm:"column:version;primaryKey"`
}

func (schemaMigration) TableName() string { return "schema_migrations" }

// Migrate applies every embedded migration for the connected dialect that is
// not yet recorded in schema_migrations. Each file runs in its own transaction.
func Migrate(db *gorm.DB) error {
	dialect := db.Dialector.Name()
	dir := "migrations/" + dialect
	if dialect != DialectPostgres && dialect != DialectSQLite {
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	if err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`).Error; err != nil {
		return err
	}

	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		var applied int64
		if err := db.Model(&schemaMigration{}).Where("version = ?", f).Count(&applied).Error; err != nil {
			return err
		}
		if applied > 0 {
			continue
		}

		body, err := migrationsFS.ReadFile(dir + "/" + f)
		if err != nil {
			return err
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			for _, stmt := range splitStatements(string(body)) {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return tx.Create(&schemaMigration{Version: f}).Error
		})
		if err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
		log.Printf("migration applied dialect=%s version=%s", dialect, f)
	}

	return nil
}

func splitStatements(sql string) []string {
	var out []string
	for _, stmt := range strings.Split(sql, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

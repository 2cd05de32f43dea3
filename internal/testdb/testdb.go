package testdb

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mwalcott/stagecrew/config"
)

// Open returns an isolated in-memory database migrated with the full schema.
// A shared-cache named database keeps every pooled connection on the same
// store.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

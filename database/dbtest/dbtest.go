// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-tiers/config"
	"github.com/krishkalaria12/snap-tiers/database"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Open returns a migrated, private in-memory sqlite database that is
// closed when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s-%s?mode=memory&cache=shared", name, uuid.NewString())

	db, err := database.Connect(config.DBConfig{Driver: "sqlite", DSN: dsn}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

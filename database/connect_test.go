package database

import (
	"testing"

	"github.com/krishkalaria12/snap-tiers/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "app.db?_foreign_keys=on", sqliteDSN("app.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", sqliteDSN("file:x?mode=memory"))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(config.DBConfig{Driver: "mysql", DSN: "x"}, zerolog.Nop())
	assert.Error(t, err)
}

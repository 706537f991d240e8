package db

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"tiffin-backend/internal/platform/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 3306, Username: "mess", Password: "pw", DBName: "mess"})
	require.True(t, strings.HasPrefix(dsn, "mess:pw@tcp(db:3306)/mess?"))
	require.Contains(t, dsn, "parseTime=true")

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "mess", parsed.DBName)
}

func TestIsDuplicateKey(t *testing.T) {
	require.True(t, IsDuplicateKey(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	require.False(t, IsDuplicateKey(&mysql.MySQLError{Number: 1452}))
	require.False(t, IsDuplicateKey(errors.New("boom")))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := embedMigrations.ReadDir("migrations")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), 4)
	for _, e := range entries {
		require.True(t, strings.HasSuffix(e.Name(), ".sql"), e.Name())
	}
}

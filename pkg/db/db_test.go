package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDialect(t *testing.T) {
	for _, kind := range []string{"mysql", "postgres", "sqlite", "sqlite3"} {
		dialector, err := Dialect(Config{Type: kind, Name: "invoicer"})
		require.NoError(t, err, kind)
		assert.NotNil(t, dialector, kind)
	}

	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.Config{DBType: "postgres", DBName: "invoicer", DBConnMaxLifetime: 300})
	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "invoicer", cfg.Name)
	assert.Equal(t, float64(300), cfg.ConnMaxLifetime.Seconds())
}

func TestOpenSQLite(t *testing.T) {
	conn, err := Open(Config{Type: "sqlite", Name: "file:db_open_test?mode=memory&cache=shared"})
	require.NoError(t, err)

	var one int
	require.NoError(t, conn.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{fmt.Errorf("save: %w", &pgconn.PgError{Code: "23505"}), true},
		{&pgconn.PgError{Code: "23503"}, false},
		{&pq.Error{Code: "23505"}, true},
		{errors.New("Error 1062: Duplicate entry"), true},
		{errors.New("UNIQUE constraint failed: invoice_templates.name"), true},
		{errors.New("boom"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsDuplicateKeyErr(tc.err), "%v", tc.err)
	}
}

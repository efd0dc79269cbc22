package database

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	migrations "github.com/mediamind-ai/mediamind/db"
)

func TestModel_Postgres(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("Skipping integration tests. Set INTEGRATION_TEST=1 to run.")
	}

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("mediamind_test"),
		tcpostgres.WithUsername("mediamind"),
		tcpostgres.WithPassword("mediamind"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() { _ = pgContainer.Terminate(ctx) }()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := Config{
		Connection: "pgsql",
		Host:       host,
		Port:       port.Int(),
		Database:   "mediamind_test",
		Username:   "mediamind",
		Password:   "mediamind",
	}
	source, err := fs.Sub(migrations.Migrations, "migrations")
	require.NoError(t, err)
	migrator, err := NewMigratorFS(source, cfg)
	require.NoError(t, err)
	ran, err := migrator.Up()
	require.NoError(t, err)
	assert.True(t, ran)
	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.NotZero(t, version)
	require.NoError(t, migrator.Close())

	db, err := Connect(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = Close(db) }()

	schema := NewSchema("Test")
	schema.DB = db
	schema.Casts = map[string]string{"id": "int"}

	created, err := schema.Create(ctx, map[string]interface{}{"name": "first"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Key())

	for i := 2; i <= 3; i++ {
		_, err := schema.Create(ctx, map[string]interface{}{"name": fmt.Sprintf("row %d", i)})
		require.NoError(t, err)
	}

	all, err := schema.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	found, err := schema.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", found.Get("name"))

	ok, err := found.Update(ctx, map[string]interface{}{"name": "renamed"})
	require.NoError(t, err)
	assert.True(t, ok)

	matches, err := schema.Where(ctx, "name", "like", "row%")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	ok, err = found.Delete(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = schema.Find(ctx, 1)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/profilekeeper/internal/dbx"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/dmitrijs2005/profilekeeper/internal/server/config"
	"github.com/dmitrijs2005/profilekeeper/internal/server/media"
	"github.com/dmitrijs2005/profilekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/profilekeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/profilekeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(mode string) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.StorageMode = mode
	c.ShutdownTimeout = time.Second
	return c
}

type fakeManager struct {
	migrateErr error
	migrated   bool
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error {
	m.migrated = true
	return m.migrateErr
}

func (m *fakeManager) Users(dbx.DBTX) users.Repository { return users.NewMemoryRepository() }

// stubPostgres swaps the storage constructors for the duration of the test.
func stubPostgres(t *testing.T, m *fakeManager, storageErr error) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	oldOpen, oldManager, oldStorage := openPostgres, newPostgresManager, newObjectStorage
	t.Cleanup(func() {
		openPostgres, newPostgresManager, newObjectStorage = oldOpen, oldManager, oldStorage
	})

	openPostgres = func(context.Context, string) (*sql.DB, error) { return db, nil }
	newPostgresManager = func() repomanager.RepositoryManager { return m }
	newObjectStorage = func(context.Context, media.S3Options) (services.ObjectStorage, error) {
		if storageErr != nil {
			return nil, storageErr
		}
		return media.NewMemoryStorage(), nil
	}

	return mock
}

func TestNewApp_MemoryMode(t *testing.T) {
	app, err := newApp(context.Background(), testConfig(config.StorageModeMemory), logging.Nop{})
	require.NoError(t, err)
	assert.Nil(t, app.db)
	assert.NotNil(t, app.server)
}

func TestNewApp_UnknownMode(t *testing.T) {
	_, err := newApp(context.Background(), testConfig("redis"), logging.Nop{})
	assert.ErrorContains(t, err, "unknown storage mode")
}

func TestNewApp_PostgresMode(t *testing.T) {
	m := &fakeManager{}
	stubPostgres(t, m, nil)

	app, err := newApp(context.Background(), testConfig(config.StorageModePostgres), logging.Nop{})
	require.NoError(t, err)
	assert.True(t, m.migrated)
	assert.NotNil(t, app.db)
}

func TestNewApp_PostgresFailuresCloseDB(t *testing.T) {
	tests := []struct {
		name       string
		manager    *fakeManager
		storageErr error
		want       string
	}{
		{"migrations", &fakeManager{migrateErr: errors.New("bad sql")}, nil, "migrations error"},
		{"object storage", &fakeManager{}, errors.New("no creds"), "object storage init error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := stubPostgres(t, tt.manager, tt.storageErr)
			mock.ExpectClose()

			_, err := newApp(context.Background(), testConfig(config.StorageModePostgres), logging.Nop{})
			assert.ErrorContains(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNewApp_OpenError(t *testing.T) {
	old := openPostgres
	t.Cleanup(func() { openPostgres = old })
	openPostgres = func(context.Context, string) (*sql.DB, error) { return nil, errors.New("refused") }

	_, err := newApp(context.Background(), testConfig(config.StorageModePostgres), logging.Nop{})
	assert.ErrorContains(t, err, "db init error")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	mock := stubPostgres(t, &fakeManager{}, nil)
	mock.ExpectClose()

	app, err := newApp(context.Background(), testConfig(config.StorageModePostgres), logging.Nop{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

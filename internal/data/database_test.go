package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase("sqlite", filepath.Join(t.TempDir(), "soil.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabaseKeyValue(t *testing.T) {
	db := openSQLite(t)

	_, ok, err := db.Get(CropKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Set(CropKey, "maize"))
	require.NoError(t, db.Set(CropKey, "wheat"))

	v, ok, err := db.Get(CropKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "wheat", v)

	require.NoError(t, db.Delete(CropKey))
	_, ok, err = db.Get(CropKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDatabaseBackedHistorySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soil.db")

	db, err := NewDatabase("sqlite", path)
	require.NoError(t, err)
	b := NewBuffer(db, MaxHistory, zerolog.Nop())
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Append(reading(i)))
	}
	require.NoError(t, db.Close())

	db, err = NewDatabase("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	all := NewBuffer(db, MaxHistory, zerolog.Nop()).GetAllReadings()
	require.Len(t, all, 3)
	assert.True(t, all[2].Timestamp.Equal(reading(2).Timestamp))
}

func TestNewDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := NewDatabase("postgres", "")
	assert.Error(t, err)
}

func TestNewDatabaseReportsSchemaFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readonly.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewDatabase("sqlite", "file:"+path+"?mode=ro")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init tables: create kv_store table:")
}

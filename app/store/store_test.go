package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func TestOpen(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		require.NoError(t, s.Ping(context.Background()))
		assert.False(t, s.postgres)
		require.NoError(t, s.Close())
	})

	t.Run("empty dsn", func(t *testing.T) {
		_, err := Open(context.Background(), "")
		require.Error(t, err)
	})

	t.Run("invalid path", func(t *testing.T) {
		s, err := Open(context.Background(), "/invalid/path/that/does/not/exist/test.db")
		require.Error(t, err)
		assert.Nil(t, s)
	})

	t.Run("reopen keeps data", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")
		s, err := Open(context.Background(), dbPath)
		require.NoError(t, err)
		_, err = s.UpsertEscala(context.Background(), "Lider")
		require.NoError(t, err)
		require.NoError(t, s.Close())

		s, err = Open(context.Background(), dbPath)
		require.NoError(t, err)
		defer s.Close()
		escalas, err := s.ListEscalas(context.Background())
		require.NoError(t, err)
		require.Len(t, escalas, 1)
		assert.Equal(t, "Lider", escalas[0].Nombre)
	})
}

func TestStore_TablesCreated(t *testing.T) {
	s := newTestStore(t)
	tables := []string{"users", "sedes", "escalas", "ministerios", "personas", "persona_escala",
		"persona_ministerio", "categorias", "actividades", "transacciones"}
	for _, table := range tables {
		var count int
		err := s.db.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "/tmp/x.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		sqliteDSN("/tmp/x.db"))
	assert.Equal(t, "file:x.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		sqliteDSN("file:x.db?mode=rwc"))
}

func TestTimestamp(t *testing.T) {
	var ts Timestamp
	require.NoError(t, ts.Scan(int64(1700000000)))
	assert.Equal(t, int64(1700000000), ts.Unix())

	v, err := ts.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), v)

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	require.NoError(t, ts.Scan(int64(0)))
	assert.True(t, ts.IsZero())

	assert.Error(t, ts.Scan("bad"))

	v, err = Timestamp{}.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestWrapWriteErr(t *testing.T) {
	assert.NoError(t, wrapWriteErr(nil, "x"))
	err := wrapWriteErr(errors.New("constraint failed: UNIQUE constraint failed: personas.numero_id (2067)"), "insert")
	assert.ErrorIs(t, err, ErrDuplicate)
	err = wrapWriteErr(errors.New("boom"), "insert")
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.EqualError(t, err, "insert: boom")
}

func TestNullableAndUnique(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Nil(t, nullable("  "))
	assert.Equal(t, "x", nullable("x"))
	assert.Equal(t, []string{"a", "b"}, uniqueNonEmpty([]string{"a", "", " b ", "a"}))
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := newFixtures(t, s)

	fx.transaccion("2024-03-01", "100000", fx.ingreso, "")
	fx.transaccion("2024-03-02", "25000.50", fx.egreso, "")
	anulada := fx.transaccion("2024-03-03", "999", fx.ingreso, "")
	require.NoError(t, s.AnularTransaccion(ctx, anulada.ID, "error"))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Personas)
	assert.Equal(t, 1, stats.Actividades)
	assert.Equal(t, 2, stats.Categorias)
	assert.Equal(t, 3, stats.Transacciones)
	assert.Equal(t, "100000", stats.Ingresos.String())
	assert.Equal(t, "25000.5", stats.Egresos.String())
	assert.Equal(t, "74999.5", stats.Balance.String())
}

func TestStore_fixedClock(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 500, time.UTC) }
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), s.timestamp().UTC())
}

package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib" // postgres driver
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// errors returned by the store, check with errors.Is
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	ErrInUse     = errors.New("in use")
)

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// Store implements persistence over sqlite or postgres
type Store struct {
	db       *sqlx.DB
	postgres bool
	retry    Repeater         // retries inserts hitting a unique numero_transaccion
	now      func() time.Time // overridden in tests
}

func init() {
	// modernc registers itself as "sqlite" which sqlx doesn't know about
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the database described by dsn and creates the schema.
// DSNs starting with postgres:// or postgresql:// use pgx, anything else is a sqlite file path.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}

	driverName, source, isPostgres := "sqlite", sqliteDSN(dsn), false
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driverName, source, isPostgres = "pgx", dsn, true
	}

	db, err := sqlx.ConnectContext(ctx, driverName, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:       db,
		postgres: isPostgres,
		retry:    repeater.New(&strategy.Backoff{Repeats: 5, Duration: 10 * time.Millisecond, Factor: 2, Jitter: true}),
		now:      time.Now,
	}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Printf("[INFO] store opened, driver %s", driverName)
	return s, nil
}

// sqliteDSN adds the pragmas every connection in the pool needs
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// initialize creates the database schema
func (s *Store) initialize(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sedes (
			id TEXT PRIMARY KEY,
			nombre TEXT NOT NULL,
			direccion TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sedes_nombre ON sedes(nombre)`,
		`CREATE TABLE IF NOT EXISTS escalas (
			id TEXT PRIMARY KEY,
			nombre TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_escalas_nombre ON escalas(nombre)`,
		`CREATE TABLE IF NOT EXISTS ministerios (
			id TEXT PRIMARY KEY,
			nombre TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_ministerios_nombre ON ministerios(nombre)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			sede_id TEXT REFERENCES sedes(id) ON DELETE SET NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE TABLE IF NOT EXISTS personas (
			id TEXT PRIMARY KEY,
			nombres TEXT NOT NULL,
			primer_apellido TEXT NOT NULL,
			segundo_apellido TEXT,
			tipo_id TEXT NOT NULL,
			numero_id TEXT NOT NULL,
			fecha_nacimiento TEXT,
			edad INTEGER,
			genero TEXT,
			telefono TEXT,
			email TEXT,
			direccion TEXT,
			url_foto TEXT,
			user_id TEXT,
			sede_id TEXT REFERENCES sedes(id) ON DELETE SET NULL,
			estado_civil TEXT,
			departamento TEXT,
			municipio TEXT,
			bautizado BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_personas_numero_id ON personas(numero_id)`,
		`CREATE TABLE IF NOT EXISTS persona_escala (
			persona_id TEXT NOT NULL REFERENCES personas(id) ON DELETE CASCADE,
			escala_id TEXT NOT NULL REFERENCES escalas(id) ON DELETE CASCADE,
			PRIMARY KEY (persona_id, escala_id)
		)`,
		`CREATE TABLE IF NOT EXISTS persona_ministerio (
			persona_id TEXT NOT NULL REFERENCES personas(id) ON DELETE CASCADE,
			ministerio_id TEXT NOT NULL REFERENCES ministerios(id) ON DELETE CASCADE,
			PRIMARY KEY (persona_id, ministerio_id)
		)`,
		`CREATE TABLE IF NOT EXISTS categorias (
			id TEXT PRIMARY KEY,
			nombre TEXT NOT NULL,
			tipo TEXT NOT NULL,
			descripcion TEXT,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS actividades (
			id TEXT PRIMARY KEY,
			nombre TEXT NOT NULL,
			descripcion TEXT,
			fecha_inicio TEXT NOT NULL,
			fecha_fin TEXT,
			estado TEXT NOT NULL,
			meta NUMERIC(14,2) NOT NULL,
			user_id TEXT,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transacciones (
			id TEXT PRIMARY KEY,
			numero_transaccion TEXT NOT NULL,
			fecha TEXT NOT NULL,
			monto NUMERIC(14,2) NOT NULL,
			tipo TEXT NOT NULL,
			categoria_id TEXT NOT NULL REFERENCES categorias(id),
			descripcion TEXT,
			actividad_id TEXT REFERENCES actividades(id),
			persona_id TEXT REFERENCES personas(id) ON DELETE SET NULL,
			user_id TEXT,
			evidencia TEXT,
			estado TEXT NOT NULL,
			motivo_anulacion TEXT,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transacciones_numero ON transacciones(numero_transaccion)`,
		`CREATE INDEX IF NOT EXISTS idx_transacciones_actividad ON transacciones(actividad_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transacciones_categoria ON transacciones(categoria_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transacciones_fecha ON transacciones(fecha)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}

func (s *Store) timestamp() Timestamp {
	return Timestamp{Time: s.now().Truncate(time.Second)}
}

// withTx runs fn in a transaction, committing on success
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// newID makes a random UUID for primary keys
func newID() string {
	return uuid.NewString()
}

// nullable converts empty strings to NULL, needed for optional foreign keys
func nullable(v string) driver.Value {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

// money rounds an amount to the two decimals of NUMERIC(14,2), as postgres does on insert
func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// sumMoney adds amounts in Go. SQLite keeps NUMERIC columns as floats, so SUM(monto) there drifts.
func sumMoney(montos []decimal.Decimal) decimal.Decimal {
	res := decimal.Zero
	for _, m := range montos {
		res = res.Add(money(m))
	}
	return res
}

// isUniqueViolation detects unique constraint errors from both drivers
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// wrapWriteErr maps driver errors to store errors
func wrapWriteErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", what, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// checkAffected returns ErrNotFound when nothing was changed
func checkAffected(res interface{ RowsAffected() (int64, error) }, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows for %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

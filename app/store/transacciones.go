package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/feligres/feligres/app/store/enums"
	"github.com/feligres/feligres/app/textutil"
)

// ErrAnulada returned when annulling a transaccion twice
var ErrAnulada = errors.New("already annulled")

// SinCategoria is shown for transacciones whose categoria is gone
const SinCategoria = "Sin categoría"

const transaccionSelect = `SELECT t.id, t.numero_transaccion, t.fecha, t.monto, t.tipo, t.categoria_id,
	COALESCE(t.descripcion, '') AS descripcion, COALESCE(t.actividad_id, '') AS actividad_id,
	COALESCE(t.persona_id, '') AS persona_id, COALESCE(t.user_id, '') AS user_id,
	COALESCE(t.evidencia, '') AS evidencia, t.estado, COALESCE(t.motivo_anulacion, '') AS motivo_anulacion,
	t.created_at, t.updated_at,
	COALESCE(c.nombre, '') AS categoria_nombre, COALESCE(a.nombre, '') AS actividad_nombre,
	COALESCE(p.nombres, '') AS persona_nombres, COALESCE(p.primer_apellido, '') AS persona_primer_apellido,
	COALESCE(p.segundo_apellido, '') AS persona_segundo_apellido
	FROM transacciones t
	LEFT JOIN categorias c ON c.id = t.categoria_id
	LEFT JOIN actividades a ON a.id = t.actividad_id
	LEFT JOIN personas p ON p.id = t.persona_id`

// ListTransacciones returns transacciones matching the filter, newest first
func (s *Store) ListTransacciones(ctx context.Context, f TransaccionFilter) ([]Transaccion, error) {
	where, args := transaccionWhere(f)
	query := transaccionSelect + where + " ORDER BY t.created_at DESC, t.numero_transaccion DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	res := []Transaccion{}
	if err := s.db.SelectContext(ctx, &res, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list transacciones: %w", err)
	}
	for i := range res {
		fillNames(&res[i])
	}
	return res, nil
}

// CountTransacciones returns the number of transacciones matching the filter, pagination ignored
func (s *Store) CountTransacciones(ctx context.Context, f TransaccionFilter) (int, error) {
	where, args := transaccionWhere(f)
	var count int
	if err := s.db.GetContext(ctx, &count, s.rebind("SELECT COUNT(*) FROM transacciones t"+where), args...); err != nil {
		return 0, fmt.Errorf("failed to count transacciones: %w", err)
	}
	return count, nil
}

func transaccionWhere(f TransaccionFilter) (where string, args []any) {
	conds := []string{}
	if f.ActividadID != "" {
		conds = append(conds, "t.actividad_id = ?")
		args = append(args, f.ActividadID)
	}
	if f.FechaInicio != "" {
		conds = append(conds, "t.fecha >= ?")
		args = append(args, f.FechaInicio)
	}
	if f.FechaFin != "" {
		// fecha may carry a time part, so compare against the start of the next day
		conds = append(conds, "t.fecha < ?")
		args = append(args, nextDay(f.FechaFin))
	}
	if !f.Tipo.IsZero() {
		conds = append(conds, "t.tipo = ?")
		args = append(args, f.Tipo)
	}
	if f.Estado.String() != "" {
		conds = append(conds, "t.estado = ?")
		args = append(args, f.Estado)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// nextDay returns the day after a YYYY-MM-DD date, or the input with a high suffix when unparsable
func nextDay(day string) string {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return day + "~"
	}
	return t.AddDate(0, 0, 1).Format("2006-01-02")
}

// GetTransaccion returns a transaccion with its joined names
func (s *Store) GetTransaccion(ctx context.Context, id string) (Transaccion, error) {
	var t Transaccion
	err := s.db.GetContext(ctx, &t, s.rebind(transaccionSelect+" WHERE t.id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Transaccion{}, fmt.Errorf("transaccion %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Transaccion{}, fmt.Errorf("failed to get transaccion %s: %w", id, err)
	}
	fillNames(&t)
	return t, nil
}

func fillNames(t *Transaccion) {
	if t.CategoriaNombre == "" {
		t.CategoriaNombre = SinCategoria
	}
	t.PersonaNombre = textutil.FullName(t.PersonaNombres, t.PersonaPrimerApellido, t.PersonaSegundoApellido)
}

// NextNumeroTransaccion computes the number following the latest transaccion of the tipo,
// ING001 or EGR001 when there is none. A latest number without numeric suffix falls back
// to the highest numeric one of the tipo.
func (s *Store) NextNumeroTransaccion(ctx context.Context, tipo enums.TipoTransaccion) (string, error) {
	var last string
	err := s.db.GetContext(ctx, &last, s.rebind(`SELECT numero_transaccion FROM transacciones WHERE tipo = ?
		ORDER BY created_at DESC, LENGTH(numero_transaccion) DESC, numero_transaccion DESC LIMIT 1`), tipo)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to get last numero_transaccion: %w", err)
	}
	prefix := tipo.Prefix()
	if _, ok := numeroSuffix(prefix, last); ok || last == "" {
		return followingNumero(prefix, last), nil
	}

	log.Printf("[WARN] numero_transaccion %q has no numeric suffix, using the highest %s number", last, prefix)
	all := []string{}
	if err := s.db.SelectContext(ctx, &all, s.rebind(`SELECT numero_transaccion FROM transacciones WHERE tipo = ?`),
		tipo); err != nil {
		return "", fmt.Errorf("failed to list numero_transaccion: %w", err)
	}
	highest := 0
	for _, numero := range all {
		if n, ok := numeroSuffix(prefix, numero); ok && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1), nil
}

// numeroSuffix extracts the non-negative sequence after prefix
func numeroSuffix(prefix, numero string) (int, bool) {
	if !strings.HasPrefix(numero, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(numero, prefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func followingNumero(prefix, last string) string {
	n, ok := numeroSuffix(prefix, last)
	if !ok {
		return prefix + "001"
	}
	return fmt.Sprintf("%s%03d", prefix, n+1)
}

// CreateTransaccion inserts a transaccion as activa with the next numero_transaccion.
// A concurrent insert taking the same number is retried with a fresh number.
func (s *Store) CreateTransaccion(ctx context.Context, t *Transaccion) error {
	ts := s.timestamp()
	t.ID, t.CreatedAt, t.UpdatedAt = newID(), ts, ts
	t.Estado = enums.EstadoTransaccionActiva
	t.MotivoAnulacion = ""
	t.Monto = money(t.Monto)

	errStop := errors.New("stop")
	var insertErr error
	err := s.retry.Do(ctx, func() error {
		numero, err := s.NextNumeroTransaccion(ctx, t.Tipo)
		if err != nil {
			insertErr = err
			return errStop
		}
		t.NumeroTransaccion = numero
		_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO transacciones (id, numero_transaccion, fecha, monto, tipo,
			categoria_id, descripcion, actividad_id, persona_id, user_id, evidencia, estado, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			t.ID, t.NumeroTransaccion, t.Fecha, t.Monto, t.Tipo, t.CategoriaID, nullable(t.Descripcion),
			nullable(t.ActividadID), nullable(t.PersonaID), nullable(t.UserID), nullable(t.Evidencia), t.Estado,
			t.CreatedAt, t.UpdatedAt)
		insertErr = wrapWriteErr(err, "failed to insert transaccion")
		if insertErr != nil && errors.Is(insertErr, ErrDuplicate) {
			log.Printf("[DEBUG] numero_transaccion %s taken, retrying", numero)
			return insertErr
		}
		if insertErr != nil {
			return errStop
		}
		return nil
	}, errStop)

	if insertErr != nil {
		return insertErr
	}
	if err != nil {
		return fmt.Errorf("failed to insert transaccion: %w", err)
	}
	return nil
}

// AnularTransaccion marks an activa transaccion as anulada with the given reason
func (s *Store) AnularTransaccion(ctx context.Context, id, motivo string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE transacciones SET estado = ?, motivo_anulacion = ?, updated_at = ?
		WHERE id = ? AND estado = ?`), enums.EstadoTransaccionAnulada, nullable(motivo), s.timestamp(), id,
		enums.EstadoTransaccionActiva)
	if err != nil {
		return fmt.Errorf("failed to annul transaccion %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	// nothing changed, either missing or already anulada
	t, err := s.GetTransaccion(ctx, id)
	if err != nil {
		return err
	}
	if t.IsAnulada() {
		return fmt.Errorf("transaccion %s: %w", id, ErrAnulada)
	}
	return fmt.Errorf("failed to annul transaccion %s", id)
}

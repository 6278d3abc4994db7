package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/feligres/feligres/app/store/enums"
)

const actividadSelect = `SELECT id, nombre, COALESCE(descripcion, '') AS descripcion, fecha_inicio,
	COALESCE(fecha_fin, '') AS fecha_fin, estado, meta, COALESCE(user_id, '') AS user_id,
	created_at, updated_at FROM actividades`

// ListActividades returns all actividades, most recent start date first
func (s *Store) ListActividades(ctx context.Context) ([]Actividad, error) {
	res := []Actividad{}
	if err := s.db.SelectContext(ctx, &res, actividadSelect+" ORDER BY fecha_inicio DESC, nombre"); err != nil {
		return nil, fmt.Errorf("failed to list actividades: %w", err)
	}
	return res, nil
}

// GetActividad returns an actividad by id
func (s *Store) GetActividad(ctx context.Context, id string) (Actividad, error) {
	var a Actividad
	err := s.db.GetContext(ctx, &a, s.rebind(actividadSelect+" WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Actividad{}, fmt.Errorf("actividad %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Actividad{}, fmt.Errorf("failed to get actividad %s: %w", id, err)
	}
	return a, nil
}

// CreateActividad inserts an actividad, setting its id and timestamps
func (s *Store) CreateActividad(ctx context.Context, a *Actividad) error {
	ts := s.timestamp()
	a.ID, a.CreatedAt, a.UpdatedAt = newID(), ts, ts
	a.Meta = money(a.Meta)
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO actividades (id, nombre, descripcion, fecha_inicio,
		fecha_fin, estado, meta, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.Nombre, nullable(a.Descripcion), a.FechaInicio, nullable(a.FechaFin), a.Estado, a.Meta,
		nullable(a.UserID), a.CreatedAt, a.UpdatedAt)
	return wrapWriteErr(err, "failed to insert actividad")
}

// UpdateActividad overwrites the editable fields, owner and created_at are kept
func (s *Store) UpdateActividad(ctx context.Context, a *Actividad) error {
	a.UpdatedAt = s.timestamp()
	a.Meta = money(a.Meta)
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE actividades SET nombre = ?, descripcion = ?, fecha_inicio = ?,
		fecha_fin = ?, estado = ?, meta = ?, updated_at = ? WHERE id = ?`),
		a.Nombre, nullable(a.Descripcion), a.FechaInicio, nullable(a.FechaFin), a.Estado, a.Meta, a.UpdatedAt, a.ID)
	if err != nil {
		return wrapWriteErr(err, "failed to update actividad")
	}
	return checkAffected(res, "actividad "+a.ID)
}

// DeleteActividad removes an actividad owned by ownerID, empty ownerID skips the ownership check.
// Returns ErrNotFound for missing or foreign actividades and ErrInUse when transacciones reference it.
func (s *Store) DeleteActividad(ctx context.Context, id, ownerID string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query, args := "SELECT COUNT(*) FROM actividades WHERE id = ?", []any{id}
		if ownerID != "" {
			query += " AND user_id = ?"
			args = append(args, ownerID)
		}
		var found int
		if err := tx.GetContext(ctx, &found, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to check actividad %s: %w", id, err)
		}
		if found == 0 {
			return fmt.Errorf("actividad %s: %w", id, ErrNotFound)
		}

		var used int
		if err := tx.GetContext(ctx, &used, tx.Rebind("SELECT COUNT(*) FROM transacciones WHERE actividad_id = ?"), id); err != nil {
			return fmt.Errorf("failed to count transacciones of actividad %s: %w", id, err)
		}
		if used > 0 {
			return fmt.Errorf("actividad %s has %d transacciones: %w", id, used, ErrInUse)
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM actividades WHERE id = ?"), id); err != nil {
			return fmt.Errorf("failed to delete actividad %s: %w", id, err)
		}
		return nil
	})
}

// ActividadNameTaken reports whether the user already has an actividad with this name.
// excludeID skips the actividad being edited.
func (s *Store) ActividadNameTaken(ctx context.Context, userID, nombre, excludeID string) (bool, error) {
	query := "SELECT COUNT(*) FROM actividades WHERE nombre = ? AND COALESCE(user_id, '') = ?"
	args := []any{strings.TrimSpace(nombre), userID}
	if excludeID != "" {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}
	var count int
	if err := s.db.GetContext(ctx, &count, s.rebind(query), args...); err != nil {
		return false, fmt.Errorf("failed to check actividad name: %w", err)
	}
	return count > 0, nil
}

// ActividadResumen sums active ingresos and egresos of an actividad
func (s *Store) ActividadResumen(ctx context.Context, id string) (Resumen, error) {
	rows := []struct {
		Tipo  enums.TipoTransaccion `db:"tipo"`
		Monto decimal.Decimal       `db:"monto"`
	}{}
	err := s.db.SelectContext(ctx, &rows, s.rebind(`SELECT tipo, monto FROM transacciones
		WHERE actividad_id = ? AND estado = ?`), id, enums.EstadoTransaccionActiva)
	if err != nil {
		return Resumen{}, fmt.Errorf("failed to sum transacciones of actividad %s: %w", id, err)
	}

	res := Resumen{Ingresos: decimal.Zero, Egresos: decimal.Zero}
	for _, r := range rows {
		switch r.Tipo {
		case enums.TipoTransaccionIngreso:
			res.Ingresos = res.Ingresos.Add(money(r.Monto))
		case enums.TipoTransaccionEgreso:
			res.Egresos = res.Egresos.Add(money(r.Monto))
		}
	}
	res.Neto = res.Ingresos.Sub(res.Egresos)
	return res, nil
}

// RefreshActividadEstados moves actividades along their lifecycle for the given day (YYYY-MM-DD):
// planeada becomes en_curso once started, planeada and en_curso become completada after fecha_fin.
// Returns the number of actividades changed.
func (s *Store) RefreshActividadEstados(ctx context.Context, today string) (int, error) {
	ts := s.timestamp()
	var total int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE actividades SET estado = ?, updated_at = ?
			WHERE estado IN (?, ?) AND fecha_fin IS NOT NULL AND fecha_fin <> '' AND fecha_fin < ?`),
			enums.EstadoActividadCompletada, ts, enums.EstadoActividadPlaneada, enums.EstadoActividadEnCurso, today)
		if err != nil {
			return fmt.Errorf("failed to complete actividades: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n

		res, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE actividades SET estado = ?, updated_at = ?
			WHERE estado = ? AND fecha_inicio <= ?`), enums.EstadoActividadEnCurso, ts, enums.EstadoActividadPlaneada, today)
		if err != nil {
			return fmt.Errorf("failed to start actividades: %w", err)
		}
		n, _ = res.RowsAffected()
		total += n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

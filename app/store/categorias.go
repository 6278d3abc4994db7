package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/feligres/feligres/app/store/enums"
)

const categoriaSelect = `SELECT id, nombre, tipo, COALESCE(descripcion, '') AS descripcion,
	created_at, updated_at FROM categorias`

// ListCategorias returns categorias ordered by tipo and name. Zero tipo returns all.
func (s *Store) ListCategorias(ctx context.Context, tipo enums.TipoTransaccion) ([]Categoria, error) {
	query, args := categoriaSelect, []any{}
	if !tipo.IsZero() {
		query += " WHERE tipo = ?"
		args = append(args, tipo)
	}
	res := []Categoria{}
	if err := s.db.SelectContext(ctx, &res, s.rebind(query+" ORDER BY tipo DESC, nombre"), args...); err != nil {
		return nil, fmt.Errorf("failed to list categorias: %w", err)
	}
	return res, nil
}

// GetCategoria returns a categoria by id
func (s *Store) GetCategoria(ctx context.Context, id string) (Categoria, error) {
	var c Categoria
	err := s.db.GetContext(ctx, &c, s.rebind(categoriaSelect+" WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Categoria{}, fmt.Errorf("categoria %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Categoria{}, fmt.Errorf("failed to get categoria %s: %w", id, err)
	}
	return c, nil
}

// CreateCategoria inserts a categoria, setting its id and timestamps
func (s *Store) CreateCategoria(ctx context.Context, c *Categoria) error {
	ts := s.timestamp()
	c.ID, c.CreatedAt, c.UpdatedAt = newID(), ts, ts
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO categorias (id, nombre, tipo, descripcion, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`), c.ID, c.Nombre, c.Tipo, nullable(c.Descripcion), c.CreatedAt, c.UpdatedAt)
	return wrapWriteErr(err, "failed to insert categoria")
}

// UpdateCategoria overwrites nombre, tipo and descripcion
func (s *Store) UpdateCategoria(ctx context.Context, c *Categoria) error {
	c.UpdatedAt = s.timestamp()
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE categorias SET nombre = ?, tipo = ?, descripcion = ?,
		updated_at = ? WHERE id = ?`), c.Nombre, c.Tipo, nullable(c.Descripcion), c.UpdatedAt, c.ID)
	if err != nil {
		return wrapWriteErr(err, "failed to update categoria")
	}
	return checkAffected(res, "categoria "+c.ID)
}

// DeleteCategoria removes a categoria unless a transaccion references it
func (s *Store) DeleteCategoria(ctx context.Context, id string) error {
	var count int
	if err := s.db.GetContext(ctx, &count, s.rebind("SELECT COUNT(*) FROM transacciones WHERE categoria_id = ?"), id); err != nil {
		return fmt.Errorf("failed to count transacciones of categoria %s: %w", id, err)
	}
	if count > 0 {
		return fmt.Errorf("categoria %s has %d transacciones: %w", id, count, ErrInUse)
	}
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM categorias WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete categoria %s: %w", id, err)
	}
	return checkAffected(res, "categoria "+id)
}

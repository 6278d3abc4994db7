package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ListSedes returns all sedes ordered by name
func (s *Store) ListSedes(ctx context.Context) ([]Sede, error) {
	res := []Sede{}
	if err := s.db.SelectContext(ctx, &res, "SELECT id, nombre, direccion FROM sedes ORDER BY nombre"); err != nil {
		return nil, fmt.Errorf("failed to list sedes: %w", err)
	}
	return res, nil
}

// ListEscalas returns all escalas ordered by name
func (s *Store) ListEscalas(ctx context.Context) ([]CatalogItem, error) {
	return s.listCatalog(ctx, "escalas")
}

// ListMinisterios returns all ministerios ordered by name
func (s *Store) ListMinisterios(ctx context.Context) ([]CatalogItem, error) {
	return s.listCatalog(ctx, "ministerios")
}

// UpsertSede creates a sede or updates the direccion of the existing one with the same name
func (s *Store) UpsertSede(ctx context.Context, nombre, direccion string) (Sede, error) {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" {
		return Sede{}, errors.New("empty sede name")
	}
	var sede Sede
	err := s.db.GetContext(ctx, &sede, s.rebind("SELECT id, nombre, direccion FROM sedes WHERE nombre = ?"), nombre)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		sede = Sede{ID: newID(), Nombre: nombre, Direccion: direccion}
		_, err = s.db.ExecContext(ctx, s.rebind("INSERT INTO sedes (id, nombre, direccion) VALUES (?, ?, ?)"),
			sede.ID, sede.Nombre, sede.Direccion)
		if err != nil {
			return Sede{}, wrapWriteErr(err, "failed to insert sede")
		}
		return sede, nil
	case err != nil:
		return Sede{}, fmt.Errorf("failed to get sede %q: %w", nombre, err)
	}

	if direccion != "" && direccion != sede.Direccion {
		if _, err := s.db.ExecContext(ctx, s.rebind("UPDATE sedes SET direccion = ? WHERE id = ?"), direccion, sede.ID); err != nil {
			return Sede{}, fmt.Errorf("failed to update sede %q: %w", nombre, err)
		}
		sede.Direccion = direccion
	}
	return sede, nil
}

// UpsertEscala returns the escala with the given name, creating it if missing
func (s *Store) UpsertEscala(ctx context.Context, nombre string) (CatalogItem, error) {
	return s.upsertCatalog(ctx, "escalas", nombre)
}

// UpsertMinisterio returns the ministerio with the given name, creating it if missing
func (s *Store) UpsertMinisterio(ctx context.Context, nombre string) (CatalogItem, error) {
	return s.upsertCatalog(ctx, "ministerios", nombre)
}

// table is one of the fixed catalog table names, never user input
func (s *Store) listCatalog(ctx context.Context, table string) ([]CatalogItem, error) {
	res := []CatalogItem{}
	if err := s.db.SelectContext(ctx, &res, "SELECT id, nombre FROM "+table+" ORDER BY nombre"); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return res, nil
}

func (s *Store) upsertCatalog(ctx context.Context, table, nombre string) (CatalogItem, error) {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" {
		return CatalogItem{}, fmt.Errorf("empty name for %s", table)
	}
	var item CatalogItem
	err := s.db.GetContext(ctx, &item, s.rebind("SELECT id, nombre FROM "+table+" WHERE nombre = ?"), nombre)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return CatalogItem{}, fmt.Errorf("failed to get %s %q: %w", table, nombre, err)
	}
	item = CatalogItem{ID: newID(), Nombre: nombre}
	if _, err := s.db.ExecContext(ctx, s.rebind("INSERT INTO "+table+" (id, nombre) VALUES (?, ?)"), item.ID, item.Nombre); err != nil {
		return CatalogItem{}, wrapWriteErr(err, "failed to insert into "+table)
	}
	return item, nil
}

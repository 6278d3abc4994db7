package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/feligres/feligres/app/textutil"
)

const personaSelect = `SELECT p.id, p.nombres, p.primer_apellido,
	COALESCE(p.segundo_apellido, '') AS segundo_apellido, p.tipo_id, p.numero_id,
	COALESCE(p.fecha_nacimiento, '') AS fecha_nacimiento, p.edad,
	COALESCE(p.genero, '') AS genero, COALESCE(p.telefono, '') AS telefono,
	COALESCE(p.email, '') AS email, COALESCE(p.direccion, '') AS direccion,
	COALESCE(p.url_foto, '') AS url_foto, COALESCE(p.user_id, '') AS user_id,
	COALESCE(p.sede_id, '') AS sede_id, COALESCE(s.nombre, '') AS sede_nombre,
	COALESCE(p.estado_civil, '') AS estado_civil, COALESCE(p.departamento, '') AS departamento,
	COALESCE(p.municipio, '') AS municipio, p.bautizado, p.created_at, p.updated_at
	FROM personas p LEFT JOIN sedes s ON s.id = p.sede_id`

// ListPersonas returns personas matching the filter, ordered by surname
func (s *Store) ListPersonas(ctx context.Context, f PersonaFilter) ([]Persona, error) {
	where, args := personaWhere(f)
	query := personaSelect + where + " ORDER BY p.primer_apellido, p.nombres, p.id"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	res := []Persona{}
	if err := s.db.SelectContext(ctx, &res, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}
	return res, nil
}

// CountPersonas returns the number of personas matching the filter, pagination ignored
func (s *Store) CountPersonas(ctx context.Context, f PersonaFilter) (int, error) {
	where, args := personaWhere(f)
	var count int
	query := "SELECT COUNT(*) FROM personas p" + where
	if err := s.db.GetContext(ctx, &count, s.rebind(query), args...); err != nil {
		return 0, fmt.Errorf("failed to count personas: %w", err)
	}
	return count, nil
}

func personaWhere(f PersonaFilter) (where string, args []any) {
	conds := []string{}
	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		cols := []string{"p.nombres", "p.primer_apellido", "p.segundo_apellido", "p.numero_id",
			"p.email", "p.departamento", "p.municipio"}
		ors := make([]string, 0, len(cols))
		for _, c := range cols {
			ors = append(ors, "LOWER(COALESCE("+c+", '')) LIKE ?")
			args = append(args, pattern)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if f.SedeID != "" {
		conds = append(conds, "p.sede_id = ?")
		args = append(args, f.SedeID)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// GetPersona returns a persona with its escalas and ministerios
func (s *Store) GetPersona(ctx context.Context, id string) (Persona, error) {
	var p Persona
	err := s.db.GetContext(ctx, &p, s.rebind(personaSelect+" WHERE p.id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Persona{}, fmt.Errorf("persona %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Persona{}, fmt.Errorf("failed to get persona %s: %w", id, err)
	}

	p.Escalas = []CatalogItem{}
	err = s.db.SelectContext(ctx, &p.Escalas, s.rebind(`SELECT e.id, e.nombre FROM escalas e
		JOIN persona_escala pe ON pe.escala_id = e.id WHERE pe.persona_id = ? ORDER BY e.nombre`), id)
	if err != nil {
		return Persona{}, fmt.Errorf("failed to get escalas of persona %s: %w", id, err)
	}
	p.Ministerios = []CatalogItem{}
	err = s.db.SelectContext(ctx, &p.Ministerios, s.rebind(`SELECT m.id, m.nombre FROM ministerios m
		JOIN persona_ministerio pm ON pm.ministerio_id = m.id WHERE pm.persona_id = ? ORDER BY m.nombre`), id)
	if err != nil {
		return Persona{}, fmt.Errorf("failed to get ministerios of persona %s: %w", id, err)
	}
	return p, nil
}

// CreatePersona inserts a persona and links it to the given escalas and ministerios.
// The generated id and timestamps are set on p.
func (s *Store) CreatePersona(ctx context.Context, p *Persona, escalaIDs, ministerioIDs []string) error {
	ts := s.timestamp()
	p.ID, p.CreatedAt, p.UpdatedAt = newID(), ts, ts

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO personas (id, nombres, primer_apellido,
			segundo_apellido, tipo_id, numero_id, fecha_nacimiento, edad, genero, telefono, email, direccion,
			url_foto, user_id, sede_id, estado_civil, departamento, municipio, bautizado, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			p.ID, p.Nombres, p.PrimerApellido, nullable(p.SegundoApellido), p.TipoID, p.NumeroID,
			nullable(p.FechaNacimiento), p.Edad, nullable(p.Genero), nullable(p.Telefono), nullable(p.Email),
			nullable(p.Direccion), nullable(p.URLFoto), nullable(p.UserID), nullable(p.SedeID),
			nullable(p.EstadoCivil), nullable(p.Departamento), nullable(p.Municipio), p.Bautizado,
			p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return wrapWriteErr(err, "failed to insert persona")
		}
		return linkPersona(ctx, tx, p.ID, escalaIDs, ministerioIDs)
	})
}

// UpdatePersona overwrites a persona and replaces its escala and ministerio links
func (s *Store) UpdatePersona(ctx context.Context, p *Persona, escalaIDs, ministerioIDs []string) error {
	p.UpdatedAt = s.timestamp()

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE personas SET nombres = ?, primer_apellido = ?,
			segundo_apellido = ?, tipo_id = ?, numero_id = ?, fecha_nacimiento = ?, edad = ?, genero = ?,
			telefono = ?, email = ?, direccion = ?, url_foto = ?, sede_id = ?, estado_civil = ?,
			departamento = ?, municipio = ?, bautizado = ?, updated_at = ? WHERE id = ?`),
			p.Nombres, p.PrimerApellido, nullable(p.SegundoApellido), p.TipoID, p.NumeroID,
			nullable(p.FechaNacimiento), p.Edad, nullable(p.Genero), nullable(p.Telefono), nullable(p.Email),
			nullable(p.Direccion), nullable(p.URLFoto), nullable(p.SedeID), nullable(p.EstadoCivil),
			nullable(p.Departamento), nullable(p.Municipio), p.Bautizado, p.UpdatedAt, p.ID)
		if err != nil {
			return wrapWriteErr(err, "failed to update persona")
		}
		if err := checkAffected(res, "persona "+p.ID); err != nil {
			return err
		}
		if err := unlinkPersona(ctx, tx, p.ID); err != nil {
			return err
		}
		return linkPersona(ctx, tx, p.ID, escalaIDs, ministerioIDs)
	})
}

// DeletePersona removes the persona and its links in one transaction
func (s *Store) DeletePersona(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := unlinkPersona(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM personas WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("failed to delete persona %s: %w", id, err)
		}
		return checkAffected(res, "persona "+id)
	})
}

// PersonaExistsByNumeroID checks whether another persona already has the numero_id.
// excludeID skips the persona being edited, empty means check all.
func (s *Store) PersonaExistsByNumeroID(ctx context.Context, numeroID, excludeID string) (bool, error) {
	var count int
	query, args := "SELECT COUNT(*) FROM personas WHERE numero_id = ?", []any{strings.TrimSpace(numeroID)}
	if excludeID != "" {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}
	if err := s.db.GetContext(ctx, &count, s.rebind(query), args...); err != nil {
		return false, fmt.Errorf("failed to check numero_id: %w", err)
	}
	return count > 0, nil
}

// SearchPersonas finds personas by numero_id, nombres or primer_apellido, case-insensitive
func (s *Store) SearchPersonas(ctx context.Context, q string, limit int) ([]PersonaMatch, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []PersonaMatch{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(q) + "%"
	rows := []struct {
		ID              string `db:"id"`
		Nombres         string `db:"nombres"`
		PrimerApellido  string `db:"primer_apellido"`
		SegundoApellido string `db:"segundo_apellido"`
		TipoID          string `db:"tipo_id"`
		NumeroID        string `db:"numero_id"`
	}{}
	err := s.db.SelectContext(ctx, &rows, s.rebind(`SELECT id, nombres, primer_apellido,
		COALESCE(segundo_apellido, '') AS segundo_apellido, tipo_id, numero_id FROM personas
		WHERE LOWER(numero_id) LIKE ? OR LOWER(nombres) LIKE ? OR LOWER(primer_apellido) LIKE ?
		ORDER BY primer_apellido, nombres LIMIT ?`), pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search personas: %w", err)
	}

	res := make([]PersonaMatch, 0, len(rows))
	for _, r := range rows {
		res = append(res, PersonaMatch{
			ID:                 r.ID,
			NombreCompleto:     textutil.FullName(r.Nombres, r.PrimerApellido, r.SegundoApellido),
			DocumentoIdentidad: r.NumeroID,
			TipoDocumento:      r.TipoID,
		})
	}
	return res, nil
}

func linkPersona(ctx context.Context, tx *sqlx.Tx, personaID string, escalaIDs, ministerioIDs []string) error {
	for _, id := range uniqueNonEmpty(escalaIDs) {
		if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO persona_escala (persona_id, escala_id) VALUES (?, ?)"),
			personaID, id); err != nil {
			return fmt.Errorf("failed to link escala %s: %w", id, err)
		}
	}
	for _, id := range uniqueNonEmpty(ministerioIDs) {
		if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO persona_ministerio (persona_id, ministerio_id) VALUES (?, ?)"),
			personaID, id); err != nil {
			return fmt.Errorf("failed to link ministerio %s: %w", id, err)
		}
	}
	return nil
}

func unlinkPersona(ctx context.Context, tx *sqlx.Tx, personaID string) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM persona_escala WHERE persona_id = ?"), personaID); err != nil {
		return fmt.Errorf("failed to unlink escalas of %s: %w", personaID, err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM persona_ministerio WHERE persona_id = ?"), personaID); err != nil {
		return fmt.Errorf("failed to unlink ministerios of %s: %w", personaID, err)
	}
	return nil
}

func uniqueNonEmpty(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		res = append(res, id)
	}
	return res
}

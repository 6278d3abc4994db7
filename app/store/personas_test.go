package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PersonaCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sede, err := s.UpsertSede(ctx, "Central", "Calle 1")
	require.NoError(t, err)
	lider, err := s.UpsertEscala(ctx, "Líder")
	require.NoError(t, err)
	musica, err := s.UpsertMinisterio(ctx, "Música")
	require.NoError(t, err)

	edad := 34
	p := Persona{Nombres: "Juan", PrimerApellido: "Pérez", TipoID: "CC", NumeroID: "123", Email: "j@example.com",
		Telefono: "300", SedeID: sede.ID, FechaNacimiento: "1990-01-02", Edad: &edad, Bautizado: true}
	require.NoError(t, s.CreatePersona(ctx, &p, []string{lider.ID, lider.ID}, []string{musica.ID}))
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := s.GetPersona(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez", got.NombreCompleto())
	assert.Equal(t, "Central", got.SedeNombre)
	assert.Equal(t, "", got.SegundoApellido)
	require.NotNil(t, got.Edad)
	assert.Equal(t, 34, *got.Edad)
	assert.True(t, got.Bautizado)
	assert.Equal(t, []CatalogItem{lider}, got.Escalas)
	assert.Equal(t, []CatalogItem{musica}, got.Ministerios)
	assert.True(t, got.HasEscala(lider.ID))
	assert.True(t, got.HasMinisterio(musica.ID))

	t.Run("duplicate numero_id", func(t *testing.T) {
		dup := Persona{Nombres: "Otro", PrimerApellido: "X", TipoID: "CC", NumeroID: "123"}
		err := s.CreatePersona(ctx, &dup, nil, nil)
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("update replaces links", func(t *testing.T) {
		got.Nombres = "Juan Carlos"
		got.Edad = nil
		require.NoError(t, s.UpdatePersona(ctx, &got, nil, []string{musica.ID}))
		upd, err := s.GetPersona(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Juan Carlos", upd.Nombres)
		assert.Nil(t, upd.Edad)
		assert.Empty(t, upd.Escalas)
		assert.Len(t, upd.Ministerios, 1)
	})

	t.Run("update missing", func(t *testing.T) {
		missing := Persona{ID: "nope", Nombres: "x", PrimerApellido: "y", TipoID: "CC", NumeroID: "999"}
		err := s.UpdatePersona(ctx, &missing, nil, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete removes links", func(t *testing.T) {
		require.NoError(t, s.DeletePersona(ctx, p.ID))
		_, err := s.GetPersona(ctx, p.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		var links int
		require.NoError(t, s.db.Get(&links, "SELECT COUNT(*) FROM persona_ministerio"))
		assert.Equal(t, 0, links)

		assert.ErrorIs(t, s.DeletePersona(ctx, p.ID), ErrNotFound)
	})
}

func TestStore_ListPersonas(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sede, err := s.UpsertSede(ctx, "Norte", "")
	require.NoError(t, err)

	personas := []Persona{
		{Nombres: "Ana", PrimerApellido: "Zapata", TipoID: "CC", NumeroID: "1", Municipio: "Medellín"},
		{Nombres: "Bruno", PrimerApellido: "Arias", TipoID: "CC", NumeroID: "2", Email: "bruno@example.com", SedeID: sede.ID},
		{Nombres: "Carla", PrimerApellido: "Mejía", TipoID: "TI", NumeroID: "30", Departamento: "Antioquia", SedeID: sede.ID},
	}
	for i := range personas {
		require.NoError(t, s.CreatePersona(ctx, &personas[i], nil, nil))
	}

	tbl := []struct {
		name   string
		filter PersonaFilter
		want   []string
	}{
		{name: "all ordered by surname", filter: PersonaFilter{}, want: []string{"Bruno", "Carla", "Ana"}},
		{name: "search name case-insensitive", filter: PersonaFilter{Search: "ZAPA"}, want: []string{"Ana"}},
		{name: "search email", filter: PersonaFilter{Search: "bruno@"}, want: []string{"Bruno"}},
		{name: "search departamento", filter: PersonaFilter{Search: "antioquia"}, want: []string{"Carla"}},
		{name: "search numero", filter: PersonaFilter{Search: "30"}, want: []string{"Carla"}},
		{name: "sede", filter: PersonaFilter{SedeID: sede.ID}, want: []string{"Bruno", "Carla"}},
		{name: "paged", filter: PersonaFilter{Limit: 1, Offset: 1}, want: []string{"Carla"}},
		{name: "no match", filter: PersonaFilter{Search: "xyz"}, want: []string{}},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.ListPersonas(ctx, tt.filter)
			require.NoError(t, err)
			names := []string{}
			for _, p := range res {
				names = append(names, p.Nombres)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	count, err := s.CountPersonas(ctx, PersonaFilter{SedeID: sede.ID, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStore_PersonaExistsByNumeroID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := Persona{Nombres: "Ana", PrimerApellido: "Zapata", TipoID: "CC", NumeroID: "777"}
	require.NoError(t, s.CreatePersona(ctx, &p, nil, nil))

	exists, err := s.PersonaExistsByNumeroID(ctx, "777", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.PersonaExistsByNumeroID(ctx, " 777 ", p.ID)
	require.NoError(t, err)
	assert.False(t, exists, "own record is excluded")

	exists, err = s.PersonaExistsByNumeroID(ctx, "778", "")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_SearchPersonas(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i, n := range []string{"Luis", "Lucía", "Pedro"} {
		p := Persona{Nombres: n, PrimerApellido: "Ruiz", SegundoApellido: "Luna", TipoID: "CC",
			NumeroID: string(rune('a'+i)) + "-100"}
		require.NoError(t, s.CreatePersona(ctx, &p, nil, nil))
	}

	res, err := s.SearchPersonas(ctx, "lu", 0)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Lucía Ruiz Luna", res[0].NombreCompleto)
	assert.Equal(t, "CC", res[0].TipoDocumento)
	assert.Equal(t, "b-100", res[0].DocumentoIdentidad)

	res, err = s.SearchPersonas(ctx, "RUIZ", 1)
	require.NoError(t, err)
	assert.Len(t, res, 1)

	res, err = s.SearchPersonas(ctx, "c-1", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Pedro Ruiz Luna", res[0].NombreCompleto)

	res, err = s.SearchPersonas(ctx, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestStore_Catalog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertSede(ctx, "Sur", "")
	require.NoError(t, err)
	second, err := s.UpsertSede(ctx, " Sur ", "Carrera 5")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Carrera 5", second.Direccion)

	_, err = s.UpsertSede(ctx, "", "")
	assert.Error(t, err)

	_, err = s.UpsertMinisterio(ctx, "Jóvenes")
	require.NoError(t, err)
	_, err = s.UpsertMinisterio(ctx, "Alabanza")
	require.NoError(t, err)
	again, err := s.UpsertMinisterio(ctx, "Jóvenes")
	require.NoError(t, err)

	ministerios, err := s.ListMinisterios(ctx)
	require.NoError(t, err)
	require.Len(t, ministerios, 2)
	assert.Equal(t, "Alabanza", ministerios[0].Nombre)
	assert.Equal(t, again.ID, ministerios[1].ID)

	sedes, err := s.ListSedes(ctx)
	require.NoError(t, err)
	assert.Len(t, sedes, 1)
}

package seed

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feligres/feligres/app/store"
	"github.com/feligres/feligres/app/store/enums"
)

func TestLoad(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		c, err := Load("testdata/catalog.yml")
		require.NoError(t, err)
		require.Len(t, c.Sedes, 2)
		assert.Equal(t, Sede{Nombre: "Sede Central", Direccion: "Calle 10 # 5-20"}, c.Sedes[0])
		assert.Equal(t, "Sede Norte", c.Sedes[1].Nombre)
		assert.Equal(t, []string{"Miembro", "Líder", "Pastor"}, c.Escalas)
		assert.Equal(t, []string{"Alabanza", "Jóvenes"}, c.Ministerios)
		require.Len(t, c.Categorias, 3)
		assert.Equal(t, Categoria{Nombre: "Ofrendas", Tipo: "ingreso", Descripcion: "ofrendas de los servicios"}, c.Categorias[1])
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("testdata/nope.yml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can't open seed file")
	})

	t.Run("bad tipo", func(t *testing.T) {
		_, err := Load("testdata/bad-tipo.yml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tipo must be ingreso or egreso")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := Load("testdata/unknown-field.yml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can't parse seed file")
	})
}

func TestVerify(t *testing.T) {
	tbl := []struct {
		name string
		c    Catalog
		err  string
	}{
		{name: "empty", c: Catalog{}},
		{name: "empty sede", c: Catalog{Sedes: []Sede{{Nombre: " "}}}, err: "sede 1: nombre is required"},
		{name: "empty escala", c: Catalog{Escalas: []string{"a", ""}}, err: "escala 2: empty name"},
		{name: "empty ministerio", c: Catalog{Ministerios: []string{""}}, err: "ministerio 1: empty name"},
		{name: "empty categoria", c: Catalog{Categorias: []Categoria{{Tipo: "ingreso"}}}, err: "categoria 1: nombre is required"},
		{name: "ok categoria", c: Catalog{Categorias: []Categoria{{Nombre: "Luz", Tipo: "egreso"}}}},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(&tt.c)
			if tt.err == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.err)
		})
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	defer st.Close()

	existing := store.Categoria{Nombre: "Diezmos", Tipo: enums.TipoTransaccionIngreso}
	require.NoError(t, st.CreateCategoria(ctx, &existing))

	c, err := Load("testdata/catalog.yml")
	require.NoError(t, err)

	res, err := Apply(ctx, st, c)
	require.NoError(t, err)
	assert.Equal(t, Result{Sedes: 2, Escalas: 3, Ministerios: 2, CategoriasCreated: 2}, res)

	// second run creates nothing new
	res, err = Apply(ctx, st, c)
	require.NoError(t, err)
	assert.Equal(t, 0, res.CategoriasCreated)

	sedes, err := st.ListSedes(ctx)
	require.NoError(t, err)
	require.Len(t, sedes, 2)
	assert.Equal(t, "Calle 10 # 5-20", sedes[0].Direccion)

	escalas, err := st.ListEscalas(ctx)
	require.NoError(t, err)
	assert.Len(t, escalas, 3)

	cats, err := st.ListCategorias(ctx, enums.TipoTransaccion{})
	require.NoError(t, err)
	assert.Len(t, cats, 3)
	egresos, err := st.ListCategorias(ctx, enums.TipoTransaccionEgreso)
	require.NoError(t, err)
	require.Len(t, egresos, 1)
	assert.Equal(t, "Servicios públicos", egresos[0].Nombre)
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema()
	require.NotNil(t, schema)
	data, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"categorias"`)
	assert.Contains(t, string(data), `"ingreso"`)
	assert.Contains(t, string(data), `"nombre"`)
}

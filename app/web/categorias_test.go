package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feligres/feligres/app/store"
	"github.com/feligres/feligres/app/store/enums"
)

func TestServer_CategoriasPage(t *testing.T) {
	env := newTestEnv(t)
	env.categoria(t, "Diezmos", enums.TipoTransaccionIngreso)
	env.categoria(t, "Servicios", enums.TipoTransaccionEgreso)

	rec := env.do(t, http.MethodGet, "/contabilidad/categorias", nil, env.userToken)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="Diezmos"`)
	assert.Contains(t, body, `value="Servicios"`)
}

func TestServer_APICategorias(t *testing.T) {
	env := newTestEnv(t)
	d := env.categoria(t, "Diezmos", enums.TipoTransaccionIngreso)
	env.categoria(t, "Servicios", enums.TipoTransaccionEgreso)

	tests := []struct {
		query     string
		wantCode  int
		wantNames []string
	}{
		{query: "", wantCode: http.StatusOK, wantNames: []string{"Diezmos", "Servicios"}},
		{query: "?tipo=ingreso", wantCode: http.StatusOK, wantNames: []string{"Diezmos"}},
		{query: "?tipo=egreso", wantCode: http.StatusOK, wantNames: []string{"Servicios"}},
		{query: "?tipo=otro", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/contabilidad/categorias"+tt.query, nil, env.userToken)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				assert.JSONEq(t, `{"error":"Tipo inválido"}`, rec.Body.String())
				return
			}
			var list []store.Categoria
			decodeJSON(t, rec, &list)
			names := []string{}
			for _, c := range list {
				names = append(names, c.Nombre)
			}
			assert.ElementsMatch(t, tt.wantNames, names)
		})
	}

	rec := env.do(t, http.MethodGet, "/api/contabilidad/categorias/"+d.ID, nil, env.userToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var got store.Categoria
	decodeJSON(t, rec, &got)
	assert.Equal(t, "Diezmos", got.Nombre)
	assert.Equal(t, enums.TipoTransaccionIngreso, got.Tipo)

	rec = env.do(t, http.MethodGet, "/api/contabilidad/categorias/6f1c2a7e-1111-4222-8333-944455556666", nil, env.userToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Categoría no encontrada"}`, rec.Body.String())
}

func TestServer_CategoriaCreate(t *testing.T) {
	env := newTestEnv(t)

	t.Run("json returns created record", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/contabilidad/categorias",
			strings.NewReader(`{"nombre":"Ofrendas","tipo":"ingreso","descripcion":"domingos"}`), env.userToken,
			"Content-Type", "application/json")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var c store.Categoria
		decodeJSON(t, rec, &c)
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "Ofrendas", c.Nombre)
		assert.Equal(t, "domingos", c.Descripcion)
	})

	t.Run("form redirects to contabilidad", func(t *testing.T) {
		rec := env.postForm(t, "/api/contabilidad/categorias", "nombre=Luz&tipo=egreso", env.userToken)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/contabilidad", loc.Path)
		assert.Equal(t, "Categoría registrada exitosamente ✅", loc.Query().Get("success"))
	})

	for _, body := range []string{`{"nombre":"","tipo":"ingreso"}`, `{"nombre":"X","tipo":"donacion"}`, `{"nombre":"X"}`} {
		t.Run(body, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/contabilidad/categorias", strings.NewReader(body), env.userToken,
				"Content-Type", "application/json")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Nombre y tipo (ingreso/egreso) son requeridos"}`, rec.Body.String())
		})
	}
}

func TestServer_CategoriaUpdateDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.categoria(t, "Diezmos", enums.TipoTransaccionIngreso)

	rec := env.postForm(t, "/api/contabilidad/categorias/"+c.ID, "_method=PUT&nombre=Diezmo+mensual&tipo=ingreso", env.userToken)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), categoriasURL+"?success=")
	got, err := env.store.GetCategoria(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Diezmo mensual", got.Nombre)

	rec = env.do(t, http.MethodPut, "/api/contabilidad/categorias/6f1c2a7e-1111-4222-8333-944455556666",
		strings.NewReader(`{"nombre":"X","tipo":"egreso"}`), env.userToken, "Content-Type", "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.transaccion(t, "1000", c, "")
	rec = env.do(t, http.MethodDelete, "/api/contabilidad/categorias/"+c.ID, nil, env.userToken, "Accept", "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No se puede eliminar la categoría porque tiene transacciones asociadas"}`, rec.Body.String())

	unused := env.categoria(t, "Varios", enums.TipoTransaccionEgreso)
	rec = env.postForm(t, "/api/contabilidad/categorias/"+unused.ID, "_method=DELETE", env.userToken)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "Categoría eliminada con éxito", loc.Query().Get("success"))
	_, err = env.store.GetCategoria(ctx, unused.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec = env.do(t, http.MethodDelete, "/api/contabilidad/categorias/"+unused.ID, nil, env.userToken, "Accept", "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/contabilidad/categorias/bad", nil, env.userToken, "Accept", "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

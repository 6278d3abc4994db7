package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/feligres/feligres/app/store/enums"
)

// fixtures holds a minimal set of related records for transaccion tests
type fixtures struct {
	t         *testing.T
	s         *Store
	ingreso   Categoria
	egreso    Categoria
	actividad Actividad
	persona   Persona
}

func newFixtures(t *testing.T, s *Store) *fixtures {
	t.Helper()
	ctx := context.Background()
	fx := &fixtures{t: t, s: s}

	fx.ingreso = Categoria{Nombre: "Ofrendas", Tipo: enums.TipoTransaccionIngreso}
	require.NoError(t, s.CreateCategoria(ctx, &fx.ingreso))
	fx.egreso = Categoria{Nombre: "Servicios", Tipo: enums.TipoTransaccionEgreso}
	require.NoError(t, s.CreateCategoria(ctx, &fx.egreso))

	fx.actividad = Actividad{Nombre: "Bazar", FechaInicio: "2024-01-01", Estado: enums.EstadoActividadEnCurso,
		Meta: decimal.NewFromInt(500000), UserID: "user-1"}
	require.NoError(t, s.CreateActividad(ctx, &fx.actividad))

	fx.persona = Persona{Nombres: "Ana María", PrimerApellido: "Gómez", SegundoApellido: "de la Cruz",
		TipoID: "CC", NumeroID: "1001", Email: "ana@example.com", Telefono: "3001234567"}
	require.NoError(t, s.CreatePersona(ctx, &fx.persona, nil, nil))
	return fx
}

// transaccion creates a transaccion of the categoria's tipo, linked to actividadID when set
func (fx *fixtures) transaccion(fecha, monto string, cat Categoria, actividadID string) Transaccion {
	fx.t.Helper()
	tr := Transaccion{Fecha: fecha, Monto: decimal.RequireFromString(monto), Tipo: cat.Tipo, CategoriaID: cat.ID,
		ActividadID: actividadID, UserID: "user-1"}
	require.NoError(fx.t, fx.s.CreateTransaccion(context.Background(), &tr))
	return tr
}

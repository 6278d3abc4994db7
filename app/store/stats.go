package store

import (
	"context"
	"fmt"

	"github.com/go-pkgz/syncs"
	"github.com/shopspring/decimal"

	"github.com/feligres/feligres/app/store/enums"
)

// Stats collects dashboard counters and totals of active transacciones, queries run concurrently
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	res := Stats{Ingresos: decimal.Zero, Egresos: decimal.Zero}

	count := func(table string, dst *int) func() error {
		return func() error {
			if err := s.db.GetContext(ctx, dst, "SELECT COUNT(*) FROM "+table); err != nil {
				return fmt.Errorf("failed to count %s: %w", table, err)
			}
			return nil
		}
	}
	sum := func(tipo enums.TipoTransaccion, dst *decimal.Decimal) func() error {
		return func() error {
			montos := []decimal.Decimal{}
			err := s.db.SelectContext(ctx, &montos, s.rebind(`SELECT monto FROM transacciones
				WHERE tipo = ? AND estado = ?`), tipo, enums.EstadoTransaccionActiva)
			if err != nil {
				return fmt.Errorf("failed to sum %s: %w", tipo, err)
			}
			*dst = sumMoney(montos)
			return nil
		}
	}

	wg := syncs.NewErrSizedGroup(4)
	wg.Go(count("personas", &res.Personas))
	wg.Go(count("actividades", &res.Actividades))
	wg.Go(count("categorias", &res.Categorias))
	wg.Go(count("transacciones", &res.Transacciones))
	wg.Go(sum(enums.TipoTransaccionIngreso, &res.Ingresos))
	wg.Go(sum(enums.TipoTransaccionEgreso, &res.Egresos))
	if err := wg.Wait(); err != nil {
		return Stats{}, err
	}
	res.Balance = res.Ingresos.Sub(res.Egresos)
	return res, nil
}

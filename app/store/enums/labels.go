package enums

// IsZero reports whether the value was never set
func (e TipoTransaccion) IsZero() bool { return e.name == "" }

// Label returns the capitalized form used in receipts
func (e TipoTransaccion) Label() string {
	if e == TipoTransaccionIngreso {
		return "Ingreso"
	}
	return "Egreso"
}

// Prefix returns the numero_transaccion prefix for this tipo
func (e TipoTransaccion) Prefix() string {
	if e == TipoTransaccionIngreso {
		return "ING"
	}
	return "EGR"
}

// Label returns the capitalized form used in receipts
func (e EstadoTransaccion) Label() string {
	if e == EstadoTransaccionAnulada {
		return "Anulada"
	}
	return "Activa"
}

// Package enums provides type-safe enumeration types shared by the store and the web interface.
//
// The enum types are defined as unexported integer types in this file, and the go:generate
// directives invoke the go-pkgz/enum generator to create the exported types in *_enum.go files.
// Each generated type is stored as its lower-case name in the database and serialized the same
// way in JSON and forms, and comes with:
//   - String() for display and storage
//   - Parse<Type> for string-to-enum conversion, rejecting unknown values
//   - Scan/Value for SQL compatibility
//   - MarshalText/UnmarshalText for JSON
//   - <Type>Values listing all values in declaration order, used by forms
//
// Display helpers (Label, Prefix) live in labels.go. EstadoActividad is written by hand in
// estado_actividad.go since its stored name "en_curso" can't be derived with -lower.
//
// Usage:
//
//	tipo, err := enums.ParseTipoTransaccion(r.FormValue("tipo"))
//	if err != nil {
//	    // reject input
//	}
//	fmt.Println(tipo.String()) // "ingreso"
//
// To regenerate the enum types after modifications:
//
//	go generate ./app/store/enums
package enums

//go:generate go run github.com/go-pkgz/enum@latest -type tipoTransaccion -lower
//go:generate go run github.com/go-pkgz/enum@latest -type estadoTransaccion -lower
//go:generate go run github.com/go-pkgz/enum@latest -type role -lower
//go:generate go run github.com/go-pkgz/enum@latest -type viewMode -lower

// tipoTransaccion is the direction of a ledger entry.
// Use the exported TipoTransaccion type and its constants in actual code.
type tipoTransaccion int

const (
	tipoTransaccionIngreso tipoTransaccion = iota
	tipoTransaccionEgreso
)

// estadoTransaccion tells whether a ledger entry counts or was annulled.
// The first value is what a NULL column scans to.
type estadoTransaccion int

const (
	estadoTransaccionActiva estadoTransaccion = iota
	estadoTransaccionAnulada
)

// role is the authorization level of a user
type role int

const (
	roleUser role = iota
	roleAdmin
)

// viewMode is the list rendering mode in the UI
type viewMode int

const (
	viewModeTable viewMode = iota
	viewModeCards
)

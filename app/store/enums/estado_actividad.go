package enums

import (
	"database/sql/driver"
	"fmt"
)

// EstadoActividad is the lifecycle state of an actividad. It follows the generated enums
// but keeps "en_curso" as the stored name of EstadoActividadEnCurso.
type EstadoActividad struct {
	name  string
	value int
}

// estado actividad values
var (
	EstadoActividadPlaneada   = EstadoActividad{name: "planeada", value: 0}
	EstadoActividadEnCurso    = EstadoActividad{name: "en_curso", value: 1}
	EstadoActividadCompletada = EstadoActividad{name: "completada", value: 2}
)

// EstadoActividadValues contains all estado values in lifecycle order
var EstadoActividadValues = []EstadoActividad{
	EstadoActividadPlaneada,
	EstadoActividadEnCurso,
	EstadoActividadCompletada,
}

// ParseEstadoActividad converts a string to EstadoActividad
func ParseEstadoActividad(v string) (EstadoActividad, error) {
	for _, e := range EstadoActividadValues {
		if e.name == v {
			return e, nil
		}
	}
	return EstadoActividad{}, fmt.Errorf("invalid estadoActividad: %s", v)
}

func (e EstadoActividad) String() string { return e.name }

// Index returns the position in the lifecycle
func (e EstadoActividad) Index() int { return e.value }

// Label returns the human form
func (e EstadoActividad) Label() string {
	switch e {
	case EstadoActividadPlaneada:
		return "Planeada"
	case EstadoActividadCompletada:
		return "Completada"
	default:
		return "En curso"
	}
}

// MarshalText implements encoding.TextMarshaler
func (e EstadoActividad) MarshalText() ([]byte, error) { return []byte(e.name), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (e *EstadoActividad) UnmarshalText(text []byte) error {
	var err error
	*e, err = ParseEstadoActividad(string(text))
	return err
}

// Value implements driver.Valuer
func (e EstadoActividad) Value() (driver.Value, error) { return e.name, nil }

// Scan implements sql.Scanner
func (e *EstadoActividad) Scan(value any) error {
	switch v := value.(type) {
	case string:
		return e.UnmarshalText([]byte(v))
	case []byte:
		return e.UnmarshalText(v)
	default:
		return fmt.Errorf("invalid estadoActividad value: %v", value)
	}
}

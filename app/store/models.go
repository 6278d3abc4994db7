package store

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feligres/feligres/app/store/enums"
	"github.com/feligres/feligres/app/textutil"
)

// Timestamp is a time stored as unix seconds
type Timestamp struct {
	time.Time
}

// Value implements driver.Valuer
func (t Timestamp) Value() (driver.Value, error) {
	if t.IsZero() {
		return int64(0), nil
	}
	return t.Unix(), nil
}

// Scan implements sql.Scanner
func (t *Timestamp) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
	case int64:
		t.Time = time.Unix(v, 0)
	case float64:
		t.Time = time.Unix(int64(v), 0)
	default:
		return fmt.Errorf("unsupported timestamp type %T", value)
	}
	if t.Unix() == 0 {
		t.Time = time.Time{}
	}
	return nil
}

// User is an account allowed to sign in
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         enums.Role `db:"role" json:"role"`
	SedeID       string     `db:"sede_id" json:"sede_id,omitempty"`
	CreatedAt    Timestamp  `db:"created_at" json:"created_at"`
	UpdatedAt    Timestamp  `db:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user has admin role
func (u User) IsAdmin() bool {
	return u.Role == enums.RoleAdmin
}

// Sede is a church location
type Sede struct {
	ID        string `db:"id" json:"id"`
	Nombre    string `db:"nombre" json:"nombre_sede"`
	Direccion string `db:"direccion" json:"direccion_sede"`
}

// CatalogItem is a named entry of a simple catalog (escalas, ministerios)
type CatalogItem struct {
	ID     string `db:"id" json:"id"`
	Nombre string `db:"nombre" json:"nombre"`
}

// Persona is a member record
type Persona struct {
	ID              string    `db:"id" json:"id"`
	Nombres         string    `db:"nombres" json:"nombres"`
	PrimerApellido  string    `db:"primer_apellido" json:"primer_apellido"`
	SegundoApellido string    `db:"segundo_apellido" json:"segundo_apellido,omitempty"`
	TipoID          string    `db:"tipo_id" json:"tipo_id"`
	NumeroID        string    `db:"numero_id" json:"numero_id"`
	FechaNacimiento string    `db:"fecha_nacimiento" json:"fecha_nacimiento,omitempty"`
	Edad            *int      `db:"edad" json:"edad,omitempty"`
	Genero          string    `db:"genero" json:"genero,omitempty"`
	Telefono        string    `db:"telefono" json:"telefono"`
	Email           string    `db:"email" json:"email"`
	Direccion       string    `db:"direccion" json:"direccion,omitempty"`
	URLFoto         string    `db:"url_foto" json:"url_foto,omitempty"`
	UserID          string    `db:"user_id" json:"user_id,omitempty"`
	SedeID          string    `db:"sede_id" json:"sede_id,omitempty"`
	SedeNombre      string    `db:"sede_nombre" json:"sede_nombre,omitempty"`
	EstadoCivil     string    `db:"estado_civil" json:"estado_civil,omitempty"`
	Departamento    string    `db:"departamento" json:"departamento,omitempty"`
	Municipio       string    `db:"municipio" json:"municipio,omitempty"`
	Bautizado       bool      `db:"bautizado" json:"bautizado"`
	CreatedAt       Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt       Timestamp `db:"updated_at" json:"updated_at"`

	Escalas     []CatalogItem `db:"-" json:"escalas,omitempty"`
	Ministerios []CatalogItem `db:"-" json:"ministerios,omitempty"`
}

// NombreCompleto joins non-empty name parts
func (p Persona) NombreCompleto() string {
	return textutil.FullName(p.Nombres, p.PrimerApellido, p.SegundoApellido)
}

// HasEscala reports whether the persona is linked to the escala, used by edit forms
func (p Persona) HasEscala(id string) bool {
	for _, e := range p.Escalas {
		if e.ID == id {
			return true
		}
	}
	return false
}

// HasMinisterio reports whether the persona is linked to the ministerio, used by edit forms
func (p Persona) HasMinisterio(id string) bool {
	for _, m := range p.Ministerios {
		if m.ID == id {
			return true
		}
	}
	return false
}

// PersonaFilter selects personas for list views
type PersonaFilter struct {
	Search string // matched against names, numero_id, email, departamento and municipio
	SedeID string
	Limit  int // 0 means no limit
	Offset int
}

// PersonaMatch is a compact search result
type PersonaMatch struct {
	ID                 string `json:"id"`
	NombreCompleto     string `json:"nombre_completo"`
	DocumentoIdentidad string `json:"documento_identidad"`
	TipoDocumento      string `json:"tipo_documento"`
}

// Categoria classifies transacciones
type Categoria struct {
	ID          string                `db:"id" json:"id"`
	Nombre      string                `db:"nombre" json:"nombre"`
	Tipo        enums.TipoTransaccion `db:"tipo" json:"tipo"`
	Descripcion string                `db:"descripcion" json:"descripcion,omitempty"`
	CreatedAt   Timestamp             `db:"created_at" json:"created_at"`
	UpdatedAt   Timestamp             `db:"updated_at" json:"updated_at"`
}

// Actividad is a fundraising event with a monetary goal
type Actividad struct {
	ID          string                `db:"id" json:"id"`
	Nombre      string                `db:"nombre" json:"nombre"`
	Descripcion string                `db:"descripcion" json:"descripcion,omitempty"`
	FechaInicio string                `db:"fecha_inicio" json:"fecha_inicio"`
	FechaFin    string                `db:"fecha_fin" json:"fecha_fin,omitempty"`
	Estado      enums.EstadoActividad `db:"estado" json:"estado"`
	Meta        decimal.Decimal       `db:"meta" json:"meta"`
	UserID      string                `db:"user_id" json:"user_id,omitempty"`
	CreatedAt   Timestamp             `db:"created_at" json:"created_at"`
	UpdatedAt   Timestamp             `db:"updated_at" json:"updated_at"`
}

// Resumen is the income/expense balance of an actividad
type Resumen struct {
	Ingresos decimal.Decimal `json:"ingresos"`
	Egresos  decimal.Decimal `json:"egresos"`
	Neto     decimal.Decimal `json:"neto"`
}

// Progreso returns collected income as a percentage of meta, capped at 100
func (r Resumen) Progreso(meta decimal.Decimal) int {
	if !meta.IsPositive() {
		return 0
	}
	pct := r.Ingresos.Div(meta).Mul(decimal.NewFromInt(100)).IntPart()
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return int(pct)
}

// Transaccion is a ledger entry
type Transaccion struct {
	ID                string                  `db:"id" json:"id"`
	NumeroTransaccion string                  `db:"numero_transaccion" json:"numero_transaccion"`
	Fecha             string                  `db:"fecha" json:"fecha"`
	Monto             decimal.Decimal         `db:"monto" json:"monto"`
	Tipo              enums.TipoTransaccion   `db:"tipo" json:"tipo"`
	CategoriaID       string                  `db:"categoria_id" json:"categoria_id"`
	Descripcion       string                  `db:"descripcion" json:"descripcion,omitempty"`
	ActividadID       string                  `db:"actividad_id" json:"actividad_id,omitempty"`
	PersonaID         string                  `db:"persona_id" json:"persona_id,omitempty"`
	UserID            string                  `db:"user_id" json:"user_id,omitempty"`
	Evidencia         string                  `db:"evidencia" json:"evidencia,omitempty"`
	Estado            enums.EstadoTransaccion `db:"estado" json:"estado"`
	MotivoAnulacion   string                  `db:"motivo_anulacion" json:"motivo_anulacion,omitempty"`
	CreatedAt         Timestamp               `db:"created_at" json:"created_at"`
	UpdatedAt         Timestamp               `db:"updated_at" json:"updated_at"`

	// joined names, filled by reads
	CategoriaNombre string `db:"categoria_nombre" json:"categoria_nombre"`
	ActividadNombre string `db:"actividad_nombre" json:"actividad_nombre,omitempty"`
	PersonaNombre   string `db:"-" json:"persona_nombre,omitempty"`

	PersonaNombres         string `db:"persona_nombres" json:"-"`
	PersonaPrimerApellido  string `db:"persona_primer_apellido" json:"-"`
	PersonaSegundoApellido string `db:"persona_segundo_apellido" json:"-"`
}

// IsAnulada reports whether the entry was annulled
func (t Transaccion) IsAnulada() bool {
	return t.Estado == enums.EstadoTransaccionAnulada
}

// TransaccionFilter selects transacciones for list views
type TransaccionFilter struct {
	ActividadID string
	FechaInicio string // YYYY-MM-DD, inclusive
	FechaFin    string // YYYY-MM-DD, inclusive until end of day
	Tipo        enums.TipoTransaccion
	Estado      enums.EstadoTransaccion
	Limit       int // 0 means no limit
	Offset      int
}

// Stats summarizes the books for the dashboard
type Stats struct {
	Personas      int             `json:"personas"`
	Actividades   int             `json:"actividades"`
	Categorias    int             `json:"categorias"`
	Transacciones int             `json:"transacciones"`
	Ingresos      decimal.Decimal `json:"ingresos"`
	Egresos       decimal.Decimal `json:"egresos"`
	Balance       decimal.Decimal `json:"balance"`
}

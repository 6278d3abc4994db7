// Package seed loads the reference catalog (sedes, escalas, ministerios and categorias) from a yaml
// file and upserts it by name. Running it again with the same file changes nothing.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/feligres/feligres/app/store"
	"github.com/feligres/feligres/app/store/enums"
)

//go:generate go run ./internal/schema schema.json

// Catalog is the yaml file layout
type Catalog struct {
	Sedes       []Sede      `yaml:"sedes" json:"sedes,omitempty" jsonschema:"description=church locations"`
	Escalas     []string    `yaml:"escalas" json:"escalas,omitempty" jsonschema:"description=escala names"`
	Ministerios []string    `yaml:"ministerios" json:"ministerios,omitempty" jsonschema:"description=ministerio names"`
	Categorias  []Categoria `yaml:"categorias" json:"categorias,omitempty" jsonschema:"description=transaccion categories"`
}

// Sede entry of the catalog
type Sede struct {
	Nombre    string `yaml:"nombre" json:"nombre" jsonschema:"required,minLength=1"`
	Direccion string `yaml:"direccion" json:"direccion,omitempty"`
}

// Categoria entry of the catalog
type Categoria struct {
	Nombre      string `yaml:"nombre" json:"nombre" jsonschema:"required,minLength=1"`
	Tipo        string `yaml:"tipo" json:"tipo" jsonschema:"required,enum=ingreso,enum=egreso"`
	Descripcion string `yaml:"descripcion" json:"descripcion,omitempty"`
}

// Store is the subset of store.Store used to apply the catalog
type Store interface {
	UpsertSede(ctx context.Context, nombre, direccion string) (store.Sede, error)
	UpsertEscala(ctx context.Context, nombre string) (store.CatalogItem, error)
	UpsertMinisterio(ctx context.Context, nombre string) (store.CatalogItem, error)
	ListCategorias(ctx context.Context, tipo enums.TipoTransaccion) ([]store.Categoria, error)
	CreateCategoria(ctx context.Context, c *store.Categoria) error
}

// Result counts what Apply touched
type Result struct {
	Sedes, Escalas, Ministerios int
	CategoriasCreated           int
}

// Load reads and verifies catalog file
func Load(file string) (*Catalog, error) {
	fh, err := os.Open(file) //nolint:gosec // path comes from the operator's config
	if err != nil {
		return nil, errors.Wrapf(err, "can't open seed file %s", file)
	}
	defer fh.Close() //nolint:errcheck // read only

	dec := yaml.NewDecoder(fh)
	dec.KnownFields(true)
	res := &Catalog{}
	if err := dec.Decode(res); err != nil {
		return nil, errors.Wrapf(err, "can't parse seed file %s", file)
	}
	if err := Verify(res); err != nil {
		return nil, errors.Wrapf(err, "invalid seed file %s", file)
	}
	return res, nil
}

// Verify checks required fields and categoria tipos
func Verify(c *Catalog) error {
	for i, s := range c.Sedes {
		if strings.TrimSpace(s.Nombre) == "" {
			return fmt.Errorf("sede %d: nombre is required", i+1)
		}
	}
	for i, e := range c.Escalas {
		if strings.TrimSpace(e) == "" {
			return fmt.Errorf("escala %d: empty name", i+1)
		}
	}
	for i, m := range c.Ministerios {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("ministerio %d: empty name", i+1)
		}
	}
	for i, cat := range c.Categorias {
		if strings.TrimSpace(cat.Nombre) == "" {
			return fmt.Errorf("categoria %d: nombre is required", i+1)
		}
		if _, err := enums.ParseTipoTransaccion(cat.Tipo); err != nil {
			return fmt.Errorf("categoria %d (%s): tipo must be ingreso or egreso", i+1, cat.Nombre)
		}
	}
	return nil
}

// Apply upserts the catalog. Categorias are matched by nombre and tipo and only created when missing.
func Apply(ctx context.Context, st Store, c *Catalog) (Result, error) {
	res := Result{}
	for _, s := range c.Sedes {
		if _, err := st.UpsertSede(ctx, s.Nombre, s.Direccion); err != nil {
			return res, errors.Wrapf(err, "can't upsert sede %q", s.Nombre)
		}
		res.Sedes++
	}
	for _, e := range c.Escalas {
		if _, err := st.UpsertEscala(ctx, e); err != nil {
			return res, errors.Wrapf(err, "can't upsert escala %q", e)
		}
		res.Escalas++
	}
	for _, m := range c.Ministerios {
		if _, err := st.UpsertMinisterio(ctx, m); err != nil {
			return res, errors.Wrapf(err, "can't upsert ministerio %q", m)
		}
		res.Ministerios++
	}

	existing, err := st.ListCategorias(ctx, enums.TipoTransaccion{})
	if err != nil {
		return res, errors.Wrap(err, "can't list categorias")
	}
	known := map[string]bool{}
	for _, cat := range existing {
		known[cat.Tipo.String()+"/"+strings.ToLower(cat.Nombre)] = true
	}
	for _, cat := range c.Categorias {
		key := cat.Tipo + "/" + strings.ToLower(strings.TrimSpace(cat.Nombre))
		if known[key] {
			continue
		}
		tipo, err := enums.ParseTipoTransaccion(cat.Tipo)
		if err != nil {
			return res, errors.Wrapf(err, "bad categoria %q", cat.Nombre)
		}
		rec := store.Categoria{Nombre: strings.TrimSpace(cat.Nombre), Tipo: tipo, Descripcion: cat.Descripcion}
		if err := st.CreateCategoria(ctx, &rec); err != nil {
			return res, errors.Wrapf(err, "can't create categoria %q", cat.Nombre)
		}
		known[key] = true
		res.CategoriasCreated++
	}

	log.Printf("[INFO] catalog applied, sedes:%d, escalas:%d, ministerios:%d, new categorias:%d",
		res.Sedes, res.Escalas, res.Ministerios, res.CategoriasCreated)
	return res, nil
}

// GenerateSchema generates a JSON schema for the Catalog struct
func GenerateSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Catalog{})
}

package web

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/feligres/feligres/app/export"
	"github.com/feligres/feligres/app/store"
	"github.com/feligres/feligres/app/store/enums"
)

// pager describes the current page of a paginated list
type pager struct {
	Page  int
	Pages int
	Total int
	Size  int

	PagePath    string // full page, used by plain links
	PartialPath string // list fragment, used by HTMX
	Query       string // encoded filters without page
}

func newPager(total, page, size int) pager {
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	return pager{Page: page, Pages: pages, Total: total, Size: size}
}

// Offset of the first row on the page
func (p pager) Offset() int { return (p.Page - 1) * p.Size }

// HasPrev is true when a previous page exists
func (p pager) HasPrev() bool { return p.Page > 1 }

// HasNext is true when a following page exists
func (p pager) HasNext() bool { return p.Page < p.Pages }

// PageURL links page n of the full page
func (p pager) PageURL(n int) string { return p.link(p.PagePath, n) }

// PartialURL links page n of the list fragment
func (p pager) PartialURL(n int) string { return p.link(p.PartialPath, n) }

func (p pager) link(path string, n int) string {
	if p.Query == "" {
		return fmt.Sprintf("%s?page=%d", path, n)
	}
	return fmt.Sprintf("%s?%s&page=%d", path, p.Query, n)
}

// templateFuncs builds helpers for page templates, now is the server clock in the configured zone
func templateFuncs(now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"cop":   export.FormatCOP,
		"fecha": export.FormatFecha,
		"since": func(ts store.Timestamp) string {
			if ts.IsZero() {
				return "nunca"
			}
			return humanize.Time(ts.Time)
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"progreso": func(r store.Resumen, meta decimal.Decimal) int {
			return r.Progreso(meta)
		},
		"initials": func(parts ...string) string {
			res := ""
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					res += strings.ToUpper(string([]rune(p)[:1]))
				}
			}
			return res
		},
		"contains": func(list []string, v string) bool {
			for _, s := range list {
				if s == v {
					return true
				}
			}
			return false
		},
		"list":             func(v ...string) []string { return v },
		"tipos":            func() []enums.TipoTransaccion { return enums.TipoTransaccionValues },
		"estadosActividad": func() []enums.EstadoActividad { return enums.EstadoActividadValues },
		"roles":            func() []enums.Role { return enums.RoleValues },
		"today":            func() string { return now().Format("2006-01-02") },
	}
}

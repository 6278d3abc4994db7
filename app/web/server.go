// Package web implements the feligres web server: server-rendered pages for personas and
// contabilidad, JSON endpoints used by the pages' scripts, login and admin user management.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/feligres/feligres/app/health"
	"github.com/feligres/feligres/app/store"
	"github.com/feligres/feligres/app/store/enums"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// Store defines persistence operations used by handlers
type Store interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (store.Stats, error)

	ListPersonas(ctx context.Context, f store.PersonaFilter) ([]store.Persona, error)
	CountPersonas(ctx context.Context, f store.PersonaFilter) (int, error)
	GetPersona(ctx context.Context, id string) (store.Persona, error)
	CreatePersona(ctx context.Context, p *store.Persona, escalaIDs, ministerioIDs []string) error
	UpdatePersona(ctx context.Context, p *store.Persona, escalaIDs, ministerioIDs []string) error
	DeletePersona(ctx context.Context, id string) error
	PersonaExistsByNumeroID(ctx context.Context, numeroID, excludeID string) (bool, error)
	SearchPersonas(ctx context.Context, q string, limit int) ([]store.PersonaMatch, error)

	ListSedes(ctx context.Context) ([]store.Sede, error)
	ListEscalas(ctx context.Context) ([]store.CatalogItem, error)
	ListMinisterios(ctx context.Context) ([]store.CatalogItem, error)

	ListCategorias(ctx context.Context, tipo enums.TipoTransaccion) ([]store.Categoria, error)
	GetCategoria(ctx context.Context, id string) (store.Categoria, error)
	CreateCategoria(ctx context.Context, c *store.Categoria) error
	UpdateCategoria(ctx context.Context, c *store.Categoria) error
	DeleteCategoria(ctx context.Context, id string) error

	ListActividades(ctx context.Context) ([]store.Actividad, error)
	GetActividad(ctx context.Context, id string) (store.Actividad, error)
	CreateActividad(ctx context.Context, a *store.Actividad) error
	UpdateActividad(ctx context.Context, a *store.Actividad) error
	DeleteActividad(ctx context.Context, id, ownerID string) error
	ActividadNameTaken(ctx context.Context, userID, nombre, excludeID string) (bool, error)
	ActividadResumen(ctx context.Context, id string) (store.Resumen, error)

	ListTransacciones(ctx context.Context, f store.TransaccionFilter) ([]store.Transaccion, error)
	CountTransacciones(ctx context.Context, f store.TransaccionFilter) (int, error)
	GetTransaccion(ctx context.Context, id string) (store.Transaccion, error)
	CreateTransaccion(ctx context.Context, t *store.Transaccion) error
	AnularTransaccion(ctx context.Context, id, motivo string) error

	CreateUser(ctx context.Context, u *store.User) error
	UpdateUser(ctx context.Context, u *store.User) error
	GetUser(ctx context.Context, id string) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
}

// Uploader keeps uploaded files in buckets
type Uploader interface {
	Save(ctx context.Context, bucket, name string, r io.Reader) (string, error)
	Remove(publicURL string) error
	Root() string
}

// Notifier is informed about transacciones, never fails the caller
type Notifier interface {
	TransaccionCreated(ctx context.Context, t store.Transaccion)
	TransaccionAnulada(ctx context.Context, t store.Transaccion)
}

// Server represents the web server
type Server struct {
	store          Store
	uploads        Uploader
	notifier       Notifier
	templates      map[string]*template.Template
	secret         []byte
	loginTTL       time.Duration
	loginLimiter   *limiter.Limiter
	csrfProtection *http.CrossOriginProtection
	secureCookies  bool
	version        string
	hostname       string
	maxUploadSize  int64
	thresholds     health.Thresholds
	startTime      time.Time
	now            func() time.Time
}

// Config holds server configuration
type Config struct {
	Store          Store
	Uploads        Uploader
	Notifier       Notifier // optional
	Secret         string   // jwt signing key
	LoginTTL       time.Duration
	LoginRateLimit float64 // login attempts per second per client, defaults to 1
	SecureCookies  bool
	Version        string
	Hostname       string
	MaxUploadSize  int64
	Thresholds     health.Thresholds // host limits reported as degraded by the status endpoint
	Location       *time.Location    // time zone of form dates and exports, defaults to local
}

// TemplateData holds fields shared by all pages
type TemplateData struct {
	User        store.User
	Title       string
	Section     string // active navigation entry
	Success     string
	Error       string
	ViewMode    enums.ViewMode
	Version     string
	Hostname    string
	CurrentYear int
}

const (
	personasPageSize      = 20
	transaccionesPageSize = 15
)

// New creates a new web server
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("web server initialization failed: store is required")
	}
	if cfg.Uploads == nil {
		return nil, fmt.Errorf("web server initialization failed: uploads store is required")
	}
	if len(cfg.Secret) < 16 {
		return nil, fmt.Errorf("web server initialization failed: secret must be at least 16 characters")
	}

	loginTTL := cfg.LoginTTL
	if loginTTL == 0 {
		loginTTL = 24 * time.Hour
	}
	rate := cfg.LoginRateLimit
	if rate <= 0 {
		rate = 1
	}
	maxUpload := cfg.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	lmt := tollbooth.NewLimiter(rate, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
	lmt.SetMessage("Demasiados intentos, espere un momento")

	s := &Server{
		store:          cfg.Store,
		uploads:        cfg.Uploads,
		notifier:       cfg.Notifier,
		secret:         []byte(cfg.Secret),
		loginTTL:       loginTTL,
		loginLimiter:   lmt,
		csrfProtection: http.NewCrossOriginProtection(),
		secureCookies:  cfg.SecureCookies,
		version:        cfg.Version,
		hostname:       cfg.Hostname,
		maxUploadSize:  maxUpload,
		thresholds:     cfg.Thresholds,
		startTime:      time.Now(),
		now:            func() time.Time { return time.Now().In(loc) },
	}

	templates, err := s.parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("web server initialization failed: failed to parse HTML templates: %w", err)
	}
	s.templates = templates
	return s, nil
}

// Run starts the web server, blocks until ctx canceled
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("feligres", "feligres", s.version),
		rest.Ping,
		rest.Trace,
		rest.SizeLimit(s.maxUploadSize+1024*1024), // multipart overhead on top of the file
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	// public routes
	router.HandleFunc("GET /login", s.handleLoginForm)
	router.With(s.csrfProtection.Handler, tollbooth.HTTPMiddleware(s.loginLimiter)).HandleFunc("POST /login", s.handleLogin)
	router.HandleFunc("GET /logout", s.handleLogout)

	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("[ERROR] failed to create static file system: %v", err)
		router.Handle("GET /static/", http.FileServer(http.FS(staticFS)))
	} else {
		router.HandleFiles("/static/", http.FS(fsys))
	}

	// everything else requires a session
	router.Group().Route(func(app *routegroup.Bundle) {
		app.Use(s.authMiddleware, s.csrfProtection.Handler)

		if uploadsFS, err := rest.NewFileServer("/uploads", s.uploads.Root()); err == nil {
			app.Handle("GET /uploads/", uploadsFS)
		} else {
			log.Printf("[ERROR] failed to create uploads file server: %v", err)
		}

		app.HandleFunc("GET /{$}", s.handleDashboard)
		app.HandleFunc("POST /view-mode", s.handleViewMode)

		// personas
		app.HandleFunc("GET /personas", s.handlePersonasPage)
		app.HandleFunc("GET /personas/list", s.handlePersonasPartial)
		app.HandleFunc("GET /personas/nueva", s.handlePersonaNueva)
		app.HandleFunc("GET /personas/export.xlsx", s.handlePersonasExport)
		app.HandleFunc("POST /personas", s.handlePersonaCreate)
		app.HandleFunc("GET /personas/{id}", s.handlePersonaDetail)
		app.HandleFunc("GET /personas/{id}/editar", s.handlePersonaEditar)
		app.HandleFunc("POST /personas/{id}", s.handlePersonaUpdate)
		app.HandleFunc("PUT /personas/{id}", s.handlePersonaUpdate)
		app.HandleFunc("POST /personas/{id}/delete", s.handlePersonaDelete)
		app.HandleFunc("DELETE /personas/{id}", s.handlePersonaDelete)

		// contabilidad pages
		app.HandleFunc("GET /contabilidad", s.handleTransaccionesPage)
		app.HandleFunc("GET /contabilidad/transacciones/list", s.handleTransaccionesPartial)
		app.HandleFunc("GET /contabilidad/transacciones/nueva", s.handleTransaccionNueva)
		app.HandleFunc("GET /contabilidad/transacciones/export.xlsx", s.handleTransaccionesExport)
		app.HandleFunc("GET /contabilidad/transacciones/{id}", s.handleTransaccionDetail)
		app.HandleFunc("GET /contabilidad/transacciones/{id}/comprobante.pdf", s.handleComprobantePDF)
		app.HandleFunc("GET /contabilidad/transacciones/{id}/comprobante.xlsx", s.handleComprobanteXLSX)
		app.HandleFunc("GET /contabilidad/actividades", s.handleActividadesPage)
		app.HandleFunc("GET /contabilidad/actividades/nueva", s.handleActividadNueva)
		app.HandleFunc("GET /contabilidad/actividades/{id}", s.handleActividadDetail)
		app.HandleFunc("GET /contabilidad/actividades/{id}/editar", s.handleActividadEditar)
		app.HandleFunc("GET /contabilidad/categorias", s.handleCategoriasPage)

		// admin pages
		app.With(s.adminOnly).HandleFunc("GET /usuarios", s.handleUsuariosPage)

		// JSON and form endpoints
		app.Mount("/api").Route(func(api *routegroup.Bundle) {
			api.Use(rest.NoCache)

			api.HandleFunc("GET /personas/buscar", s.handlePersonasBuscar)
			api.HandleFunc("POST /id-checker", s.handleIDChecker)

			api.Group().Route(func(cont *routegroup.Bundle) {
				cont.Use(jsonToForm)
				cont.HandleFunc("GET /contabilidad/actividades", s.handleAPIActividades)
				cont.HandleFunc("POST /contabilidad/actividades", s.handleActividadCreate)
				cont.HandleFunc("GET /contabilidad/actividades/{id}", s.handleAPIActividad)
				cont.HandleFunc("PUT /contabilidad/actividades/{id}", s.handleActividadUpdate)
				cont.HandleFunc("DELETE /contabilidad/actividades/{id}", s.handleActividadDelete)
				cont.HandleFunc("POST /contabilidad/actividades/{id}", s.methodOverride(s.handleActividadUpdate, s.handleActividadDelete))

				cont.HandleFunc("GET /contabilidad/categorias", s.handleAPICategorias)
				cont.HandleFunc("POST /contabilidad/categorias", s.handleCategoriaCreate)
				cont.HandleFunc("GET /contabilidad/categorias/{id}", s.handleAPICategoria)
				cont.HandleFunc("PUT /contabilidad/categorias/{id}", s.handleCategoriaUpdate)
				cont.HandleFunc("DELETE /contabilidad/categorias/{id}", s.handleCategoriaDelete)
				cont.HandleFunc("POST /contabilidad/categorias/{id}", s.methodOverride(s.handleCategoriaUpdate, s.handleCategoriaDelete))

				cont.HandleFunc("GET /contabilidad/transacciones", s.handleAPITransacciones)
				cont.HandleFunc("POST /contabilidad/transacciones", s.handleTransaccionCreate)
				cont.HandleFunc("GET /contabilidad/transacciones/{id}", s.handleAPITransaccion)
				cont.With(s.adminOnly).HandleFunc("POST /contabilidad/transacciones/{id}/anular", s.handleTransaccionAnular)
			})

			api.With(s.adminOnly).HandleFunc("POST /user/create", s.handleUserCreate)
			api.With(s.adminOnly).HandleFunc("POST /user/update", s.handleUserUpdate)

			api.HandleFunc("GET /v1/status", s.handleAPIStatus)
		})
	})

	return router
}

// render renders a page template into a buffer first, so template errors don't leave partial output
func (s *Server) render(w http.ResponseWriter, page, tmplName string, data any) {
	tmpl, ok := s.templates[page]
	if !ok {
		log.Printf("[WARN] template %s not found", page)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, tmplName, data); err != nil {
		log.Printf("[WARN] failed to execute template %s: %v", page, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write response: %v", err)
	}
}

// pages are parsed with the base layout and all partials, each into its own set
var pages = []string{
	"dashboard", "personas", "persona_form", "persona_detail",
	"transacciones", "transaccion_form", "transaccion_detail",
	"actividades", "actividad_form", "actividad_detail", "categorias", "usuarios",
}

// parseTemplates parses all templates
func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)
	funcs := templateFuncs(func() time.Time { return s.now() })

	for _, page := range pages {
		tmpl, err := template.New("base.html").Funcs(funcs).ParseFS(templatesFS,
			"templates/base.html", "templates/"+page+".html", "templates/partials/*.html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		templates[page] = tmpl
	}

	// partials separately for HTMX requests
	partials, err := template.New("partials").Funcs(funcs).ParseFS(templatesFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse partials: %w", err)
	}
	templates["partials"] = partials

	// login is standalone, doesn't use base
	login, err := template.New("login.html").Funcs(funcs).ParseFS(templatesFS, "templates/login.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse login template: %w", err)
	}
	templates["login"] = login

	return templates, nil
}

// newTemplateData creates a TemplateData with common fields populated from request
func (s *Server) newTemplateData(r *http.Request, title, section string) TemplateData {
	user, _ := userFromContext(r.Context())
	return TemplateData{
		User:        user,
		Title:       title,
		Section:     section,
		Success:     r.URL.Query().Get("success"),
		Error:       r.URL.Query().Get("error"),
		ViewMode:    s.getViewMode(r),
		Version:     s.version,
		Hostname:    s.hostname,
		CurrentYear: s.now().Year(),
	}
}

func (s *Server) getViewMode(r *http.Request) enums.ViewMode {
	cookie, err := r.Cookie("view-mode")
	if err != nil {
		return enums.ViewModeTable
	}
	mode, err := enums.ParseViewMode(cookie.Value)
	if err != nil {
		log.Printf("[WARN] invalid view mode %q: %v", cookie.Value, err)
		return enums.ViewModeTable
	}
	return mode
}

// handleViewMode stores the list view mode and sends the caller back
func (s *Server) handleViewMode(w http.ResponseWriter, r *http.Request) {
	mode, err := enums.ParseViewMode(r.FormValue("mode"))
	if err != nil {
		http.Error(w, "invalid view mode", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "view-mode",
		Value:    mode.String(),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	back := r.FormValue("back")
	if !isLocalPath(back) {
		back = "/personas"
	}
	w.Header().Set("HX-Refresh", "true")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// handleDashboard renders totals for the home page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to load stats: %v", err)
	}
	data := struct {
		TemplateData
		Stats store.Stats
	}{TemplateData: s.newTemplateData(r, "Inicio", "inicio"), Stats: stats}
	if err != nil {
		data.Error = "Error al cargar estadísticas"
	}
	s.render(w, "dashboard", "base.html", data)
}

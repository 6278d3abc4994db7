package web

import (
	"errors"
	"net/http"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/shopspring/decimal"

	"github.com/feligres/feligres/app/store"
	"github.com/feligres/feligres/app/store/enums"
	"github.com/feligres/feligres/app/textutil"
)

const (
	actividadesURL        = "/contabilidad/actividades"
	msgActividadNotFound  = "Actividad no encontrada"
	msgActividadIDMissing = "ID de actividad requerido"
)

// actividadRow is an actividad with its current balance
type actividadRow struct {
	store.Actividad
	Resumen store.Resumen
}

// handleActividadesPage renders actividades with their progress towards meta
func (s *Server) handleActividadesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := struct {
		TemplateData
		Actividades []actividadRow
	}{TemplateData: s.newTemplateData(r, "Actividades", "actividades")}

	list, err := s.store.ListActividades(ctx)
	if err != nil {
		log.Printf("[ERROR] failed to load actividades: %v", err)
		data.Error = "Error al cargar actividades"
	}
	for _, a := range list {
		res, err := s.store.ActividadResumen(ctx, a.ID)
		if err != nil {
			log.Printf("[WARN] failed to load resumen for %s: %v", a.ID, err)
		}
		data.Actividades = append(data.Actividades, actividadRow{Actividad: a, Resumen: res})
	}
	s.render(w, "actividades", "base.html", data)
}

// handleActividadNueva renders the empty actividad form
func (s *Server) handleActividadNueva(w http.ResponseWriter, r *http.Request) {
	data := struct {
		TemplateData
		Actividad store.Actividad
		IsNew     bool
	}{TemplateData: s.newTemplateData(r, "Nueva actividad", "actividades"), IsNew: true,
		Actividad: store.Actividad{Estado: enums.EstadoActividadEnCurso, FechaInicio: s.now().Format("2006-01-02")}}
	s.render(w, "actividad_form", "base.html", data)
}

// handleActividadEditar renders the actividad form with stored values
func (s *Server) handleActividadEditar(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadActividadPage(w, r)
	if !ok {
		return
	}
	data := struct {
		TemplateData
		Actividad store.Actividad
		IsNew     bool
	}{TemplateData: s.newTemplateData(r, "Editar actividad", "actividades"), Actividad: a}
	s.render(w, "actividad_form", "base.html", data)
}

// handleActividadDetail renders an actividad with its resumen and transacciones
func (s *Server) handleActividadDetail(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadActividadPage(w, r)
	if !ok {
		return
	}
	data := struct {
		TemplateData
		Actividad     store.Actividad
		Resumen       store.Resumen
		Transacciones []store.Transaccion
	}{TemplateData: s.newTemplateData(r, a.Nombre, "actividades"), Actividad: a}

	var err error
	if data.Resumen, err = s.store.ActividadResumen(r.Context(), a.ID); err != nil {
		log.Printf("[WARN] failed to load resumen for %s: %v", a.ID, err)
	}
	if data.Transacciones, err = s.store.ListTransacciones(r.Context(), store.TransaccionFilter{ActividadID: a.ID}); err != nil {
		log.Printf("[ERROR] failed to load transacciones for %s: %v", a.ID, err)
		data.Error = "Error al cargar transacciones"
	}
	s.render(w, "actividad_detail", "base.html", data)
}

// handleAPIActividades returns all actividades
func (s *Server) handleAPIActividades(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListActividades(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to load actividades: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Error al cargar actividades")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleAPIActividad returns an actividad with its transacciones and resumen
func (s *Server) handleAPIActividad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, msgActividadIDMissing)
		return
	}
	a, err := s.store.GetActividad(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, msgActividadNotFound)
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to load actividad %s: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "Error al cargar la actividad")
		return
	}
	list, err := s.store.ListTransacciones(ctx, store.TransaccionFilter{ActividadID: id})
	if err != nil {
		log.Printf("[ERROR] failed to load transacciones for %s: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "Error al cargar transacciones")
		return
	}
	res, err := s.store.ActividadResumen(ctx, id)
	if err != nil {
		log.Printf("[ERROR] failed to load resumen for %s: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "Error interno")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actividad": a, "transacciones": list, "resumen": res})
}

// handleActividadCreate registers an actividad owned by the caller
func (s *Server) handleActividadCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	a, msg := actividadFromForm(r)
	if msg != "" {
		fail(w, r, http.StatusBadRequest, msg, actividadesURL)
		return
	}
	taken, err := s.store.ActividadNameTaken(ctx, user.ID, a.Nombre, "")
	if err != nil {
		log.Printf("[ERROR] failed to check actividad name %q: %v", a.Nombre, err)
		fail(w, r, http.StatusInternalServerError, "Error al validar el nombre de la actividad", actividadesURL)
		return
	}
	if taken {
		fail(w, r, http.StatusBadRequest, "Ya existe una actividad con este nombre", actividadesURL)
		return
	}

	a.UserID = user.ID
	if err := s.store.CreateActividad(ctx, &a); err != nil {
		log.Printf("[ERROR] failed to create actividad %q: %v", a.Nombre, err)
		fail(w, r, http.StatusInternalServerError, "Error al guardar la actividad", actividadesURL)
		return
	}
	log.Printf("[INFO] actividad %s %q created by %s", a.ID, a.Nombre, user.Email)
	succeed(w, r, "¡Actividad registrada con éxito!", actividadesURL)
}

// handleActividadUpdate overwrites an actividad, validation errors send the browser back to the form
func (s *Server) handleActividadUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)
	id := r.PathValue("id")
	if id == "" {
		fail(w, r, http.StatusBadRequest, msgActividadIDMissing, actividadesURL)
		return
	}
	editURL := actividadesURL + "/" + id + "/editar"

	a, msg := actividadFromForm(r)
	if msg != "" {
		fail(w, r, http.StatusBadRequest, msg, editURL)
		return
	}
	current, err := s.store.GetActividad(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		fail(w, r, http.StatusNotFound, msgActividadNotFound, actividadesURL)
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to load actividad %s: %v", id, err)
		fail(w, r, http.StatusInternalServerError, "Error al actualizar la actividad", editURL)
		return
	}
	if current.UserID != user.ID && !user.IsAdmin() {
		fail(w, r, http.StatusNotFound, msgActividadNotFound, actividadesURL)
		return
	}
	taken, err := s.store.ActividadNameTaken(ctx, current.UserID, a.Nombre, id)
	if err != nil {
		log.Printf("[ERROR] failed to check actividad name %q: %v", a.Nombre, err)
		fail(w, r, http.StatusInternalServerError, "Error al validar el nombre de la actividad", editURL)
		return
	}
	if taken {
		fail(w, r, http.StatusBadRequest, "Ya existe una actividad con este nombre", editURL)
		return
	}

	a.ID, a.UserID, a.CreatedAt = id, current.UserID, current.CreatedAt
	if err := s.store.UpdateActividad(ctx, &a); err != nil {
		log.Printf("[ERROR] failed to update actividad %s: %v", id, err)
		fail(w, r, http.StatusInternalServerError, "Error al actualizar la actividad", editURL)
		return
	}
	log.Printf("[INFO] actividad %s updated by %s", id, user.Email)
	succeed(w, r, "¡Actividad actualizada con éxito!", actividadesURL)
}

// handleActividadDelete removes an actividad of the caller, admins may remove any.
// Actividades with transacciones are kept.
func (s *Server) handleActividadDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)
	id := r.PathValue("id")
	if id == "" {
		fail(w, r, http.StatusBadRequest, msgActividadIDMissing, actividadesURL)
		return
	}
	if !textutil.IsUUID(id) {
		fail(w, r, http.StatusBadRequest, "ID de actividad tiene un formato inválido", actividadesURL)
		return
	}

	owner := user.ID
	if user.IsAdmin() {
		owner = ""
	}
	err := s.store.DeleteActividad(ctx, id, owner)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(w, r, http.StatusNotFound, msgActividadNotFound, actividadesURL)
		return
	case errors.Is(err, store.ErrInUse):
		fail(w, r, http.StatusBadRequest, "No se puede eliminar la actividad porque tiene transacciones asociadas", actividadesURL)
		return
	case err != nil:
		log.Printf("[ERROR] failed to delete actividad %s: %v", id, err)
		fail(w, r, http.StatusInternalServerError, "Error al eliminar la actividad", actividadesURL)
		return
	}
	log.Printf("[INFO] actividad %s deleted by %s", id, user.Email)
	succeed(w, r, "¡Actividad eliminada con éxito!", actividadesURL)
}

func (s *Server) loadActividadPage(w http.ResponseWriter, r *http.Request) (store.Actividad, bool) {
	id := r.PathValue("id")
	a, err := s.store.GetActividad(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		redirectMsg(w, r, actividadesURL, "error", msgActividadNotFound)
		return store.Actividad{}, false
	}
	if err != nil {
		log.Printf("[ERROR] failed to load actividad %s: %v", id, err)
		redirectMsg(w, r, actividadesURL, "error", "Error al cargar la actividad")
		return store.Actividad{}, false
	}
	return a, true
}

// actividadFromForm reads and validates actividad fields, returns a user message on invalid input
func actividadFromForm(r *http.Request) (store.Actividad, string) {
	val := func(k string) string { return strings.TrimSpace(r.FormValue(k)) }
	a := store.Actividad{
		Nombre:      val("nombre"),
		Descripcion: val("descripcion"),
		FechaInicio: val("fecha_inicio"),
		FechaFin:    val("fecha_fin"),
		Estado:      enums.EstadoActividadEnCurso,
	}
	if a.Nombre == "" || a.FechaInicio == "" {
		return a, "Nombre y fecha_inicio son requeridos"
	}
	meta, err := decimal.NewFromString(val("meta"))
	if err != nil || !meta.IsPositive() {
		return a, "La meta de recaudación debe ser un valor positivo mayor a cero"
	}
	a.Meta = meta
	if e := val("estado"); e != "" {
		estado, err := enums.ParseEstadoActividad(e)
		if err != nil {
			return a, "Estado de actividad inválido"
		}
		a.Estado = estado
	}
	if a.FechaFin != "" && a.FechaFin < a.FechaInicio {
		return a, "La fecha de fin no puede ser anterior a la fecha de inicio"
	}
	return a, ""
}

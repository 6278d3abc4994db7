package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/shopspring/decimal"

	"github.com/feligres/feligres/app/export"
	"github.com/feligres/feligres/app/store"
	"github.com/feligres/feligres/app/store/enums"
	"github.com/feligres/feligres/app/uploads"
)

const (
	contabilidadURL        = "/contabilidad"
	msgTransaccionNotFound = "Transacción no encontrada"
	msgTransaccionInvalid  = "Datos inválidos: revise fecha, monto, tipo y categoría"
	pdfContentType         = "application/pdf"
)

// transaccionesList is the filtered, paginated list shown on the contabilidad page
type transaccionesList struct {
	Transacciones []store.Transaccion
	ActividadID   string
	FechaInicio   string
	FechaFin      string
	Tipo          string
	Query         string // filters encoded for pagination and export links
	Pager         pager
	Actividad     *store.Actividad
	Resumen       *store.Resumen
}

// transaccionFilter reads list filters from the query, page is returned separately
func transaccionFilter(r *http.Request) (store.TransaccionFilter, int) {
	q := r.URL.Query()
	f := store.TransaccionFilter{
		ActividadID: strings.TrimSpace(q.Get("actividad_id")),
		FechaInicio: strings.TrimSpace(q.Get("fecha_inicio")),
		FechaFin:    strings.TrimSpace(q.Get("fecha_fin")),
	}
	if tipo, err := enums.ParseTipoTransaccion(q.Get("tipo")); err == nil {
		f.Tipo = tipo
	}
	page, _ := strconv.Atoi(q.Get("page"))
	return f, page
}

func (s *Server) loadTransaccionesList(r *http.Request) (transaccionesList, error) {
	ctx := r.Context()
	f, page := transaccionFilter(r)

	total, err := s.store.CountTransacciones(ctx, f)
	if err != nil {
		return transaccionesList{}, err
	}
	query := url.Values{}
	for k, v := range map[string]string{"actividad_id": f.ActividadID, "fecha_inicio": f.FechaInicio,
		"fecha_fin": f.FechaFin, "tipo": f.Tipo.String()} {
		if v != "" {
			query.Set(k, v)
		}
	}

	p := newPager(total, page, transaccionesPageSize)
	p.PagePath, p.PartialPath, p.Query = contabilidadURL, contabilidadURL+"/transacciones/list", query.Encode()
	f.Limit, f.Offset = p.Size, p.Offset()
	list, err := s.store.ListTransacciones(ctx, f)
	if err != nil {
		return transaccionesList{}, err
	}
	res := transaccionesList{Transacciones: list, ActividadID: f.ActividadID, FechaInicio: f.FechaInicio,
		FechaFin: f.FechaFin, Tipo: f.Tipo.String(), Query: query.Encode(), Pager: p}

	if f.ActividadID != "" {
		a, err := s.store.GetActividad(ctx, f.ActividadID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return transaccionesList{}, err
		}
		if err == nil {
			resumen, err := s.store.ActividadResumen(ctx, a.ID)
			if err != nil {
				return transaccionesList{}, err
			}
			res.Actividad, res.Resumen = &a, &resumen
		}
	}
	return res, nil
}

// handleTransaccionesPage renders the contabilidad page with filters and the transacciones list
func (s *Server) handleTransaccionesPage(w http.ResponseWriter, r *http.Request) {
	data := struct {
		TemplateData
		List        transaccionesList
		Actividades []store.Actividad
	}{TemplateData: s.newTemplateData(r, "Contabilidad", "contabilidad")}

	var err error
	if data.List, err = s.loadTransaccionesList(r); err != nil {
		log.Printf("[ERROR] failed to load transacciones: %v", err)
		data.Error = "Error al cargar transacciones"
	}
	if data.Actividades, err = s.store.ListActividades(r.Context()); err != nil {
		log.Printf("[WARN] failed to load actividades: %v", err)
	}
	s.render(w, "transacciones", "base.html", data)
}

// handleTransaccionesPartial renders the list for HTMX filter and pagination requests
func (s *Server) handleTransaccionesPartial(w http.ResponseWriter, r *http.Request) {
	list, err := s.loadTransaccionesList(r)
	if err != nil {
		log.Printf("[ERROR] failed to load transacciones: %v", err)
		http.Error(w, "Error al cargar transacciones", http.StatusInternalServerError)
		return
	}
	s.render(w, "partials", "transacciones_list", list)
}

// handleTransaccionesExport sends all transacciones matching the filters as a spreadsheet
func (s *Server) handleTransaccionesExport(w http.ResponseWriter, r *http.Request) {
	f, _ := transaccionFilter(r)
	list, err := s.store.ListTransacciones(r.Context(), f)
	if err != nil {
		log.Printf("[ERROR] failed to load transacciones for export: %v", err)
		redirectMsg(w, r, contabilidadURL, "error", "Error al exportar transacciones")
		return
	}
	setAttachment(w, xlsxContentType, fmt.Sprintf("transacciones_%s.xlsx", s.now().Format("2006-01-02")))
	if err := export.TransaccionesXLSX(w, list); err != nil {
		log.Printf("[WARN] failed to write transacciones export: %v", err)
	}
}

// handleTransaccionNueva renders the transaccion form with categorias, actividades and an
// optional preselected actividad
func (s *Server) handleTransaccionNueva(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := struct {
		TemplateData
		Categorias  []store.Categoria
		Actividades []store.Actividad
		ActividadID string
		Today       string
	}{TemplateData: s.newTemplateData(r, "Nueva transacción", "contabilidad"),
		ActividadID: r.URL.Query().Get("actividad_id"), Today: s.now().Format("2006-01-02")}

	var err error
	if data.Categorias, err = s.store.ListCategorias(ctx, enums.TipoTransaccion{}); err != nil {
		log.Printf("[ERROR] failed to load categorias: %v", err)
		data.Error = "Error al cargar categorías"
	}
	if data.Actividades, err = s.store.ListActividades(ctx); err != nil {
		log.Printf("[ERROR] failed to load actividades: %v", err)
		data.Error = "Error al cargar actividades"
	}
	s.render(w, "transaccion_form", "base.html", data)
}

// handleTransaccionDetail renders a single transaccion
func (s *Server) handleTransaccionDetail(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTransaccionPage(w, r)
	if !ok {
		return
	}
	data := struct {
		TemplateData
		Transaccion store.Transaccion
	}{TemplateData: s.newTemplateData(r, "Transacción "+t.NumeroTransaccion, "contabilidad"), Transaccion: t}
	s.render(w, "transaccion_detail", "base.html", data)
}

// handleComprobantePDF sends the receipt of a transaccion as PDF
func (s *Server) handleComprobantePDF(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTransaccionPage(w, r)
	if !ok {
		return
	}
	setAttachment(w, pdfContentType, export.ComprobanteFileName(t, "pdf"))
	if err := export.ComprobantePDF(w, t, s.now()); err != nil {
		log.Printf("[WARN] failed to write comprobante %s: %v", t.ID, err)
	}
}

// handleComprobanteXLSX sends the receipt of a transaccion as spreadsheet
func (s *Server) handleComprobanteXLSX(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTransaccionPage(w, r)
	if !ok {
		return
	}
	setAttachment(w, xlsxContentType, export.ComprobanteFileName(t, "xlsx"))
	if err := export.ComprobanteXLSX(w, t); err != nil {
		log.Printf("[WARN] failed to write comprobante %s: %v", t.ID, err)
	}
}

// handleAPITransacciones returns transacciones, optionally of one actividad
func (s *Server) handleAPITransacciones(w http.ResponseWriter, r *http.Request) {
	f := store.TransaccionFilter{ActividadID: strings.TrimSpace(r.URL.Query().Get("actividad_id"))}
	list, err := s.store.ListTransacciones(r.Context(), f)
	if err != nil {
		log.Printf("[ERROR] failed to load transacciones: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Error al cargar transacciones")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleAPITransaccion returns a single transaccion
func (s *Server) handleAPITransaccion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, err := s.store.GetTransaccion(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, msgTransaccionNotFound)
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to load transaccion %s: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "Error al cargar la transacción")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleTransaccionCreate records a transaccion from a form, multipart form or JSON body.
// An evidencia_upload file takes precedence over the evidencia URL.
func (s *Server) handleTransaccionCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)
	back := contabilidadURL

	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		fail(w, r, http.StatusBadRequest, "Formulario inválido", back)
		return
	}

	t, ok := transaccionFromForm(r)
	if !ok {
		fail(w, r, http.StatusBadRequest, msgTransaccionInvalid, back)
		return
	}
	if _, err := s.store.GetCategoria(ctx, t.CategoriaID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[ERROR] failed to load categoria %s: %v", t.CategoriaID, err)
			fail(w, r, http.StatusInternalServerError, "Error al registrar la transacción", back)
			return
		}
		fail(w, r, http.StatusBadRequest, msgTransaccionInvalid, back)
		return
	}

	evidencia, err := s.saveUpload(r, "evidencia_upload", uploads.BucketEvidencias, user.ID)
	if err != nil {
		log.Printf("[WARN] failed to save evidencia: %v", err)
		fail(w, r, http.StatusBadRequest, "No se pudo subir la evidencia.", back)
		return
	}
	if evidencia != "" {
		t.Evidencia = evidencia
	}

	t.UserID = user.ID
	if err := s.store.CreateTransaccion(ctx, &t); err != nil {
		log.Printf("[ERROR] failed to create transaccion: %v", err)
		s.removeUpload(evidencia)
		fail(w, r, http.StatusInternalServerError, "Error al guardar la transacción", back)
		return
	}
	log.Printf("[INFO] transaccion %s %s %s created by %s", t.NumeroTransaccion, t.Tipo, t.Monto, user.Email)

	// reload for joined names used by notifications and the JSON answer
	if full, err := s.store.GetTransaccion(ctx, t.ID); err == nil {
		t = full
	}
	s.notify(ctx, func(ctx context.Context, n Notifier) { n.TransaccionCreated(ctx, t) })

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "transaccion": t})
		return
	}
	redirectMsg(w, r, contabilidadURL, "success", "Transacción registrada exitosamente ✅")
}

// handleTransaccionAnular marks an activa transaccion as anulada
func (s *Server) handleTransaccionAnular(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)
	id := r.PathValue("id")
	detailURL := contabilidadURL + "/transacciones/" + id

	motivo := strings.TrimSpace(r.FormValue("motivo"))
	if motivo == "" {
		fail(w, r, http.StatusBadRequest, "El motivo de anulación es requerido", detailURL)
		return
	}

	err := s.store.AnularTransaccion(ctx, id, motivo)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(w, r, http.StatusNotFound, msgTransaccionNotFound, contabilidadURL)
		return
	case errors.Is(err, store.ErrAnulada):
		fail(w, r, http.StatusBadRequest, "La transacción ya está anulada", detailURL)
		return
	case err != nil:
		log.Printf("[ERROR] failed to annul transaccion %s: %v", id, err)
		fail(w, r, http.StatusInternalServerError, "Error al anular la transacción", detailURL)
		return
	}
	log.Printf("[INFO] transaccion %s annulled by %s, %q", id, user.Email, motivo)

	if t, err := s.store.GetTransaccion(ctx, id); err == nil {
		s.notify(ctx, func(ctx context.Context, n Notifier) { n.TransaccionAnulada(ctx, t) })
	}
	succeed(w, r, "Transacción anulada", detailURL)
}

// notify runs fn in background with a context detached from the request
func (s *Server) notify(ctx context.Context, fn func(ctx context.Context, n Notifier)) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	go func() {
		defer cancel()
		fn(nctx, s.notifier)
	}()
}

func (s *Server) loadTransaccionPage(w http.ResponseWriter, r *http.Request) (store.Transaccion, bool) {
	id := r.PathValue("id")
	t, err := s.store.GetTransaccion(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		redirectMsg(w, r, contabilidadURL, "error", msgTransaccionNotFound)
		return store.Transaccion{}, false
	}
	if err != nil {
		log.Printf("[ERROR] failed to load transaccion %s: %v", id, err)
		redirectMsg(w, r, contabilidadURL, "error", "Error al cargar la transacción")
		return store.Transaccion{}, false
	}
	return t, true
}

// transaccionFromForm reads transaccion fields, false when fecha, monto, tipo or categoria are invalid
func transaccionFromForm(r *http.Request) (store.Transaccion, bool) {
	val := func(k string) string { return strings.TrimSpace(r.FormValue(k)) }
	t := store.Transaccion{
		Fecha:       val("fecha"),
		CategoriaID: val("categoria_id"),
		Descripcion: val("descripcion"),
		ActividadID: val("actividad_id"),
		PersonaID:   val("persona_id"),
		Evidencia:   val("evidencia"),
	}
	if len(t.Fecha) < 10 || t.CategoriaID == "" {
		return t, false
	}
	if _, err := time.Parse("2006-01-02", t.Fecha[:10]); err != nil {
		return t, false
	}
	monto, err := decimal.NewFromString(val("monto"))
	if err != nil || !monto.IsPositive() {
		return t, false
	}
	tipo, err := enums.ParseTipoTransaccion(val("tipo"))
	if err != nil {
		return t, false
	}
	t.Monto, t.Tipo = monto, tipo
	return t, true
}

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/feligres/feligres/app/export"
	"github.com/feligres/feligres/app/store"
	"github.com/feligres/feligres/app/store/enums"
	"github.com/feligres/feligres/app/textutil"
	"github.com/feligres/feligres/app/uploads"
)

const (
	msgPersonaNotFound  = "Persona no encontrada"
	msgPersonaDuplicate = "Ya existe una persona con este número de identificación."
)

// personasList is the filtered, paginated list shown on the personas page
type personasList struct {
	Personas []store.Persona
	Search   string
	SedeID   string
	Pager    pager
	Total    int // all personas, ignoring filters
	ViewMode enums.ViewMode
}

// personaForm is the data of the create and edit forms
type personaForm struct {
	TemplateData
	Persona     store.Persona
	Sedes       []store.Sede
	Escalas     []store.CatalogItem
	Ministerios []store.CatalogItem
	IsNew       bool
}

func (s *Server) loadPersonasList(r *http.Request) (personasList, error) {
	ctx := r.Context()
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	f := store.PersonaFilter{Search: strings.TrimSpace(r.URL.Query().Get("q")), SedeID: r.URL.Query().Get("sede_id")}

	filtered, err := s.store.CountPersonas(ctx, f)
	if err != nil {
		return personasList{}, err
	}
	total := filtered
	if f.Search != "" || f.SedeID != "" {
		if total, err = s.store.CountPersonas(ctx, store.PersonaFilter{}); err != nil {
			return personasList{}, err
		}
	}

	p := newPager(filtered, page, personasPageSize)
	p.PagePath, p.PartialPath = "/personas", "/personas/list"
	query := url.Values{}
	if f.Search != "" {
		query.Set("q", f.Search)
	}
	if f.SedeID != "" {
		query.Set("sede_id", f.SedeID)
	}
	p.Query = query.Encode()
	f.Limit, f.Offset = p.Size, p.Offset()
	list, err := s.store.ListPersonas(ctx, f)
	if err != nil {
		return personasList{}, err
	}
	return personasList{Personas: list, Search: f.Search, SedeID: f.SedeID, Pager: p, Total: total,
		ViewMode: s.getViewMode(r)}, nil
}

// handlePersonasPage renders the personas list page
func (s *Server) handlePersonasPage(w http.ResponseWriter, r *http.Request) {
	data := struct {
		TemplateData
		List  personasList
		Sedes []store.Sede
	}{TemplateData: s.newTemplateData(r, "Personas", "personas")}

	var err error
	if data.List, err = s.loadPersonasList(r); err != nil {
		log.Printf("[ERROR] failed to load personas: %v", err)
		data.Error = "Error al cargar personas"
	}
	if data.Sedes, err = s.store.ListSedes(r.Context()); err != nil {
		log.Printf("[WARN] failed to load sedes: %v", err)
	}
	s.render(w, "personas", "base.html", data)
}

// handlePersonasPartial renders the list for HTMX filter, search and pagination requests
func (s *Server) handlePersonasPartial(w http.ResponseWriter, r *http.Request) {
	list, err := s.loadPersonasList(r)
	if err != nil {
		log.Printf("[ERROR] failed to load personas: %v", err)
		http.Error(w, "Error al cargar personas", http.StatusInternalServerError)
		return
	}
	s.render(w, "partials", "personas_list", list)
}

// handlePersonasExport sends the filtered personas as a spreadsheet
func (s *Server) handlePersonasExport(w http.ResponseWriter, r *http.Request) {
	f := store.PersonaFilter{Search: strings.TrimSpace(r.URL.Query().Get("q")), SedeID: r.URL.Query().Get("sede_id")}
	list, err := s.store.ListPersonas(r.Context(), f)
	if err != nil {
		log.Printf("[ERROR] failed to load personas for export: %v", err)
		redirectMsg(w, r, "/personas", "error", "Error al exportar personas")
		return
	}
	setAttachment(w, xlsxContentType, fmt.Sprintf("personas_%s.xlsx", s.now().Format("2006-01-02")))
	if err := export.PersonasXLSX(w, list); err != nil {
		log.Printf("[WARN] failed to write personas export: %v", err)
	}
}

// handlePersonaNueva renders the empty persona form
func (s *Server) handlePersonaNueva(w http.ResponseWriter, r *http.Request) {
	data, err := s.newPersonaForm(r, "Nueva persona", store.Persona{})
	if err != nil {
		log.Printf("[ERROR] failed to load catalogs: %v", err)
		redirectMsg(w, r, "/personas", "error", "Error al cargar el formulario")
		return
	}
	data.IsNew = true
	s.render(w, "persona_form", "base.html", data)
}

// handlePersonaEditar renders the persona form filled with the stored values
func (s *Server) handlePersonaEditar(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPersona(w, r)
	if !ok {
		return
	}
	data, err := s.newPersonaForm(r, "Editar persona", p)
	if err != nil {
		log.Printf("[ERROR] failed to load catalogs: %v", err)
		redirectMsg(w, r, "/personas", "error", "Error al cargar el formulario")
		return
	}
	s.render(w, "persona_form", "base.html", data)
}

// handlePersonaDetail renders a persona
func (s *Server) handlePersonaDetail(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPersona(w, r)
	if !ok {
		return
	}
	data := struct {
		TemplateData
		Persona store.Persona
	}{TemplateData: s.newTemplateData(r, p.NombreCompleto(), "personas"), Persona: p}
	s.render(w, "persona_detail", "base.html", data)
}

// handlePersonaCreate stores a new persona from the multipart form, with optional photo
func (s *Server) handlePersonaCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		log.Printf("[WARN] can't parse persona form: %v", err)
		fail(w, r, http.StatusBadRequest, "Datos del formulario inválidos", "/personas")
		return
	}

	p, escalas, ministerios := s.personaFromForm(r)
	if p.NumeroID == "" {
		fail(w, r, http.StatusBadRequest, "El número de identificación es obligatorio.", "/personas")
		return
	}
	exists, err := s.store.PersonaExistsByNumeroID(ctx, p.NumeroID, "")
	if err != nil {
		log.Printf("[ERROR] failed to check numero_id %s: %v", p.NumeroID, err)
		fail(w, r, http.StatusInternalServerError, "Error de base de datos al verificar ID", "/personas")
		return
	}
	if exists {
		fail(w, r, http.StatusBadRequest, msgPersonaDuplicate, "/personas")
		return
	}

	foto, err := s.saveUpload(r, "foto_upload", uploads.BucketFotos, user.ID)
	if err != nil {
		log.Printf("[WARN] failed to store photo for %s: %v", p.NumeroID, err)
		fail(w, r, http.StatusBadRequest, "No se pudo subir la imagen.", "/personas")
		return
	}
	p.URLFoto, p.UserID = foto, user.ID

	if err := s.store.CreatePersona(ctx, &p, escalas, ministerios); err != nil {
		s.removeUpload(foto)
		if errors.Is(err, store.ErrDuplicate) {
			fail(w, r, http.StatusBadRequest, msgPersonaDuplicate, "/personas")
			return
		}
		log.Printf("[ERROR] failed to create persona %s: %v", p.NumeroID, err)
		fail(w, r, http.StatusInternalServerError, "Error de base de datos al insertar", "/personas")
		return
	}
	log.Printf("[INFO] persona %s created by %s", p.ID, user.Email)
	succeed(w, r, "Persona creada con éxito", "/personas")
}

// handlePersonaUpdate overwrites a persona from the form, POST and PUT share it
func (s *Server) handlePersonaUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)
	id := r.PathValue("id")
	if !textutil.IsUUID(id) {
		fail(w, r, http.StatusBadRequest, "ID de persona no válido", "/personas")
		return
	}
	editURL := "/personas/" + id + "/editar"

	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		fail(w, r, http.StatusBadRequest, "Datos del formulario inválidos", editURL)
		return
	}
	p, escalas, ministerios := s.personaFromForm(r)
	if p.Nombres == "" || p.PrimerApellido == "" || p.NumeroID == "" || p.TipoID == "" || p.Email == "" || p.Telefono == "" {
		fail(w, r, http.StatusBadRequest, "Por favor completa todos los campos requeridos", editURL)
		return
	}
	if !textutil.ValidEmail(p.Email) {
		fail(w, r, http.StatusBadRequest, "Por favor ingresa un email válido", editURL)
		return
	}

	current, err := s.store.GetPersona(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		fail(w, r, http.StatusNotFound, msgPersonaNotFound, "/personas")
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to load persona %s: %v", id, err)
		fail(w, r, http.StatusInternalServerError, "Error inesperado al actualizar la persona", editURL)
		return
	}

	exists, err := s.store.PersonaExistsByNumeroID(ctx, p.NumeroID, id)
	if err != nil {
		log.Printf("[ERROR] failed to check numero_id %s: %v", p.NumeroID, err)
		fail(w, r, http.StatusInternalServerError, "Error inesperado al actualizar la persona", editURL)
		return
	}
	if exists {
		fail(w, r, http.StatusBadRequest, strings.TrimSuffix(msgPersonaDuplicate, "."), editURL)
		return
	}

	foto, err := s.saveUpload(r, "foto_upload", uploads.BucketFotos, user.ID)
	if err != nil {
		log.Printf("[WARN] failed to store photo for %s: %v", id, err)
		fail(w, r, http.StatusBadRequest, "No se pudo subir la imagen.", editURL)
		return
	}

	p.ID, p.UserID, p.URLFoto, p.CreatedAt = id, current.UserID, current.URLFoto, current.CreatedAt
	if foto != "" {
		p.URLFoto = foto
	}
	if err := s.store.UpdatePersona(ctx, &p, escalas, ministerios); err != nil {
		s.removeUpload(foto)
		if errors.Is(err, store.ErrDuplicate) {
			fail(w, r, http.StatusBadRequest, strings.TrimSuffix(msgPersonaDuplicate, "."), editURL)
			return
		}
		log.Printf("[ERROR] failed to update persona %s: %v", id, err)
		fail(w, r, http.StatusInternalServerError, "Error inesperado al actualizar la persona", editURL)
		return
	}
	if foto != "" && current.URLFoto != "" {
		s.removeUpload(current.URLFoto)
	}
	log.Printf("[INFO] persona %s updated by %s", id, user.Email)
	succeed(w, r, "Persona actualizada correctamente", "/personas/"+id)
}

// handlePersonaDelete removes a persona with its escala and ministerio links
func (s *Server) handlePersonaDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if !textutil.IsUUID(id) {
		fail(w, r, http.StatusBadRequest, "ID de persona no válido", "/personas")
		return
	}
	p, err := s.store.GetPersona(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		fail(w, r, http.StatusNotFound, msgPersonaNotFound, "/personas")
		return
	}
	if err == nil {
		err = s.store.DeletePersona(ctx, id)
	}
	if err != nil {
		log.Printf("[ERROR] failed to delete persona %s: %v", id, err)
		fail(w, r, http.StatusInternalServerError, "Error inesperado al eliminar la persona", "/personas")
		return
	}
	s.removeUpload(p.URLFoto)
	user, _ := userFromContext(ctx)
	log.Printf("[INFO] persona %s deleted by %s", id, user.Email)
	succeed(w, r, "Persona eliminada correctamente", "/personas")
}

// handlePersonasBuscar returns up to 10 personas matching q for the transaccion form
func (s *Server) handlePersonasBuscar(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.SearchPersonas(r.Context(), r.URL.Query().Get("q"), 10)
	if err != nil {
		log.Printf("[ERROR] failed to search personas: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Error al buscar personas")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleIDChecker tells the persona form whether numero_id is already registered
func (s *Server) handleIDChecker(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NumeroID string `json:"numero_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.NumeroID) == "" {
		writeJSONError(w, http.StatusBadRequest, "numero_id es requerido")
		return
	}
	exists, err := s.store.PersonaExistsByNumeroID(r.Context(), strings.TrimSpace(req.NumeroID), "")
	if err != nil {
		log.Printf("[ERROR] failed to check numero_id %s: %v", req.NumeroID, err)
		writeJSONError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// loadPersona gets the persona of the {id} path value, redirecting to the list when missing
func (s *Server) loadPersona(w http.ResponseWriter, r *http.Request) (store.Persona, bool) {
	id := r.PathValue("id")
	if !textutil.IsUUID(id) {
		redirectMsg(w, r, "/personas", "error", "ID de persona no válido")
		return store.Persona{}, false
	}
	p, err := s.store.GetPersona(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		redirectMsg(w, r, "/personas", "error", msgPersonaNotFound)
		return store.Persona{}, false
	}
	if err != nil {
		log.Printf("[ERROR] failed to load persona %s: %v", id, err)
		redirectMsg(w, r, "/personas", "error", "Error al cargar la persona")
		return store.Persona{}, false
	}
	return p, true
}

func (s *Server) newPersonaForm(r *http.Request, title string, p store.Persona) (personaForm, error) {
	ctx := r.Context()
	res := personaForm{TemplateData: s.newTemplateData(r, title, "personas"), Persona: p}
	var err error
	if res.Sedes, err = s.store.ListSedes(ctx); err != nil {
		return res, err
	}
	if res.Escalas, err = s.store.ListEscalas(ctx); err != nil {
		return res, err
	}
	if res.Ministerios, err = s.store.ListMinisterios(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// personaFromForm reads persona fields, title-casing names and computing edad
func (s *Server) personaFromForm(r *http.Request) (p store.Persona, escalaIDs, ministerioIDs []string) {
	val := func(k string) string { return strings.TrimSpace(r.FormValue(k)) }
	p = store.Persona{
		Nombres:         textutil.TitleCaseEs(val("nombres")),
		PrimerApellido:  textutil.TitleCaseEs(val("primer_apellido")),
		SegundoApellido: textutil.TitleCaseEs(val("segundo_apellido")),
		TipoID:          val("tipo_id"),
		NumeroID:        val("numero_id"),
		FechaNacimiento: val("fecha_nacimiento"),
		Genero:          val("genero"),
		Telefono:        val("telefono"),
		Email:           strings.ToLower(val("email")),
		Direccion:       val("direccion"),
		SedeID:          val("sede_id"),
		EstadoCivil:     val("estado_civil"),
		Departamento:    textutil.TitleCaseEs(val("departamento")),
		Municipio:       textutil.TitleCaseEs(val("municipio")),
	}
	p.Edad = textutil.Edad(p.FechaNacimiento, s.now())
	switch strings.ToLower(val("bautizado")) {
	case "on", "true", "1", "si", "sí":
		p.Bautizado = true
	}
	return p, r.Form["escalas_seleccionadas"], r.Form["ministerios_seleccionados"]
}

// saveUpload stores the optional file of the form field, returns its public URL or empty string
func (s *Server) saveUpload(r *http.Request, field, bucket, userID string) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	file, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("can't read %s: %w", field, err)
	}
	defer file.Close() //nolint:errcheck // multipart file, read only
	if hdr.Size == 0 {
		return "", nil
	}
	name, err := uploads.FileName(userID, hdr.Filename, s.now())
	if err != nil {
		return "", err
	}
	return s.uploads.Save(r.Context(), bucket, name, file)
}

func (s *Server) removeUpload(publicURL string) {
	if publicURL == "" {
		return
	}
	if err := s.uploads.Remove(publicURL); err != nil {
		log.Printf("[WARN] failed to remove upload %s: %v", publicURL, err)
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func setAttachment(w http.ResponseWriter, contentType, fileName string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
}

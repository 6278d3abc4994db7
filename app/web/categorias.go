package web

import (
	"errors"
	"net/http"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/feligres/feligres/app/store"
	"github.com/feligres/feligres/app/store/enums"
	"github.com/feligres/feligres/app/textutil"
)

const (
	categoriasURL        = "/contabilidad/categorias"
	msgCategoriaNotFound = "Categoría no encontrada"
	msgCategoriaInvalid  = "Nombre y tipo (ingreso/egreso) son requeridos"
)

// handleCategoriasPage renders categorias grouped by tipo
func (s *Server) handleCategoriasPage(w http.ResponseWriter, r *http.Request) {
	data := struct {
		TemplateData
		Categorias []store.Categoria
	}{TemplateData: s.newTemplateData(r, "Categorías", "categorias")}

	var err error
	if data.Categorias, err = s.store.ListCategorias(r.Context(), enums.TipoTransaccion{}); err != nil {
		log.Printf("[ERROR] failed to load categorias: %v", err)
		data.Error = "Error al cargar categorías"
	}
	s.render(w, "categorias", "base.html", data)
}

// handleAPICategorias returns categorias, optionally of one tipo
func (s *Server) handleAPICategorias(w http.ResponseWriter, r *http.Request) {
	var tipo enums.TipoTransaccion
	if t := r.URL.Query().Get("tipo"); t != "" {
		var err error
		if tipo, err = enums.ParseTipoTransaccion(t); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Tipo inválido")
			return
		}
	}
	list, err := s.store.ListCategorias(r.Context(), tipo)
	if err != nil {
		log.Printf("[ERROR] failed to load categorias: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Error al cargar categorías")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleAPICategoria returns a single categoria
func (s *Server) handleAPICategoria(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := s.store.GetCategoria(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, msgCategoriaNotFound)
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to load categoria %s: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "Error al cargar la categoría")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleCategoriaCreate adds a categoria. Scripts get 201 with the record.
func (s *Server) handleCategoriaCreate(w http.ResponseWriter, r *http.Request) {
	c, ok := categoriaFromForm(r)
	if !ok {
		fail(w, r, http.StatusBadRequest, msgCategoriaInvalid, categoriasURL)
		return
	}
	if err := s.store.CreateCategoria(r.Context(), &c); err != nil {
		log.Printf("[ERROR] failed to create categoria %q: %v", c.Nombre, err)
		fail(w, r, http.StatusInternalServerError, "Error al registrar la categoría", categoriasURL)
		return
	}
	log.Printf("[INFO] categoria %s %q (%s) created", c.ID, c.Nombre, c.Tipo)
	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, c)
		return
	}
	redirectMsg(w, r, "/contabilidad", "success", "Categoría registrada exitosamente ✅")
}

// handleCategoriaUpdate overwrites nombre, tipo and descripcion
func (s *Server) handleCategoriaUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := categoriaFromForm(r)
	if !ok {
		fail(w, r, http.StatusBadRequest, msgCategoriaInvalid, categoriasURL)
		return
	}
	c.ID = id
	err := s.store.UpdateCategoria(r.Context(), &c)
	if errors.Is(err, store.ErrNotFound) {
		fail(w, r, http.StatusNotFound, msgCategoriaNotFound, categoriasURL)
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to update categoria %s: %v", id, err)
		fail(w, r, http.StatusInternalServerError, "Error al actualizar la categoría", categoriasURL)
		return
	}
	succeed(w, r, "Categoría actualizada con éxito", categoriasURL)
}

// handleCategoriaDelete removes a categoria not referenced by transacciones
func (s *Server) handleCategoriaDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !textutil.IsUUID(id) {
		fail(w, r, http.StatusBadRequest, "ID de categoría tiene un formato inválido", categoriasURL)
		return
	}
	err := s.store.DeleteCategoria(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(w, r, http.StatusNotFound, msgCategoriaNotFound, categoriasURL)
		return
	case errors.Is(err, store.ErrInUse):
		fail(w, r, http.StatusBadRequest, "No se puede eliminar la categoría porque tiene transacciones asociadas", categoriasURL)
		return
	case err != nil:
		log.Printf("[ERROR] failed to delete categoria %s: %v", id, err)
		fail(w, r, http.StatusInternalServerError, "Error al eliminar la categoría", categoriasURL)
		return
	}
	log.Printf("[INFO] categoria %s deleted", id)
	succeed(w, r, "Categoría eliminada con éxito", categoriasURL)
}

func categoriaFromForm(r *http.Request) (store.Categoria, bool) {
	c := store.Categoria{
		Nombre:      strings.TrimSpace(r.FormValue("nombre")),
		Descripcion: strings.TrimSpace(r.FormValue("descripcion")),
	}
	tipo, err := enums.ParseTipoTransaccion(strings.TrimSpace(r.FormValue("tipo")))
	if err != nil || c.Nombre == "" {
		return c, false
	}
	c.Tipo = tipo
	return c, true
}

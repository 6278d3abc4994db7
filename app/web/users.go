package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	log "github.com/go-pkgz/lgr"
	"golang.org/x/crypto/bcrypt"

	"github.com/feligres/feligres/app/store"
	"github.com/feligres/feligres/app/store/enums"
	"github.com/feligres/feligres/app/textutil"
)

const minPasswordLen = 8

type userCreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	SedeID   string `json:"sede_id"`
}

// userUpdateRequest changes only the fields present in the request
type userUpdateRequest struct {
	UserID   string  `json:"user_id"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	SedeID   *string `json:"sede_id"`
	Password string  `json:"password"`
}

// handleUsuariosPage lists users with the create and edit forms
func (s *Server) handleUsuariosPage(w http.ResponseWriter, r *http.Request) {
	data := struct {
		TemplateData
		Users []store.User
		Sedes []store.Sede
	}{TemplateData: s.newTemplateData(r, "Usuarios", "usuarios")}

	var err error
	if data.Users, err = s.store.ListUsers(r.Context()); err != nil {
		log.Printf("[ERROR] failed to load users: %v", err)
		data.Error = "Error al cargar usuarios"
	}
	if data.Sedes, err = s.store.ListSedes(r.Context()); err != nil {
		log.Printf("[WARN] failed to load sedes: %v", err)
	}
	s.render(w, "usuarios", "base.html", data)
}

// handleUserCreate adds a user account, answers {ok, user_id}
func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	req := userCreateRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	u := store.User{Email: strings.TrimSpace(req.Email), FullName: strings.TrimSpace(req.FullName),
		SedeID: strings.TrimSpace(req.SedeID), Role: enums.RoleUser}
	if !textutil.ValidEmail(u.Email) {
		writeJSONError(w, http.StatusBadRequest, "Email inválido")
		return
	}
	if len(req.Password) < minPasswordLen {
		writeJSONError(w, http.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres")
		return
	}
	if req.Role != "" {
		role, err := enums.ParseRole(req.Role)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Rol inválido")
			return
		}
		u.Role = role
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[ERROR] failed to hash password: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	u.PasswordHash = string(hash)

	err = s.store.CreateUser(r.Context(), &u)
	if errors.Is(err, store.ErrDuplicate) {
		writeJSONError(w, http.StatusBadRequest, "Ya existe un usuario con este email")
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to create user %s: %v", u.Email, err)
		writeJSONError(w, http.StatusBadRequest, "No se pudo crear el usuario")
		return
	}
	admin, _ := userFromContext(r.Context())
	log.Printf("[INFO] user %s (%s) created by %s", u.Email, u.Role, admin.Email)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user_id": u.ID})
}

// handleUserUpdate changes name, role, sede and optionally the password of a user
func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := userUpdateRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if req.UserID == "" {
		writeJSONError(w, http.StatusBadRequest, "user_id requerido")
		return
	}

	u, err := s.store.GetUser(ctx, req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to load user %s: %v", req.UserID, err)
		writeJSONError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	if req.FullName != nil {
		u.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil && *req.Role != "" {
		role, err := enums.ParseRole(*req.Role)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Rol inválido")
			return
		}
		u.Role = role
	}
	if req.SedeID != nil {
		u.SedeID = strings.TrimSpace(*req.SedeID)
	}
	u.PasswordHash = ""
	if req.Password != "" {
		if len(req.Password) < minPasswordLen {
			writeJSONError(w, http.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[ERROR] failed to hash password: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}
		u.PasswordHash = string(hash)
	}

	if err := s.store.UpdateUser(ctx, &u); err != nil {
		log.Printf("[ERROR] failed to update user %s: %v", u.ID, err)
		writeJSONError(w, http.StatusBadRequest, "No se pudo actualizar el usuario")
		return
	}
	admin, _ := userFromContext(ctx)
	log.Printf("[INFO] user %s updated by %s", u.Email, admin.Email)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

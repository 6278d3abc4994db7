package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/feligres/feligres/app/store"
)

const (
	authCookie     = "access-token"
	tokenIssuer    = "feligres"
	msgLoginNeeded = "Debe iniciar sesión para continuar"
)

type ctxUserKey struct{}

// sessionClaims is the payload of the session token
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// handleLoginForm displays the login form
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, http.StatusOK, r.URL.Query().Get("email"), r.URL.Query().Get("error"))
}

// handleLogin checks email and password and issues the session cookie
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	email, password := strings.TrimSpace(r.FormValue("email")), r.FormValue("password")
	if email == "" || password == "" {
		s.renderLogin(w, http.StatusUnauthorized, email, "Email y contraseña son requeridos")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[ERROR] failed to load user %s: %v", email, err)
		}
		s.renderLogin(w, http.StatusUnauthorized, email, "Credenciales inválidas")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("[INFO] failed login for %s", email)
		s.renderLogin(w, http.StatusUnauthorized, email, "Credenciales inválidas")
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		log.Printf("[ERROR] failed to issue token for %s: %v", email, err)
		s.renderLogin(w, http.StatusInternalServerError, email, "Error interno")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.loginTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secureCookies || r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
	})
	log.Printf("[INFO] user %s logged in", user.Email)

	back := r.FormValue("redirect")
	if !isLocalPath(back) {
		back = "/"
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// handleLogout logs the user out by clearing the auth cookie
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secureCookies || r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
	})
	w.Header().Set("HX-Refresh", "true")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, email, errMsg string) {
	tmpl := s.templates["login"]
	if tmpl == nil {
		log.Printf("[ERROR] login template not found in templates map")
		http.Error(w, "Login template not found", http.StatusInternalServerError)
		return
	}
	data := struct {
		Email   string
		Error   string
		Version string
	}{Email: email, Error: errMsg, Version: s.version}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("[ERROR] failed to render login template: %v", err)
	}
}

// authMiddleware loads the user from the session cookie or bearer token
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(authCookie); err == nil {
			token = cookie.Value
		}
		if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			token = strings.TrimSpace(bearer)
		}

		if token != "" {
			user, err := s.userFromToken(r.Context(), token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, user)))
				return
			}
			log.Printf("[DEBUG] rejected session token, %v", err)
		}

		if wantsJSON(r) {
			writeJSONError(w, http.StatusUnauthorized, "Debe iniciar sesión")
			return
		}
		http.Redirect(w, r, "/login?error="+queryEscape(msgLoginNeeded), http.StatusSeeOther)
	})
}

// adminOnly rejects users without admin role, must run after authMiddleware
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			if wantsJSON(r) || strings.HasPrefix(r.URL.Path, "/api/") {
				writeJSONError(w, http.StatusForbidden, "No autorizado - no es admin")
				return
			}
			http.Redirect(w, r, "/?error="+queryEscape("No autorizado"), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// issueToken makes a signed HS256 session token for the user
func (s *Server) issueToken(u store.User) (string, error) {
	now := s.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.loginTTL)),
		},
		Email: u.Email,
		Role:  u.Role.String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// userFromToken validates the token and loads its user, so role changes apply immediately
func (s *Server) userFromToken(ctx context.Context, token string) (store.User, error) {
	claims := sessionClaims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now), jwt.WithLeeway(time.Minute))
	if err != nil {
		return store.User{}, fmt.Errorf("invalid token: %w", err)
	}
	user, err := s.store.GetUser(ctx, claims.Subject)
	if err != nil {
		return store.User{}, fmt.Errorf("can't load user %s: %w", claims.Subject, err)
	}
	return user, nil
}

func userFromContext(ctx context.Context) (store.User, bool) {
	u, ok := ctx.Value(ctxUserKey{}).(store.User)
	return u, ok
}

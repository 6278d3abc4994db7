package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/go-pkgz/lgr"
)

// wantsJSON reports whether the caller is a script expecting a JSON answer rather than a page
func wantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// redirectMsg redirects to path with the message in the success or error query parameter
func redirectMsg(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	http.Redirect(w, r, path+sep+url.Values{key: {msg}}.Encode(), http.StatusSeeOther)
}

// fail answers scripts with a JSON error and browsers with a redirect carrying the message
func fail(w http.ResponseWriter, r *http.Request, status int, msg, redirectTo string) {
	if wantsJSON(r) {
		writeJSONError(w, status, msg)
		return
	}
	redirectMsg(w, r, redirectTo, "error", msg)
}

// succeed answers scripts with {success, message} and browsers with a redirect carrying the message
func succeed(w http.ResponseWriter, r *http.Request, msg, redirectTo string) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
		return
	}
	redirectMsg(w, r, redirectTo, "success", msg)
}

// methodOverride dispatches POST forms carrying _method=PUT or _method=DELETE
func (s *Server) methodOverride(put, del http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch strings.ToUpper(r.FormValue("_method")) {
		case http.MethodPut:
			put(w, r)
		case http.MethodDelete:
			del(w, r)
		default:
			http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
		}
	}
}

// jsonToForm exposes a flat JSON body as form values, so form handlers serve scripts too
func jsonToForm(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			next.ServeHTTP(w, r)
			return
		}

		body := map[string]any{}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeJSONError(w, http.StatusBadRequest, "JSON inválido")
			return
		}

		form := url.Values{}
		for k, v := range body {
			switch val := v.(type) {
			case nil:
			case string:
				form.Set(k, val)
			case []any:
				for _, item := range val {
					form.Add(k, fmt.Sprint(item))
				}
			default:
				form.Set(k, fmt.Sprint(val))
			}
		}
		r.Form, r.PostForm = form, form
		next.ServeHTTP(w, r)
	})
}

// isLocalPath accepts only same-site absolute paths as redirect targets
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, `\`)
}

func queryEscape(s string) string {
	return url.QueryEscape(s)
}

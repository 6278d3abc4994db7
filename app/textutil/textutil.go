// Package textutil has small text helpers for names, dates and identifiers entered in forms.
package textutil

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// connectors stay lower-case in names unless they start the name
var connectors = map[string]bool{
	"de": true, "del": true, "la": true, "las": true, "el": true, "los": true,
	"y": true, "o": true, "u": true, "a": true, "e": true,
	"da": true, "do": true, "das": true, "dos": true, "san": true, "santa": true,
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	uuidRe  = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// TitleCaseEs capitalizes every word of a Spanish name, keeping connectors like "de" or "la"
// lower-case after the first word. Only the first rune of a space-separated word is upper-cased,
// so "maría-josé" becomes "María-josé". Runs of whitespace are collapsed to a single space.
func TitleCaseEs(s string) string {
	words := strings.Fields(cases.Lower(language.Spanish).String(s))
	upper := cases.Upper(language.Spanish)
	for i, w := range words {
		if i > 0 && connectors[w] {
			continue
		}
		_, size := utf8.DecodeRuneInString(w)
		words[i] = upper.String(w[:size]) + w[size:]
	}
	return strings.Join(words, " ")
}

// Edad returns full years from fechaNacimiento (YYYY-MM-DD) to now, nil for empty or invalid dates
func Edad(fechaNacimiento string, now time.Time) *int {
	fechaNacimiento = strings.TrimSpace(fechaNacimiento)
	if fechaNacimiento == "" {
		return nil
	}
	born, err := time.Parse("2006-01-02", fechaNacimiento)
	if err != nil {
		return nil
	}
	years := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	return &years
}

// FullName joins non-empty trimmed parts with a space
func FullName(parts ...string) string {
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return strings.Join(res, " ")
}

// IsUUID checks the canonical 8-4-4-4-12 hex form
func IsUUID(s string) bool {
	return uuidRe.MatchString(s)
}

// ValidEmail does the same loose check browsers do: something@something.tld, no spaces
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// Package identity assigns the stable keys under which listings are stored.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/uppbod/pkg/listings"
)

const forbidden = `\/*?:"<>|`

// Sanitize strips path-hostile and control characters, applies NFC and trims
// surrounding whitespace.
func Sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(forbidden, r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(norm.NFC.String(s))
}

// Base returns the sanitized base identity using the default fields: the
// lot identifier when it survives sanitizing, otherwise the lot name.
func Base(l listings.Listing) string {
	return base(l, listings.FieldLotID, listings.FieldLotName)
}

func base(l listings.Listing, idField, nameField string) string {
	if v := Sanitize(l.Value(idField)); v != "" {
		return v
	}
	return Sanitize(l.Value(nameField))
}

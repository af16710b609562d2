// Package normalize converts feed values into the forms the store keeps:
// canonical ISO dates and, optionally, plain text for HTML fields.
package normalize

import (
	"strings"
	"time"

	"github.com/agentstation/uppbod/pkg/errors"
)

const (
	// DateLayout is the canonical stored date form.
	DateLayout = "2006-01-02"

	// FeedDateLayout is how the feed publishes auction dates.
	FeedDateLayout = "1/2/2006, 3:04:05 PM"
)

// Date converts a feed date to YYYY-MM-DD.
//
// Canonical input is returned unchanged. On failure the raw value comes back
// with a *errors.MalformedDateError so the caller can log it and keep going.
func Date(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if IsCanonical(s) {
		return s, nil
	}

	t, err := time.Parse(FeedDateLayout, s)
	if err != nil {
		return raw, &errors.MalformedDateError{Value: raw, Err: err}
	}
	return t.Format(DateLayout), nil
}

// IsCanonical reports whether s is a valid YYYY-MM-DD date.
func IsCanonical(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ParseCanonical returns the date for a canonical value.
func ParseCanonical(s string) (time.Time, bool) {
	if len(s) != len(DateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	return t, err == nil
}

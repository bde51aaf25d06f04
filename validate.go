package folio

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateFormat is the permissive input format for dates on the CLI surface.
const DateFormat = "2006-01-02"

// maxNoteLen bounds the free-text note fields.
const maxNoteLen = 1000

// tickerPattern matches 1-10 uppercase letters, optionally followed by a
// dot and a 1-3 letter class suffix (e.g. "AAPL", "BRK.B").
var tickerPattern = regexp.MustCompile(`^[A-Z]{1,10}(\.[A-Z]{1,3})?$`)

// NormalizeTicker trims, uppercases and validates a ticker symbol.
func NormalizeTicker(raw string) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if ticker == "" {
		return "", &ValidationError{Field: "ticker", Reason: "must not be empty"}
	}
	if !tickerPattern.MatchString(ticker) {
		return "", &ValidationError{
			Field:  "ticker",
			Reason: fmt.Sprintf("%q must be 1-10 letters optionally followed by a dot and 1-3 letters", ticker),
		}
	}
	return ticker, nil
}

func validateQuantity(q int64) error {
	if q <= 0 {
		return &ValidationError{Field: "quantity", Reason: fmt.Sprintf("%d must be greater than zero", q)}
	}
	return nil
}

func validatePrice(p Money) error {
	if !p.IsPositive() {
		return &ValidationError{Field: "price", Reason: fmt.Sprintf("%s must be greater than zero", p.Amount())}
	}
	return nil
}

func validateNote(note string) (string, error) {
	note = strings.TrimSpace(note)
	if len(note) > maxNoteLen {
		return "", &ValidationError{Field: "note", Reason: fmt.Sprintf("%d characters exceeds the %d maximum", len(note), maxNoteLen)}
	}
	return note, nil
}

// ParseWhen parses an optional timestamp: empty means now, otherwise a
// plain date or a full RFC3339 timestamp.
func ParseWhen(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(DateFormat, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, &ValidationError{
		Field:  "date",
		Reason: fmt.Sprintf("%q is neither %s nor RFC3339", s, DateFormat),
	}
}

// Slugify derives a stable watchlist id from its display name: lowercase,
// runs of non-alphanumerics collapsed to single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}

package core

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ordersheet/internal/sheetstore"
)

// The store encodes date cells as a day count since its epoch (day 0 is
// 1899-12-30, the Lotus-compatible serial date system).
var serialDateEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var imageFormulaRe = regexp.MustCompile(`^=IMAGE\("([^"]+)"\)`)

// CellString coerces a cell to a string, picking the first present
// representation among string, number, boolean and formula. An absent cell
// yields "".
func CellString(c sheetstore.Cell) string {
	switch {
	case c.String != nil:
		return *c.String
	case c.Number != nil:
		return strconv.FormatFloat(*c.Number, 'f', -1, 64)
	case c.Bool != nil:
		return strconv.FormatBool(*c.Bool)
	case c.Formula != nil:
		return *c.Formula
	}
	return ""
}

// ExtractImageURL pulls the URL argument out of an image-display formula of
// the form `=IMAGE("URL")`. Anything else, including a bare URL, yields ""
// — round trips are only stable for values written through ImageFormula.
func ExtractImageURL(text string) string {
	m := imageFormulaRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// ImageFormula wraps a URL in the store's image-display formula. An empty
// URL yields an empty cell value.
func ImageFormula(url string) string {
	if url == "" {
		return ""
	}
	return fmt.Sprintf(`=IMAGE(%q)`, url)
}

// CellDate renders a date cell. Serial numbers become "D/M" (the year is
// dropped; callers track month/year through the partition name), strings
// pass through verbatim.
func CellDate(c sheetstore.Cell) string {
	switch {
	case c.Number != nil:
		t := serialDateEpoch.Add(time.Duration(*c.Number * 24 * float64(time.Hour)))
		return fmt.Sprintf("%d/%d", t.Day(), int(t.Month()))
	case c.String != nil:
		return *c.String
	}
	return ""
}

// FormatDateForSheet renders a date the way rows store it: "D/M/YYYY",
// unpadded.
func FormatDateForSheet(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}

var (
	ddmmyyyyRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	yyyymmddRe = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
)

// ParseFlexibleDate accepts "DD/MM/YYYY" or "YYYY/MM/DD", then generic
// RFC3339-style parsing, then falls back to the current time with a logged
// warning. Results are anchored to local noon so timezone conversion cannot
// shift the calendar day.
func ParseFlexibleDate(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	if m := ddmmyyyyRe.FindStringSubmatch(s); m != nil {
		return atNoon(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := yyyymmddRe.FindStringSubmatch(s); m != nil {
		return atNoon(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return atNoon(t.Year(), int(t.Month()), t.Day())
		}
	}
	log.Printf("invalid date format %q, using current date", s)
	return time.Now()
}

func atNoon(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.Local)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ParseCurrency parses a localized currency string ("1.234.000đ") into an
// integer amount by stripping every character except digits and a leading
// minus. Empty or unparseable input yields 0.
func ParseCurrency(s string) int64 {
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' || (r == '-' && i == 0) {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

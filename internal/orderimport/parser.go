// Package orderimport turns marketplace order exports into order records and
// writes the tracking upload file the marketplace accepts back.
package orderimport

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"tcg-labeler/internal/model"
)

// Header keys matched against the export's header row.
const (
	KeyFirstName   = "FirstName"
	KeyLastName    = "LastName"
	KeyAddress1    = "Address1"
	KeyAddress2    = "Address2"
	KeyCity        = "City"
	KeyState       = "State"
	KeyPostalCode  = "PostalCode"
	KeyWeight      = "Product Weight"
	KeyOrderNumber = "Order #"
)

const utf8BOM = "\ufeff"

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// columns holds the resolved index of each field, -1 when the header is absent.
type columns struct {
	firstName, lastName, address1, address2 int
	city, state, postalCode, weight         int
	orderNumber                             int
}

// Parse converts the text of an export into order records. The first non-empty
// line is the header. Lines are split on commas without any quote handling, so
// a quoted value containing a comma shifts the remaining columns of that row.
func Parse(text string) []model.OrderRecord {
	lines := splitLines(strings.TrimPrefix(text, utf8BOM))
	if len(lines) == 0 {
		return []model.OrderRecord{}
	}

	cols := resolveColumns(strings.Split(lines[0], ","))

	orders := make([]model.OrderRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		orders = append(orders, parseRow(line, cols))
	}
	return orders
}

// ParseReader reads the whole export from r and parses it.
func ParseReader(r io.Reader) ([]model.OrderRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read order export: %w", err)
	}
	return Parse(string(data)), nil
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func resolveColumns(headers []string) columns {
	return columns{
		firstName:   headerIndex(headers, KeyFirstName),
		lastName:    headerIndex(headers, KeyLastName),
		address1:    headerIndex(headers, KeyAddress1),
		address2:    headerIndex(headers, KeyAddress2),
		city:        headerIndex(headers, KeyCity),
		state:       headerIndex(headers, KeyState),
		postalCode:  headerIndex(headers, KeyPostalCode),
		weight:      headerIndex(headers, KeyWeight),
		orderNumber: headerIndex(headers, KeyOrderNumber),
	}
}

// headerIndex returns the first header that contains key, ignoring case and
// whitespace, or -1.
func headerIndex(headers []string, key string) int {
	needle := foldHeader(key)
	for i, h := range headers {
		if strings.Contains(foldHeader(h), needle) {
			return i
		}
	}
	return -1
}

func foldHeader(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

func parseRow(line string, cols columns) model.OrderRecord {
	raw := strings.Split(line, ",")
	values := make([]string, len(raw))
	for i, v := range raw {
		values[i] = cleanValue(v)
	}

	at := func(idx int) string {
		if idx < 0 || idx >= len(values) {
			return ""
		}
		return values[idx]
	}

	return model.OrderRecord{
		Name:        strings.TrimSpace(at(cols.firstName) + " " + at(cols.lastName)),
		Address1:    at(cols.address1),
		Address2:    at(cols.address2),
		City:        at(cols.city),
		State:       at(cols.state),
		Zip:         at(cols.postalCode),
		Weight:      parseWeight(at(cols.weight)),
		OrderNumber: at(cols.orderNumber),
	}
}

func cleanValue(v string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(v), `"`))
}

// parseWeight reads the leading number of v ("2.5 oz" is 2.5). Anything that
// does not start with a finite number yields 1.
func parseWeight(v string) float64 {
	m := leadingFloat.FindString(v)
	if m == "" {
		return 1
	}
	w, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
		return 1
	}
	return w
}

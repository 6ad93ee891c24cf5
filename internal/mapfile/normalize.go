package mapfile

// normalize.go holds the compute functions that clean up spreadsheet-style
// input: dates in mixed layouts, money with currency symbols and accounting
// negatives, loose booleans, and US state names.
//
// Empty input always yields empty output. Input that cannot be parsed is an
// error, which aborts the run with the row and field attached.

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// numericRegex matches integers, decimals and scientific notation after
// cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot is how many years into the future a two-digit year may
// land before it is moved back a century.
var TwoDigitYearPivot = 20

// DefaultDateLayout is the output layout of the date function.
const DefaultDateLayout = "2006-01-02"

// Four-digit layouts are tried first since they are unambiguous.
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// now is replaced in tests.
var now = time.Now

// parseDate parses s with the known layouts.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeDate rewrites a date in the "layout" param (default ISO).
func normalizeDate(args []string, params map[string]string) (string, error) {
	s := strings.TrimSpace(args[0])
	if s == "" {
		return "", nil
	}

	layout := params["layout"]
	if layout == "" {
		layout = DefaultDateLayout
	}

	t, ok := parseDate(s)
	if !ok {
		return "", fmt.Errorf("unrecognized date %q", s)
	}
	return t.Format(layout), nil
}

// normalizeNumber strips currency symbols and thousands separators and turns
// "(12.50)" into "-12.50".
func normalizeNumber(args []string, _ map[string]string) (string, error) {
	s := strings.TrimSpace(args[0])
	if s == "" {
		return "", nil
	}
	orig := s

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return "", fmt.Errorf("invalid number %q", orig)
	}
	return s, nil
}

// normalizeBool maps true/false, yes/no, t/f, y/n and 1/0 to the "yes" and
// "no" params (default "true" and "false").
func normalizeBool(args []string, params map[string]string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(args[0]))
	if s == "" {
		return "", nil
	}

	yes, no := "true", "false"
	if v, ok := params["yes"]; ok {
		yes = v
	}
	if v, ok := params["no"]; ok {
		no = v
	}

	switch s {
	case "true", "t", "yes", "y", "1":
		return yes, nil
	case "false", "f", "no", "n", "0":
		return no, nil
	default:
		return "", fmt.Errorf("invalid boolean %q", args[0])
	}
}

// usStates maps US state names to their abbreviations.
var usStates = map[string]string{
	"alabama":        "AL",
	"alaska":         "AK",
	"arizona":        "AZ",
	"arkansas":       "AR",
	"california":     "CA",
	"colorado":       "CO",
	"connecticut":    "CT",
	"delaware":       "DE",
	"florida":        "FL",
	"georgia":        "GA",
	"hawaii":         "HI",
	"idaho":          "ID",
	"illinois":       "IL",
	"indiana":        "IN",
	"iowa":           "IA",
	"kansas":         "KS",
	"kentucky":       "KY",
	"louisiana":      "LA",
	"maine":          "ME",
	"maryland":       "MD",
	"massachusetts":  "MA",
	"michigan":       "MI",
	"minnesota":      "MN",
	"mississippi":    "MS",
	"missouri":       "MO",
	"montana":        "MT",
	"nebraska":       "NE",
	"nevada":         "NV",
	"new hampshire":  "NH",
	"new jersey":     "NJ",
	"new mexico":     "NM",
	"new york":       "NY",
	"north carolina": "NC",
	"north dakota":   "ND",
	"ohio":           "OH",
	"oklahoma":       "OK",
	"oregon":         "OR",
	"pennsylvania":   "PA",
	"rhode island":   "RI",
	"south carolina": "SC",
	"south dakota":   "SD",
	"tennessee":      "TN",
	"texas":          "TX",
	"utah":           "UT",
	"vermont":        "VT",
	"virginia":       "VA",
	"washington":     "WA",
	"west virginia":  "WV",
	"wisconsin":      "WI",
	"wyoming":        "WY",
}

// normalizeUSState abbreviates a US state name. Codes and unknown values
// pass through trimmed, codes upper-cased.
func normalizeUSState(args []string, _ map[string]string) (string, error) {
	s := strings.TrimSpace(args[0])
	if code, ok := usStates[strings.ToLower(s)]; ok {
		return code, nil
	}

	upper := strings.ToUpper(s)
	for _, code := range usStates {
		if upper == code {
			return code, nil
		}
	}
	return s, nil
}

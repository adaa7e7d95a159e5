package catalog

// coerce.go turns spreadsheet text into typed field values.
//
// Uploads are hand-edited exports, so the parsers tolerate:
//   - Excel formula wrappers (="00123")
//   - currency symbols, thousands separators and accounting negatives
//   - integers written as decimals ("12.0")
//   - several date and date-time layouts, US month-first
//
// Anything that still does not parse is reported as absent. Coercion never
// fails a row.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates a number after currency and separator cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// meridiemRegex matches a trailing am/pm marker in any case, with or without dots.
var meridiemRegex = regexp.MustCompile(`(?i)\s*([ap])\.?\s*m\.?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are moved
// to the previous century.
var TwoDigitYearPivot = 20

// truthy is the complete set of accepted boolean spellings. There is no
// falsy set: anything else is absent.
var truthy = map[string]bool{
	"true": true,
	"1":    true,
	"yes":  true,
	"y":    true,
}

// Timestamp layouts, most specific first. The first layout that parses wins.
var (
	fourDigitYearLayouts = []string{
		// date + time + AM/PM
		"1/2/2006 3:04:05 PM",
		"1/2/2006 3:04 PM",
		"1-2-2006 3:04:05 PM",
		"1-2-2006 3:04 PM",
		"2006-01-02 3:04:05 PM",
		"2006-01-02 3:04 PM",
		"Jan 2, 2006 3:04 PM",
		// date + 24h time
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		// date only
		"1/2/2006", "1-2-2006", "1.2.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006",
		"20060102",
	}
	twoDigitYearLayouts = []string{
		"1/2/06 3:04:05 PM",
		"1/2/06 3:04 PM",
		"1/2/06 15:04",
		"1/2/06", "1-2-06", "1.2.06",
	}
)

// CleanCell removes common spreadsheet artifacts from a cell:
// surrounding whitespace, the Excel formula wrapper ="..." and a pair of
// enclosing double quotes. Quotes that are not paired (inch marks) are kept.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	return strings.TrimSpace(s)
}

// Coerce converts raw cell text into a value of f's declared type.
// ok is false when the text is blank or cannot be interpreted.
func Coerce(f Field, text string) (Value, bool) {
	s := CleanCell(text)
	if s == "" {
		return Value{}, false
	}

	switch f.Type() {
	case TypeFloat:
		n, ok := ParseFloat(s)
		if !ok {
			return Value{}, false
		}
		return FloatValue(n), true
	case TypeInteger:
		n, ok := ParseInt(s)
		if !ok {
			return Value{}, false
		}
		return IntValue(n), true
	case TypeBoolean:
		if !ParseTruthy(s) {
			return Value{}, false
		}
		return BoolValue(true), true
	case TypeTimestamp:
		t, ok := ParseTimestamp(s)
		if !ok {
			return Value{}, false
		}
		return TimeValue(t), true
	case TypeTextSet:
		members := SplitFacets(s)
		if len(members) == 0 {
			return Value{}, false
		}
		return SetValue(members...), true
	default:
		return TextValue(s), true
	}
}

// cleanNumber strips currency symbols and thousands separators and rewrites
// accounting negatives "(12.50)" as "-12.50".
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}
	return s
}

// ParseFloat parses a decimal number. NaN and infinities are rejected.
func ParseFloat(s string) (float64, bool) {
	s = cleanNumber(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ParseInt parses an integer, accepting decimal spellings truncated toward zero.
func ParseInt(s string) (int64, bool) {
	s = cleanNumber(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// ParseTruthy reports whether s is one of the accepted true spellings.
func ParseTruthy(s string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(s))]
}

// ParseTimestamp tries every known layout in order. Results are UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}
	if strings.Contains(s, ":") {
		s = meridiemRegex.ReplaceAllStringFunc(s, func(m string) string {
			sub := meridiemRegex.FindStringSubmatch(m)
			return " " + strings.ToUpper(sub[1]) + "M"
		})
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

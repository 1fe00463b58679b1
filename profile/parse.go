package profile

import (
	"strconv"
	"strings"
	"time"
)

// Date layouts observed in the BankFind data. The ISO form comes from
// newer endpoints, the slash forms from the historical failures data.
var dateFormats = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"01/02/06",
}

// hasLeadingZeros checks if a valid integer value contains leading zeros.
// This is often an indicator that this is not an integer, but an
// identifier (ZIP codes, certificate numbers).
func hasLeadingZeros(s string) bool {
	return len(s) > 1 && s[0] == '0'
}

func ParseBool(s string) (bool, bool) {
	s = strings.TrimSpace(s)

	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, false
	}

	return b, true
}

func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)

	for _, layout := range dateFormats {
		if v, err := time.Parse(layout, s); err == nil {
			return v, true
		}
	}

	return time.Time{}, false
}

func ParseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func ParseInt(s string) (int64, bool) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

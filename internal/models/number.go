package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a lenient numeric field. Records in the document store are
// written by forms that sometimes persist strings, so decoding accepts JSON
// numbers, numeric strings and null; anything else becomes zero rather than
// failing the whole document.
type Number float64

// Float returns the value as float64.
func (n Number) Float() float64 {
	return float64(n)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(raw []byte) error {
	*n = ParseNumber(raw)
	return nil
}

// ParseNumber coerces a raw JSON value to a Number.
func ParseNumber(raw []byte) Number {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		return parseNumberString(s)
	}
	return parseNumberString(string(raw))
}

func parseNumberString(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return Number(v)
}

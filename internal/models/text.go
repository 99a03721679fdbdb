package models

import (
	"bytes"
	"encoding/json"
)

// Text is a lenient string field. Legacy documents sometimes hold numbers or
// booleans where text is expected; those keep their literal form, and null,
// objects and arrays decode to an empty string.
type Text string

// String returns the plain string value.
func (t Text) String() string {
	return string(t)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(raw []byte) error {
	*t = ParseText(raw)
	return nil
}

// ParseText coerces a raw JSON value to Text.
func ParseText(raw []byte) Text {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return Text(s)
	case '{', '[', 'n':
		return ""
	default:
		return Text(raw)
	}
}

package classifier

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// leadingNumber matches the numeric prefix of values like "39.5C" or "120 bpm"
var leadingNumber = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?`)

// ReadingState tells apart a missing vital sign from one that could not be read
type ReadingState int

const (
	ReadingAbsent ReadingState = iota
	ReadingValid
	ReadingUnparseable
)

func (s ReadingState) String() string {
	switch s {
	case ReadingAbsent:
		return "absent"
	case ReadingValid:
		return "valid"
	case ReadingUnparseable:
		return "unparseable"
	default:
		return "unknown"
	}
}

// Reading is a single optional numeric vital sign
type Reading struct {
	State ReadingState
	Value float64
}

// Vitals carries the optional vital signs used by diagnosis assistance.
// Temperature is in Celsius.
type Vitals struct {
	Temperature           Reading `json:"temperature"`
	BloodPressureSystolic Reading `json:"bloodPressureSystolic"`
	HeartRate             Reading `json:"heartRate"`
}

// ValidReading wraps a known value
func ValidReading(v float64) Reading {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Reading{State: ReadingUnparseable}
	}
	return Reading{State: ReadingValid, Value: v}
}

// ParseReading parses a loosely typed textual value such as "38.5". Only the
// leading number is read, so units after it ("39.5C", "120 bpm") are ignored.
func ParseReading(s string) Reading {
	s = strings.TrimSpace(s)
	if s == "" {
		return Reading{State: ReadingAbsent}
	}
	num := leadingNumber.FindString(s)
	if num == "" {
		return Reading{State: ReadingUnparseable}
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Reading{State: ReadingUnparseable}
	}
	return ValidReading(v)
}

// Above reports whether the reading is valid and strictly greater than limit.
// Absent and unparseable readings never exceed anything.
func (r Reading) Above(limit float64) bool {
	return r.State == ReadingValid && r.Value > limit
}

// UnmarshalJSON accepts numbers, numeric strings and null. Any other JSON
// value is kept as an unparseable reading rather than rejected.
func (r *Reading) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Reading{State: ReadingAbsent}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*r = Reading{State: ReadingUnparseable}
			return nil
		}
		*r = ParseReading(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			*r = Reading{State: ReadingUnparseable}
			return nil
		}
		*r = ValidReading(v)
	default:
		*r = Reading{State: ReadingUnparseable}
	}
	return nil
}

// MarshalJSON writes valid readings as numbers and everything else as null
func (r Reading) MarshalJSON() ([]byte, error) {
	if r.State != ReadingValid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// Any reports whether at least one reading is usable
func (v *Vitals) Any() bool {
	if v == nil {
		return false
	}
	return v.Temperature.State == ReadingValid ||
		v.BloodPressureSystolic.State == ReadingValid ||
		v.HeartRate.State == ReadingValid
}

package shipment

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a form value that may arrive as a JSON number, a numeric string,
// an empty string or null. Anything unparseable decodes to zero.
type Number float64

// UnmarshalJSON never fails on malformed numeric input.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*n = 0
			return nil
		}
		*n = Number(ParseNumber(s))
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(finite(f))
	return nil
}

// Float returns the value with NaN and infinities mapped to zero.
func (n Number) Float() float64 {
	return finite(float64(n))
}

// NonNegative clamps negatives to zero.
func (n Number) NonNegative() float64 {
	f := n.Float()
	if f < 0 {
		return 0
	}
	return f
}

// ParseNumber coerces free-form input such as "1,250.50" or " 3 " to a float.
// Invalid input yields 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

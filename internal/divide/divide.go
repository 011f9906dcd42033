// Package divide implements the division example carried by rustmd documents:
// a float quotient with an explicit failure for a zero denominator.
package divide

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// ErrDivisionByZero is returned when the denominator compares equal to zero.
// The message is user-facing and fixed.
var ErrDivisionByZero = errors.New("Cannot divide by zero")

// Divide returns numerator / denominator.
// Only an exact zero denominator (including -0) is rejected; infinities and NaN
// follow IEEE-754 division.
func Divide(numerator, denominator float64) (float64, error) {
	if denominator != 0 {
		return numerator / denominator, nil
	}
	return 0, ErrDivisionByZero
}

// Result is the outcome of a division: either a quotient or an error.
type Result struct {
	Value float64
	Err   error
}

// Compute runs Divide and captures its outcome.
func Compute(numerator, denominator float64) Result {
	v, err := Divide(numerator, denominator)
	return Result{Value: v, Err: err}
}

// Ok reports whether r holds a quotient.
func (r Result) Ok() bool {
	return r.Err == nil
}

// Quotient unpacks r into the usual (value, error) pair.
func (r Result) Quotient() (float64, error) {
	return r.Value, r.Err
}

// String formats the quotient, or the error message on failure.
func (r Result) String() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return formatFloat(r.Value)
}

type resultJSON struct {
	Ok    bool            `json:"ok"`
	Value json.RawMessage `json:"value,omitempty"`
	Error string          `json:"error,omitempty"`
}

// MarshalJSON encodes non-finite quotients as strings since JSON numbers
// cannot represent them.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(resultJSON{Ok: false, Error: r.Err.Error()})
	}
	var raw []byte
	if math.IsInf(r.Value, 0) || math.IsNaN(r.Value) {
		raw = []byte(strconv.Quote(formatFloat(r.Value)))
	} else {
		raw = []byte(formatFloat(r.Value))
	}
	return json.Marshal(resultJSON{Ok: true, Value: raw})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

package divide

import (
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDivide(t *testing.T) {
	tests := []struct {
		name        string
		numerator   float64
		denominator float64
		want        float64
		wantErr     error
	}{
		{name: "exact quotient", numerator: 10, denominator: 2, want: 5},
		{name: "negative denominator", numerator: 9, denominator: -3, want: -3},
		{name: "fractional", numerator: 1, denominator: 4, want: 0.25},
		{name: "zero numerator", numerator: 0, denominator: 5, want: 0},
		{name: "positive zero", numerator: 7, denominator: 0, wantErr: ErrDivisionByZero},
		{name: "negative numerator by zero", numerator: -7, denominator: 0, wantErr: ErrDivisionByZero},
		{name: "negative zero", numerator: 7, denominator: math.Copysign(0, -1), wantErr: ErrDivisionByZero},
		{name: "zero by zero", numerator: 0, denominator: 0, wantErr: ErrDivisionByZero},
		{name: "infinity by zero", numerator: math.Inf(1), denominator: 0, wantErr: ErrDivisionByZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Divide(tt.numerator, tt.denominator)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "Cannot divide by zero", err.Error())
				assert.Zero(t, got)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestDivide_NonFiniteInputsAreNotErrors(t *testing.T) {
	got, err := Divide(math.Inf(1), 2)
	require.NoError(t, err)
	assert.True(t, math.IsInf(got, 1))

	got, err = Divide(1, math.Inf(-1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = Divide(math.NaN(), 3)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got))

	// NaN never compares equal to zero.
	got, err = Divide(1, math.NaN())
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got))
}

func TestDivide_MatchesOperator(t *testing.T) {
	values := []float64{-1e300, -12.5, -1, -1e-300, 1e-300, 0.1, 1, 3, 1e300}
	for _, n := range append(values, 0) {
		for _, d := range values {
			got, err := Divide(n, d)
			require.NoError(t, err)
			assert.Equal(t, n/d, got, "%g / %g", n, d)
		}
	}
}

func TestDivide_Idempotent(t *testing.T) {
	first := Compute(22, 7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Compute(22, 7))
	}

	failed := Compute(1, 0)
	for i := 0; i < 100; i++ {
		again := Compute(1, 0)
		assert.True(t, errors.Is(again.Err, failed.Err))
	}
}

func TestDivide_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 1; i <= 32; i++ {
		wg.Add(1)
		go func(d float64) {
			defer wg.Done()
			got, err := Divide(64, d)
			assert.NoError(t, err)
			assert.Equal(t, 64/d, got)
		}(float64(i))
	}
	wg.Wait()
}

func TestResult(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := Compute(10, 2)
		assert.True(t, r.Ok())
		v, err := r.Quotient()
		require.NoError(t, err)
		assert.Equal(t, 5.0, v)
		assert.Equal(t, "5", r.String())
	})

	t.Run("failure", func(t *testing.T) {
		r := Compute(7, 0)
		assert.False(t, r.Ok())
		_, err := r.Quotient()
		assert.ErrorIs(t, err, ErrDivisionByZero)
		assert.Equal(t, "Cannot divide by zero", r.String())
	})
}

func TestResult_MarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{name: "quotient", result: Compute(10, 2), want: `{"ok":true,"value":5}`},
		{name: "fraction", result: Compute(1, 8), want: `{"ok":true,"value":0.125}`},
		{name: "zero quotient", result: Compute(0, 8), want: `{"ok":true,"value":0}`},
		{name: "division by zero", result: Compute(7, 0), want: `{"ok":false,"error":"Cannot divide by zero"}`},
		{name: "positive infinity", result: Compute(math.Inf(1), 1), want: `{"ok":true,"value":"+Inf"}`},
		{name: "negative infinity", result: Compute(math.Inf(-1), 1), want: `{"ok":true,"value":"-Inf"}`},
		{name: "nan", result: Compute(math.NaN(), 1), want: `{"ok":true,"value":"NaN"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.result)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

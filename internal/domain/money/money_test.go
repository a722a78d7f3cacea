package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
		err      error
	}{
		{name: "WholeAmount", input: "40", expected: 4000},
		{name: "TwoDecimalPlaces", input: "40.25", expected: 4025},
		{name: "OneDecimalPlace", input: "0.5", expected: 50},
		{name: "Zero", input: "0", expected: 0},
		{name: "Negative", input: "-12.34", expected: -1234},
		{name: "TrailingZeros", input: "1.10", expected: 110},
		{name: "SubCentPrecision", input: "1.005", err: ErrTooPrecise},
		{name: "ManyDecimalPlaces", input: "0.000001", err: ErrTooPrecise},
		{name: "OutOfRange", input: "99999999999999999999", err: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.input)
			require.NoError(t, err)

			minor, err := ToMinorUnits(d)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, minor)
		})
	}
}

func TestPositiveMinorUnits(t *testing.T) {
	t.Run("Positive", func(t *testing.T) {
		minor, err := PositiveMinorUnits(decimal.RequireFromString("10.50"))
		require.NoError(t, err)
		assert.Equal(t, int64(1050), minor)
	})

	t.Run("Zero", func(t *testing.T) {
		_, err := PositiveMinorUnits(decimal.Zero)
		assert.ErrorIs(t, err, ErrNotPositive)
	})

	t.Run("Negative", func(t *testing.T) {
		_, err := PositiveMinorUnits(decimal.RequireFromString("-1"))
		assert.ErrorIs(t, err, ErrNotPositive)
	})

	t.Run("TooPrecise", func(t *testing.T) {
		_, err := PositiveMinorUnits(decimal.RequireFromString("1.001"))
		assert.ErrorIs(t, err, ErrTooPrecise)
	})
}

func TestFromMinorUnits(t *testing.T) {
	assert.Equal(t, "40.25", FromMinorUnits(4025).String())
	assert.Equal(t, "0", FromMinorUnits(0).String())
	assert.Equal(t, "-12.34", FromMinorUnits(-1234).String())
}

package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arledger/arledger/internal/apperrors"
	"github.com/arledger/arledger/internal/core/domain"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    domain.Amount
		wantErr bool
	}{
		{name: "integer", input: "100", want: 10000},
		{name: "two decimals", input: "123.45", want: 12345},
		{name: "one decimal", input: "0.5", want: 50},
		{name: "negative", input: "-12.30", want: -1230},
		{name: "zero", input: "0", want: 0},
		{name: "three decimals rejected", input: "1.005", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseAmount(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmountFromDecimal_RejectsSubCentPrecision(t *testing.T) {
	_, err := domain.AmountFromDecimal(decimal.RequireFromString("4.931"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "123.45", domain.Amount(12345).String())
	assert.Equal(t, "-12.30", domain.Amount(-1230).String())
	assert.Equal(t, "0.00", domain.Amount(0).String())
	assert.Equal(t, "0.05", domain.Amount(5).String())
}

func TestAmountDecimalRoundTrip(t *testing.T) {
	a := domain.Amount(99999)
	back, err := domain.AmountFromDecimal(a.Decimal())
	require.NoError(t, err)
	assert.Equal(t, a, back)
}

func TestAmountHelpers(t *testing.T) {
	assert.Equal(t, domain.Amount(-5), domain.Amount(5).Neg())
	assert.Equal(t, domain.Amount(5), domain.Amount(-5).Abs())
	assert.Equal(t, domain.Amount(5), domain.Amount(5).Abs())
	assert.True(t, domain.Amount(0).IsZero())
	assert.True(t, domain.Amount(1).IsPositive())
	assert.True(t, domain.Amount(-1).IsNegative())
	assert.Equal(t, domain.Amount(3), domain.Amount(3).Min(7))
	assert.Equal(t, domain.Amount(3), domain.Amount(7).Min(3))
}

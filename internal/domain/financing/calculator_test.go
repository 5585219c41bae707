package financing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealership/backend/internal/domain/shared"
)

func TestQuoteLoanThreeYears(t *testing.T) {
	quote, err := QuoteLoan(decimal.NewFromInt(1_000_000), 3)
	require.NoError(t, err)

	assert.True(t, quote.DownPayment.Equal(decimal.NewFromInt(200_000)), "down payment: %s", quote.DownPayment)
	assert.True(t, quote.LoanAmount.Equal(decimal.NewFromInt(800_000)), "loan amount: %s", quote.LoanAmount)
	assert.True(t, quote.MonthlyInterest.Equal(decimal.NewFromInt(10_880)), "monthly interest: %s", quote.MonthlyInterest)
	assert.True(t, quote.TotalInterest.Equal(decimal.NewFromInt(391_680)), "total interest: %s", quote.TotalInterest)
	assert.True(t, quote.TotalPayment.Equal(decimal.NewFromInt(1_391_680)), "total payment: %s", quote.TotalPayment)

	expectedPrincipal := decimal.NewFromInt(800_000).Div(decimal.NewFromInt(36))
	assert.True(t, quote.MonthlyPrincipal.Equal(expectedPrincipal))
	assert.True(t, quote.MonthlyPayment.Equal(expectedPrincipal.Add(decimal.NewFromInt(10_880))))
}

func TestQuoteLoanRoundTrip(t *testing.T) {
	prices := []string{"1000000", "359999.99", "123456.78", "0.03"}

	for _, p := range prices {
		price := decimal.RequireFromString(p)
		for years := MinYears; years <= MaxYears; years++ {
			quote, err := QuoteLoan(price, years)
			require.NoError(t, err)

			// The split conserves the price exactly.
			assert.True(t, quote.LoanAmount.Add(quote.DownPayment).Equal(price),
				"price=%s years=%d", p, years)

			// Total payment decomposes exactly as well.
			assert.True(t, quote.TotalPayment.Equal(quote.LoanAmount.Add(quote.TotalInterest).Add(quote.DownPayment)),
				"price=%s years=%d", p, years)
		}
	}
}

func TestQuoteLoanRatesAscendWithTerm(t *testing.T) {
	prev := decimal.Zero
	for years := MinYears; years <= MaxYears; years++ {
		rate, ok := MonthlyRate(years)
		require.True(t, ok)
		assert.True(t, rate.GreaterThan(prev), "rate for %d years should exceed %s", years, prev)
		prev = rate
	}
}

func TestQuoteLoanValidation(t *testing.T) {
	cases := []struct {
		name  string
		price decimal.Decimal
		years int
	}{
		{"zero price", decimal.Zero, 3},
		{"negative price", decimal.NewFromInt(-100), 3},
		{"zero years", decimal.NewFromInt(100_000), 0},
		{"too long", decimal.NewFromInt(100_000), 6},
		{"negative years", decimal.NewFromInt(100_000), -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QuoteLoan(tc.price, tc.years)
			require.Error(t, err)
			var derr *shared.DomainError
			require.True(t, errors.As(err, &derr))
			assert.Equal(t, shared.CodeValidation, derr.Code)
		})
	}
}

package financing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dealership/backend/internal/domain/shared"
)

// monthlyRates is the fixed simple monthly rate per loan term in years.
var monthlyRates = map[int]decimal.Decimal{
	1: decimal.RequireFromString("0.0125"),
	2: decimal.RequireFromString("0.0130"),
	3: decimal.RequireFromString("0.0136"),
	4: decimal.RequireFromString("0.0142"),
	5: decimal.RequireFromString("0.0150"),
}

// downPaymentRatio is the fixed upfront share of the car price.
var downPaymentRatio = decimal.RequireFromString("0.20")

// MinYears and MaxYears bound the supported loan terms.
const (
	MinYears = 1
	MaxYears = 5
)

// Quote is the result of a financing calculation. All values are exact
// decimals; rounding happens only at the presentation boundary.
type Quote struct {
	Price            decimal.Decimal `json:"price"`
	Years            int             `json:"years"`
	MonthlyRate      decimal.Decimal `json:"monthly_rate"`
	DownPayment      decimal.Decimal `json:"down_payment"`
	LoanAmount       decimal.Decimal `json:"loan_amount"`
	MonthlyPrincipal decimal.Decimal `json:"monthly_principal"`
	MonthlyInterest  decimal.Decimal `json:"monthly_interest"`
	MonthlyPayment   decimal.Decimal `json:"monthly_payment"`
	TotalInterest    decimal.Decimal `json:"total_interest"`
	TotalPayment     decimal.Decimal `json:"total_payment"`
}

// QuoteLoan computes a financing quote for the given car price and loan
// term. Interest is simple and non-amortizing: every month pays the
// same principal slice plus the same interest on the full loan amount.
func QuoteLoan(price decimal.Decimal, years int) (*Quote, error) {
	if !price.IsPositive() {
		return nil, shared.NewValidationError("price must be positive")
	}
	rate, ok := monthlyRates[years]
	if !ok {
		return nil, shared.NewValidationError(fmt.Sprintf(
			"loan term must be between %d and %d years", MinYears, MaxYears,
		))
	}

	months := decimal.NewFromInt(int64(years * 12))
	downPayment := price.Mul(downPaymentRatio)
	loanAmount := price.Sub(downPayment)
	monthlyPrincipal := loanAmount.Div(months)
	monthlyInterest := loanAmount.Mul(rate)
	totalInterest := monthlyInterest.Mul(months)

	return &Quote{
		Price:            price,
		Years:            years,
		MonthlyRate:      rate,
		DownPayment:      downPayment,
		LoanAmount:       loanAmount,
		MonthlyPrincipal: monthlyPrincipal,
		MonthlyInterest:  monthlyInterest,
		MonthlyPayment:   monthlyPrincipal.Add(monthlyInterest),
		TotalInterest:    totalInterest,
		TotalPayment:     loanAmount.Add(totalInterest).Add(downPayment),
	}, nil
}

// MonthlyRate returns the rate for a term, if supported.
func MonthlyRate(years int) (decimal.Decimal, bool) {
	rate, ok := monthlyRates[years]
	return rate, ok
}

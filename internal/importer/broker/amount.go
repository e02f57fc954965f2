package broker

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parseEuropeanAmount parses amounts written with "." thousands and "," decimals,
// e.g. "1.234,56", "-588,74", "10,00 €". The value is kept exact.
func parseEuropeanAmount(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "€"))
	clean = strings.ReplaceAll(clean, " ", "")
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}

	return d, nil
}

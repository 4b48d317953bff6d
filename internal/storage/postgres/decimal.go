package postgres

import "github.com/shopspring/decimal"

// decimalFromColumn разбирает NUMERIC-колонку, отсканированную как строку.
func decimalFromColumn(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(raw)
}

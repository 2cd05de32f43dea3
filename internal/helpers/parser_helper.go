package helpers

import (
	"strconv"

	"github.com/shopspring/decimal"
)

func StringToInt(s string) (int, error) {
	return strconv.Atoi(s)
}

func StringToDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

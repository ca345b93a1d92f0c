// Package money переводит суммы тарифов между десятичным видом и минимальными единицами валюты.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency валюта всех платежей WatchHub.
const Currency = "USD"

// ErrNonPositive сумма должна быть больше нуля.
var ErrNonPositive = errors.New("amount must be positive")

// Parse разбирает сумму из строки и проверяет, что она положительна.
func Parse(s string) (decimal.Decimal, error) {
	const op = "money.Parse"
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s: %w", op, ErrNonPositive)
	}
	return d, nil
}

// ToCents возвращает сумму в центах с округлением до ближайшего.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromCents обратное преобразование для сумм, пришедших от провайдера.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format возвращает сумму с двумя знаками после запятой, как ее ждет PayPal.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Equal сравнивает суммы с точностью до цента.
func Equal(a, b decimal.Decimal) bool {
	return ToCents(a) == ToCents(b)
}

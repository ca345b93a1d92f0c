package models

import "github.com/shopspring/decimal"

// Plan тариф подписки, справочные данные.
type Plan struct {
	ID               int             `json:"id"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	MaxReproductions int             `json:"max_reproductions"`
	Description      string          `json:"description"`
}

package valueobject

import (
	"fmt"
	"math"
	"strings"

	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
)

const DefaultCurrency = "INR"

type Money struct {
	Amount   float64
	Currency string
}

func NewMoney(amount float64, currency string) (Money, error) {
	if !isFinite(amount) {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "сумма должна быть числом")
	}
	if amount < 0 {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "код валюты должен состоять из трёх букв")
	}
	return Money{Amount: amount, Currency: currency}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %.2f", m.Currency, m.Amount)
}

// PriceRange: фильтр цены при поиске объявлений; нулевая граница означает отсутствие ограничения.
type PriceRange struct {
	Min *float64
	Max *float64
}

func NewPriceRange(min, max *float64) (PriceRange, error) {
	if (min != nil && !isFinite(*min)) || (max != nil && !isFinite(*max)) {
		return PriceRange{}, apperror.New(apperror.ErrCodeValidation, "цена должна быть числом")
	}
	if (min != nil && *min < 0) || (max != nil && *max < 0) {
		return PriceRange{}, apperror.New(apperror.ErrCodeValidation, "цена не может быть отрицательной")
	}
	if min != nil && max != nil && *min > *max {
		return PriceRange{}, apperror.New(apperror.ErrCodeValidation, "минимальная цена не может превышать максимальную")
	}
	return PriceRange{Min: min, Max: max}, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

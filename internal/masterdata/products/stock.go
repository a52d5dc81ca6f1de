package products

import (
	"fmt"
	"math"

	internalShared "github.com/tonica-music/catalog/internal/shared"
)

// StockMode selects how a stock quantity is applied.
type StockMode string

const (
	StockIncrement StockMode = "increment"
	StockDecrement StockMode = "decrement"
	StockSet       StockMode = "set"
)

// MaxStock is the largest quantity the stock column holds.
const MaxStock = math.MaxInt32

// ApplyStock computes the new quantity. Decrements floor at zero.
func ApplyStock(current, quantity int, mode StockMode) (int, error) {
	if quantity < 0 {
		return 0, fmt.Errorf("%w: stock quantity must not be negative", internalShared.ErrValidation)
	}
	if quantity > MaxStock {
		return 0, fmt.Errorf("%w: stock quantity %d is out of range", internalShared.ErrValidation, quantity)
	}
	switch mode {
	case StockIncrement:
		if current > MaxStock-quantity {
			return 0, fmt.Errorf("%w: stock %d + %d is out of range", internalShared.ErrValidation, current, quantity)
		}
		return current + quantity, nil
	case StockDecrement:
		if quantity > current {
			return 0, nil
		}
		return current - quantity, nil
	case StockSet:
		return quantity, nil
	}
	return 0, fmt.Errorf("%w: unknown stock mode %q", internalShared.ErrValidation, mode)
}

package enums

import "fmt"

// StockStatus is a derived label for an item's on-hand quantity. It is never
// stored, only computed for dashboards and list responses.
type StockStatus string

const (
	StockStatusOut StockStatus = "out_of_stock"
	StockStatusLow StockStatus = "low_stock"
	StockStatusOK  StockStatus = "in_stock"
)

// LowStockThreshold is the quantity at or below which an item counts as low.
const LowStockThreshold = 5

// String implements fmt.Stringer.
func (s StockStatus) String() string {
	return string(s)
}

// ParseStockStatus converts raw input into a StockStatus.
func ParseStockStatus(value string) (StockStatus, error) {
	switch StockStatus(value) {
	case StockStatusOut, StockStatusLow, StockStatusOK:
		return StockStatus(value), nil
	}
	return "", fmt.Errorf("invalid stock status %q", value)
}

// StockStatusForQuantity buckets a quantity into its derived status.
func StockStatusForQuantity(quantity int) StockStatus {
	switch {
	case quantity <= 0:
		return StockStatusOut
	case quantity <= LowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusOK
	}
}

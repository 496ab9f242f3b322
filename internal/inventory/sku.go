package inventory

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	skuRoot          = "JWL"
	skuFallbackCode  = "GEN"
	skuSeriesStart   = 1001
	skuMaxRetries    = 3
	categoryCodeSize = 3
)

// categoryCode derives the 3-letter prefix segment from a category name.
// Names without enough usable letters fall back to GEN.
func categoryCode(categoryName string) string {
	var letters []rune
	for _, r := range categoryName {
		if unicode.IsLetter(r) {
			letters = append(letters, unicode.ToUpper(r))
		}
		if len(letters) == categoryCodeSize {
			break
		}
	}
	if len(letters) < categoryCodeSize {
		return skuFallbackCode
	}
	return string(letters)
}

// skuPrefix builds the "JWL-<CODE>-" search prefix for a category name.
func skuPrefix(categoryName string) string {
	return fmt.Sprintf("%s-%s-", skuRoot, categoryCode(categoryName))
}

// nextSKUNumber picks the next number in a prefix series given the SKUs
// already issued under it. Unparsable suffixes restart the series at 1001.
func nextSKUNumber(existing []string) int {
	max := 0
	for _, sku := range existing {
		parts := strings.Split(sku, "-")
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return skuSeriesStart
	}
	return max + 1
}

// formatSKU assembles the full SKU string.
func formatSKU(prefix string, number int) string {
	return fmt.Sprintf("%s%d", prefix, number)
}

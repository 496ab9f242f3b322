package enums

import "fmt"

// MetalType maps to the metal_type_enum enum in Postgres.
type MetalType string

const (
	MetalTypeGold      MetalType = "gold"
	MetalTypeSilver    MetalType = "silver"
	MetalTypePlatinum  MetalType = "platinum"
	MetalTypeRoseGold  MetalType = "rose_gold"
	MetalTypeWhiteGold MetalType = "white_gold"
	MetalTypeMixed     MetalType = "mixed"
	MetalTypeOther     MetalType = "other"
)

var validMetalTypes = []MetalType{
	MetalTypeGold,
	MetalTypeSilver,
	MetalTypePlatinum,
	MetalTypeRoseGold,
	MetalTypeWhiteGold,
	MetalTypeMixed,
	MetalTypeOther,
}

// String implements fmt.Stringer.
func (m MetalType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MetalType.
func (m MetalType) IsValid() bool {
	for _, candidate := range validMetalTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMetalType converts raw input into a MetalType.
func ParseMetalType(value string) (MetalType, error) {
	for _, candidate := range validMetalTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid metal type %q", value)
}

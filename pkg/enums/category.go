package enums

import "fmt"

// Category grades a homestay under the registration scheme.
type Category string

const (
	CategoryDiamond Category = "diamond"
	CategoryGold    Category = "gold"
	CategorySilver  Category = "silver"
)

var validCategories = []Category{
	CategoryDiamond,
	CategoryGold,
	CategorySilver,
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Category.
func (c Category) IsValid() bool {
	for _, candidate := range validCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCategory converts raw input into a Category.
func ParseCategory(value string) (Category, error) {
	for _, candidate := range validCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", value)
}

package domain

import "strings"

// Category partitions formations into the two training tracks.
type Category string

func (c Category) String() string {
	return string(c)
}

const (
	CategoryCivilian    Category = "civilian"    // Civilian track
	CategoryFirefighter Category = "firefighter" // Professional track
)

var Categories = []Category{
	CategoryCivilian,
	CategoryFirefighter,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCivilian, CategoryFirefighter:
		return true
	default:
		return false
	}
}

// categoryAliases maps alternative track names, including the French and Dutch ones
// used on the original site, to their category.
var categoryAliases = map[string]Category{
	"professional": CategoryFirefighter,
	"pompiers":     CategoryFirefighter,
	"brandweer":    CategoryFirefighter,
	"civil":        CategoryCivilian,
	"particuliers": CategoryCivilian,
	"burgers":      CategoryCivilian,
}

// ParseCategory accepts a category or one of its aliases and returns
// ErrInvalidCategory for anything else.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := categoryAliases[name]; ok {
		return c, nil
	}
	c := Category(name)
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

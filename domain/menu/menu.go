// Package menu holds the restaurant catalog: categories of priced items and
// the rules for adding, updating and deleting items.
//
// Item identifiers are unique within a category only. Two categories may
// carry the same itemID; every mutation therefore names its category.
package menu

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// CategoryName is the closed set of menu sections.
type CategoryName int

const (
	CategoryUnspecified CategoryName = iota
	Appetizers
	Mains
	Desserts
	Drinks
)

// Categories lists the known sections in display order.
var Categories = []CategoryName{Appetizers, Mains, Desserts, Drinks}

// ErrUnknownCategoryName is returned by ParseCategoryName.
var ErrUnknownCategoryName = errors.New("unknown category name")

func (c CategoryName) String() string {
	switch c {
	case Appetizers:
		return "APPETIZERS"
	case Mains:
		return "MAINS"
	case Desserts:
		return "DESSERTS"
	case Drinks:
		return "DRINKS"
	default:
		return "CATEGORY_UNSPECIFIED"
	}
}

func ParseCategoryName(s string) (CategoryName, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "APPETIZERS":
		return Appetizers, nil
	case "MAINS":
		return Mains, nil
	case "DESSERTS":
		return Desserts, nil
	case "DRINKS":
		return Drinks, nil
	default:
		return CategoryUnspecified, errors.Wrapf(ErrUnknownCategoryName, "%q", s)
	}
}

type Item struct {
	ID         string
	Name       string
	PriceCents int64
}

type Category struct {
	Name  CategoryName
	Items []Item
}

// Menu is the whole catalog. Values handed out by the catalog store are
// shared snapshots and must be treated as read-only; use Clone before
// modifying.
type Menu struct {
	Categories []Category
}

// Empty returns a menu with every known category and no items.
func Empty() Menu {
	m := Menu{Categories: make([]Category, 0, len(Categories))}
	for _, name := range Categories {
		m.Categories = append(m.Categories, Category{Name: name, Items: []Item{}})
	}
	return m
}

// Clone returns a deep copy.
func (m Menu) Clone() Menu {
	out := Menu{Categories: make([]Category, len(m.Categories))}
	for i, c := range m.Categories {
		items := make([]Item, len(c.Items))
		copy(items, c.Items)
		out.Categories[i] = Category{Name: c.Name, Items: items}
	}
	return out
}

// Category returns the index of the named category, or -1.
func (m Menu) Category(name CategoryName) int {
	for i, c := range m.Categories {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// PriceIndex maps itemID to unit price across all categories. When the same
// itemID appears in more than one category the later category wins.
func (m Menu) PriceIndex() map[string]int64 {
	idx := make(map[string]int64)
	for _, c := range m.Categories {
		for _, it := range c.Items {
			idx[it.ID] = it.PriceCents
		}
	}
	return idx
}

// ItemCount returns the number of items across all categories.
func (m Menu) ItemCount() int {
	n := 0
	for _, c := range m.Categories {
		n += len(c.Items)
	}
	return n
}

// Validate checks the catalog invariants: known, distinct categories,
// itemIDs unique within a category and non-negative prices.
func (m Menu) Validate() error {
	seen := make(map[CategoryName]bool, len(m.Categories))
	for _, c := range m.Categories {
		if c.Name == CategoryUnspecified {
			return errors.New("menu: category without a name")
		}
		if seen[c.Name] {
			return errors.Newf("menu: duplicate category %s", c.Name)
		}
		seen[c.Name] = true

		ids := make(map[string]bool, len(c.Items))
		for _, it := range c.Items {
			if it.ID == "" {
				return errors.Newf("menu: item without itemID in %s", c.Name)
			}
			if ids[it.ID] {
				return errors.Newf("menu: duplicate itemID %q in %s", it.ID, c.Name)
			}
			ids[it.ID] = true
			if it.PriceCents < 0 {
				return errors.Newf("menu: negative price for %q in %s", it.ID, c.Name)
			}
		}
	}
	return nil
}

package menu

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Operation is a menu mutation kind.
type Operation int

const (
	OpUnspecified Operation = iota
	OpAdd
	OpUpdate
	OpDelete
)

func (op Operation) String() string {
	switch op {
	case OpAdd:
		return "ADD"
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	default:
		return "UNSPECIFIED"
	}
}

// ParseOperation upper-cases and trims s. Anything other than ADD, UPDATE
// or DELETE yields OpUnspecified, which Apply rejects.
func ParseOperation(s string) Operation {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADD":
		return OpAdd
	case "UPDATE":
		return OpUpdate
	case "DELETE":
		return OpDelete
	default:
		return OpUnspecified
	}
}

// Rule violations. Their messages are returned to callers verbatim.
var (
	ErrItemExists       = errors.New("itemID already exists")
	ErrItemNotFound     = errors.New("itemID not found")
	ErrUnknownOperation = errors.New("operation must be ADD/UPDATE/DELETE")
	ErrNegativePrice    = errors.New("priceCents must be non-negative")
	ErrMissingItemID    = errors.New("itemID is required")
)

// UnknownCategoryError reports a category that is not part of the menu.
type UnknownCategoryError struct {
	Name string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("Unknown category %s", e.Name)
}

// IsRuleError reports whether err is a business-rule violation from Apply
// as opposed to a storage or programming failure.
func IsRuleError(err error) bool {
	var uc *UnknownCategoryError
	if errors.As(err, &uc) {
		return true
	}
	for _, target := range []error{
		ErrItemExists, ErrItemNotFound, ErrUnknownOperation, ErrNegativePrice, ErrMissingItemID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Apply returns a new menu with op applied to item in the named category.
// The receiver is not modified.
func (m Menu) Apply(op Operation, category CategoryName, item Item) (Menu, error) {
	ci := m.Category(category)
	if ci < 0 {
		return Menu{}, &UnknownCategoryError{Name: category.String()}
	}
	if op != OpUnspecified && item.ID == "" {
		return Menu{}, ErrMissingItemID
	}
	if (op == OpAdd || op == OpUpdate) && item.PriceCents < 0 {
		return Menu{}, ErrNegativePrice
	}

	next := m.Clone()
	cat := &next.Categories[ci]
	pos := -1
	for i, it := range cat.Items {
		if it.ID == item.ID {
			pos = i
			break
		}
	}

	switch op {
	case OpAdd:
		if pos >= 0 {
			return Menu{}, ErrItemExists
		}
		cat.Items = append(cat.Items, item)
	case OpUpdate:
		if pos < 0 {
			return Menu{}, ErrItemNotFound
		}
		cat.Items[pos] = item
	case OpDelete:
		if pos < 0 {
			return Menu{}, ErrItemNotFound
		}
		cat.Items = append(cat.Items[:pos], cat.Items[pos+1:]...)
	case OpUnspecified:
		return Menu{}, ErrUnknownOperation
	default:
		return Menu{}, ErrUnknownOperation
	}
	return next, nil
}

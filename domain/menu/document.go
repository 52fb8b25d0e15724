package menu

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// The on-disk document keeps the field names of the original menu.json.
type document struct {
	Categories []categoryDoc `json:"categories"`
}

type categoryDoc struct {
	Name  string    `json:"name"`
	Items []itemDoc `json:"items"`
}

type itemDoc struct {
	ItemID     string `json:"itemID"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
}

// MarshalDocument encodes m as an indented JSON document.
func MarshalDocument(m Menu) ([]byte, error) {
	doc := document{Categories: make([]categoryDoc, 0, len(m.Categories))}
	for _, c := range m.Categories {
		cd := categoryDoc{Name: c.Name.String(), Items: make([]itemDoc, 0, len(c.Items))}
		for _, it := range c.Items {
			cd.Items = append(cd.Items, itemDoc{ItemID: it.ID, Name: it.Name, PriceCents: it.PriceCents})
		}
		doc.Categories = append(doc.Categories, cd)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode menu")
	}
	return data, nil
}

// UnmarshalDocument decodes and validates a menu document.
func UnmarshalDocument(data []byte) (Menu, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Menu{}, errors.Wrap(err, "decode menu")
	}
	m := Menu{Categories: make([]Category, 0, len(doc.Categories))}
	for _, cd := range doc.Categories {
		name, err := ParseCategoryName(cd.Name)
		if err != nil {
			return Menu{}, errors.Wrap(err, "decode menu")
		}
		c := Category{Name: name, Items: make([]Item, 0, len(cd.Items))}
		for _, it := range cd.Items {
			c.Items = append(c.Items, Item{ID: it.ItemID, Name: it.Name, PriceCents: it.PriceCents})
		}
		m.Categories = append(m.Categories, c)
	}
	if err := m.Validate(); err != nil {
		return Menu{}, err
	}
	return m, nil
}

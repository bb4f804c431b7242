package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategorySwitchboard Category = "Switchboard"
	CategoryDeskPhone   Category = "DeskPhone"
	CategoryCordless    Category = "Cordless"
	CategoryOther       Category = "Other"
)

// ParseCategory accepts both the enum spelling and the storefront labels
// ("Desk Phone"). Anything unrecognised is Other.
func ParseCategory(s string) Category {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	switch norm {
	case "switchboard":
		return CategorySwitchboard
	case "deskphone":
		return CategoryDeskPhone
	case "cordless":
		return CategoryCordless
	default:
		return CategoryOther
	}
}

// LineItem is one once-off hardware line in a selection. Prices exclude VAT.
type LineItem struct {
	ID                  string          `json:"id"`
	SKU                 string          `json:"sku,omitempty"`
	Name                string          `json:"name"`
	Category            Category        `json:"category"`
	Quantity            int             `json:"quantity"`
	UnitPriceOnceOff    decimal.Decimal `json:"unitPriceOnceOff"`
	Image               string          `json:"image,omitempty"`
	IsBaseStation       bool            `json:"isBaseStation"`
	RequiresBaseStation bool            `json:"requiresBaseStation,omitempty"`
	SupportsHandsets    int             `json:"supportsHandsets,omitempty"`
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPriceOnceOff.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Selection is the ordered set of line items with quantity > 0. Order is
// insertion order so snapshots are stable.
type Selection struct {
	Items []LineItem `json:"items"`
}

func (s Selection) Len() int { return len(s.Items) }

func (s Selection) IsEmpty() bool { return len(s.Items) == 0 }

func (s Selection) Find(id string) (LineItem, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return LineItem{}, false
}

func (s Selection) Quantity(id string) int {
	it, _ := s.Find(id)
	return it.Quantity
}

// ExtensionCount sums quantities of every item that is not a base station.
func (s Selection) ExtensionCount() int {
	total := 0
	for _, it := range s.Items {
		if it.IsBaseStation {
			continue
		}
		total += it.Quantity
	}
	return total
}

// CordlessTotal sums quantities of non base-station cordless handsets.
func (s Selection) CordlessTotal() int {
	total := 0
	for _, it := range s.Items {
		if it.IsBaseStation || it.Category != CategoryCordless {
			continue
		}
		total += it.Quantity
	}
	return total
}

// With returns a copy of s where the item is inserted, replaced in place, or
// removed when its quantity is not positive.
func (s Selection) With(item LineItem) Selection {
	out := Selection{Items: make([]LineItem, 0, len(s.Items)+1)}
	replaced := false
	for _, it := range s.Items {
		if it.ID != item.ID {
			out.Items = append(out.Items, it)
			continue
		}
		replaced = true
		if item.Quantity > 0 {
			out.Items = append(out.Items, item)
		}
	}
	if !replaced && item.Quantity > 0 {
		out.Items = append(out.Items, item)
	}
	return out
}

func (s Selection) Clone() Selection {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	return Selection{Items: items}
}

// EmptySelection is the "nothing selected" value every degraded path falls
// back to.
func EmptySelection() Selection {
	return Selection{Items: []LineItem{}}
}

// Package catalog is the single source of truth for hardware SKUs, their
// once-off prices and images. Names and legacy storefront ids resolve to a
// SKU through a separate alias table.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"voipshop/internal/domain"
)

const DefaultPlaceholderImage = "Assets/placeholder-device.webp"

//go:embed default.yaml
var defaultYAML []byte

type Entry struct {
	SKU                 string
	ID                  string
	Name                string
	Category            domain.Category
	UnitPriceOnceOff    decimal.Decimal
	Image               string
	IsBaseStation       bool
	RequiresBaseStation bool
	SupportsHandsets    int
}

// LineItem builds a selection line for this entry.
func (e Entry) LineItem(quantity int) domain.LineItem {
	return domain.LineItem{
		ID:                  e.ID,
		SKU:                 e.SKU,
		Name:                e.Name,
		Category:            e.Category,
		Quantity:            quantity,
		UnitPriceOnceOff:    e.UnitPriceOnceOff,
		Image:               e.Image,
		IsBaseStation:       e.IsBaseStation,
		RequiresBaseStation: e.RequiresBaseStation,
		SupportsHandsets:    e.SupportsHandsets,
	}
}

type Catalog struct {
	entries        map[string]Entry
	order          []string
	byID           map[string]string
	byName         map[string]string
	byNorm         map[string]string
	aliases        map[string]string
	baseStationSKU string
	placeholder    string
}

type Options struct {
	BaseStationSKU   string
	PlaceholderImage string
}

// New indexes entries and the alias table (alias -> SKU). Aliases pointing at
// unknown SKUs are rejected.
func New(entries []Entry, aliases map[string]string, opts Options) (*Catalog, error) {
	c := &Catalog{
		entries:        make(map[string]Entry, len(entries)),
		byID:           make(map[string]string),
		byName:         make(map[string]string),
		byNorm:         make(map[string]string),
		aliases:        make(map[string]string, len(aliases)),
		baseStationSKU: strings.TrimSpace(opts.BaseStationSKU),
		placeholder:    opts.PlaceholderImage,
	}
	if c.placeholder == "" {
		c.placeholder = DefaultPlaceholderImage
	}

	for _, e := range entries {
		sku := strings.TrimSpace(e.SKU)
		if sku == "" {
			return nil, fmt.Errorf("catalog: entry %q has no sku", e.Name)
		}
		if _, dup := c.entries[sku]; dup {
			return nil, fmt.Errorf("catalog: duplicate sku %s", sku)
		}
		if e.UnitPriceOnceOff.IsNegative() {
			return nil, fmt.Errorf("catalog: negative price for %s", sku)
		}
		e.SKU = sku
		if e.ID == "" {
			e.ID = strings.ToLower(strings.ReplaceAll(sku, "_", "-"))
		}
		if e.IsBaseStation && e.SupportsHandsets <= 0 {
			e.SupportsHandsets = 8
		}
		c.entries[sku] = e
		c.order = append(c.order, sku)
		c.byID[strings.ToLower(e.ID)] = sku
		c.index(e.Name, sku)
		c.byNorm[normalize(sku)] = sku
		if c.baseStationSKU == "" && e.IsBaseStation {
			c.baseStationSKU = sku
		}
	}
	sort.Strings(c.order)

	for alias, sku := range aliases {
		sku = strings.TrimSpace(sku)
		if _, ok := c.entries[sku]; !ok {
			return nil, fmt.Errorf("catalog: alias %q points at unknown sku %s", alias, sku)
		}
		c.aliases[alias] = sku
		c.byID[strings.ToLower(strings.TrimSpace(alias))] = sku
		c.index(alias, sku)
	}

	if c.baseStationSKU != "" {
		if _, ok := c.entries[c.baseStationSKU]; !ok {
			return nil, fmt.Errorf("catalog: base station sku %s not in catalog", c.baseStationSKU)
		}
	}
	return c, nil
}

func (c *Catalog) index(name, sku string) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return
	}
	if _, taken := c.byName[key]; !taken {
		c.byName[key] = sku
	}
	if n := normalize(name); n != "" {
		if _, taken := c.byNorm[n]; !taken {
			c.byNorm[n] = sku
		}
	}
}

// normalize keeps lowercase letters and digits only.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve finds an entry by exact SKU, then exact case-insensitive name or
// alias, then normalized alphanumeric match.
func (c *Catalog) Resolve(nameOrSKU string) (Entry, bool) {
	raw := strings.TrimSpace(nameOrSKU)
	if raw == "" {
		return Entry{}, false
	}
	if e, ok := c.entries[raw]; ok {
		return e, true
	}
	if sku, ok := c.byName[strings.ToLower(raw)]; ok {
		return c.entries[sku], true
	}
	if sku, ok := c.byNorm[normalize(raw)]; ok {
		return c.entries[sku], true
	}
	return Entry{}, false
}

// ResolveUnitPrice returns zero and false on a miss. Callers treat zero as
// "included" so checkout keeps rendering.
func (c *Catalog) ResolveUnitPrice(nameOrSKU string) (decimal.Decimal, bool) {
	e, ok := c.Resolve(nameOrSKU)
	if !ok {
		return decimal.Zero, false
	}
	return e.UnitPriceOnceOff, true
}

// ResolveImage falls back to the placeholder image on a miss.
func (c *Catalog) ResolveImage(nameOrSKU string) (string, bool) {
	e, ok := c.Resolve(nameOrSKU)
	if !ok || e.Image == "" {
		return c.placeholder, false
	}
	return e.Image, true
}

// LookupID resolves a storefront item id (current or legacy card id).
func (c *Catalog) LookupID(id string) (Entry, bool) {
	sku, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Entry{}, false
	}
	return c.entries[sku], true
}

func (c *Catalog) BySKU(sku string) (Entry, bool) {
	e, ok := c.entries[sku]
	return e, ok
}

// BaseStation returns the configured base-station entry.
func (c *Catalog) BaseStation() (Entry, bool) {
	if c.baseStationSKU == "" {
		return Entry{}, false
	}
	return c.BySKU(c.baseStationSKU)
}

// Entries lists entries in SKU order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, sku := range c.order {
		out = append(out, c.entries[sku])
	}
	return out
}

// Aliases returns a copy of the alias table.
func (c *Catalog) Aliases() map[string]string {
	out := make(map[string]string, len(c.aliases))
	for k, v := range c.aliases {
		out[k] = v
	}
	return out
}

type fileEntry struct {
	SKU                 string `yaml:"sku"`
	ID                  string `yaml:"id"`
	Name                string `yaml:"name"`
	Category            string `yaml:"category"`
	Price               string `yaml:"price"`
	Image               string `yaml:"image"`
	IsBaseStation       bool   `yaml:"isBaseStation"`
	RequiresBaseStation bool   `yaml:"requiresBaseStation"`
	SupportsHandsets    int    `yaml:"supportsHandsets"`
}

type file struct {
	BaseStation      string            `yaml:"baseStation"`
	PlaceholderImage string            `yaml:"placeholderImage"`
	Entries          []fileEntry       `yaml:"entries"`
	Aliases          map[string]string `yaml:"aliases"`
}

// Load parses a YAML catalog document.
func Load(r io.Reader) (*Catalog, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	entries := make([]Entry, 0, len(f.Entries))
	for _, fe := range f.Entries {
		price := decimal.Zero
		if strings.TrimSpace(fe.Price) != "" {
			p, err := decimal.NewFromString(strings.TrimSpace(fe.Price))
			if err != nil {
				return nil, fmt.Errorf("catalog: price for %s: %w", fe.SKU, err)
			}
			price = p
		}
		entries = append(entries, Entry{
			SKU:                 fe.SKU,
			ID:                  fe.ID,
			Name:                fe.Name,
			Category:            domain.ParseCategory(fe.Category),
			UnitPriceOnceOff:    price,
			Image:               fe.Image,
			IsBaseStation:       fe.IsBaseStation,
			RequiresBaseStation: fe.RequiresBaseStation,
			SupportsHandsets:    fe.SupportsHandsets,
		})
	}
	return New(entries, f.Aliases, Options{BaseStationSKU: f.BaseStation, PlaceholderImage: f.PlaceholderImage})
}

func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded storefront catalog.
func Default() *Catalog {
	c, err := Load(strings.NewReader(string(defaultYAML)))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

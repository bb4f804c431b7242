package catalog

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voipshop/internal/domain"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c := Default()

	bs, ok := c.BaseStation()
	require.True(t, ok)
	assert.Equal(t, "YEALINK_W70B", bs.SKU)
	assert.Equal(t, 8, bs.SupportsHandsets)
	assert.True(t, bs.IsBaseStation)

	entries := c.Entries()
	require.NotEmpty(t, entries)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].SKU, entries[i].SKU)
	}
}

func TestResolveUnitPriceLookupChain(t *testing.T) {
	c := Default()

	cases := []struct {
		in    string
		want  string
		found bool
	}{
		{"YEALINK_T73U", "1995", true},
		{"yealink t33g", "1450", true},
		{"Yealink W73H (Extra Handset)", "1250", true},
		{"  YEALINK-W59R ", "2450", true},
		{"yealink_ax83h", "2200", true},
		{"Base Station", "950", true},
		{"Grandstream GXP", "0", false},
		{"", "0", false},
	}
	for _, tc := range cases {
		got, ok := c.ResolveUnitPrice(tc.in)
		assert.Equal(t, tc.found, ok, tc.in)
		assert.Truef(t, got.Equal(decimal.RequireFromString(tc.want)), "%q: got %s want %s", tc.in, got, tc.want)
	}
}

func TestResolveImageFallsBackToPlaceholder(t *testing.T) {
	c := Default()

	img, ok := c.ResolveImage("Yealink T31W (Wi-Fi)")
	assert.True(t, ok)
	assert.Equal(t, "Assets/Yealink T31P_480.webp", img)

	img, ok = c.ResolveImage("unknown device")
	assert.False(t, ok)
	assert.Equal(t, DefaultPlaceholderImage, img)
}

func TestLookupIDAcceptsLegacyCardIDs(t *testing.T) {
	c := Default()

	e, ok := c.LookupID("yealink-W73h")
	require.True(t, ok)
	assert.Equal(t, "YEALINK_W73H", e.SKU)
	assert.Equal(t, domain.CategoryCordless, e.Category)
	assert.True(t, e.RequiresBaseStation)

	e, ok = c.LookupID("cordless-placeholder-2")
	require.True(t, ok)
	assert.Equal(t, "YEALINK_W70B", e.SKU)

	_, ok = c.LookupID("nope")
	assert.False(t, ok)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New([]Entry{{SKU: "A"}, {SKU: "A"}}, nil, Options{})
	assert.Error(t, err)

	_, err = New([]Entry{{SKU: "A"}}, map[string]string{"alias": "B"}, Options{})
	assert.Error(t, err)

	_, err = New([]Entry{{SKU: "A", UnitPriceOnceOff: decimal.NewFromInt(-1)}}, nil, Options{})
	assert.Error(t, err)

	_, err = New([]Entry{{SKU: "A"}}, nil, Options{BaseStationSKU: "B"})
	assert.Error(t, err)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	doc := `
entries:
  - sku: X
    name: X
    price: "10"
    colour: red
`
	_, err := Load(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestLoadBaseStationDefaultsCapacity(t *testing.T) {
	doc := `
entries:
  - sku: BS
    name: Base
    category: Cordless
    price: "900"
    isBaseStation: true
`
	c, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	bs, ok := c.BaseStation()
	require.True(t, ok)
	assert.Equal(t, 8, bs.SupportsHandsets)
	assert.Equal(t, "bs", bs.ID)
}

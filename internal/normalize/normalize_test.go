package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Coffee Lover Gear", "coffee-lover-gear"},
		{"punctuation", "Gifts: Under $25!", "gifts-under-25"},
		{"unicode collapsed", "Café & Crème", "caf-cr-me"},
		{"leading trailing junk", "  --Hello--  ", "hello"},
		{"empty", "", "item"},
		{"only symbols", "$$$", "item"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.input))
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		amount   float64
		currency string
		ok       bool
	}{
		{"plain dollars", "$19.99", 19.99, "USD", true},
		{"thousands with decimal", "$1,234.50", 1234.50, "USD", true},
		{"european separators", "1.234,50 EUR", 1234.50, "EUR", true},
		{"decimal comma", "19,99", 19.99, "", true},
		{"three decimal comma", "19,995", 19.995, "", true},
		{"lone thousands comma", "1,234,567", 1234567, "", true},
		{"pound prefix text", "from £19.99", 19.99, "GBP", true},
		{"yen", "¥1500", 1500, "JPY", true},
		{"canadian dollar", "C$24.99", 24.99, "CAD", true},
		{"australian dollar", "A$39.00", 39, "AUD", true},
		{"explicit us dollar", "US$12.50", 12.50, "USD", true},
		{"no digits", "call for price", 0, "", false},
		{"empty", "", 0, "", false},
		{"integer", "25", 25, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			amount, currency, ok := ParsePrice(tc.input)
			require.Equal(t, tc.ok, ok)
			if !tc.ok {
				return
			}
			assert.InDelta(t, tc.amount, amount, 0.0001)
			assert.Equal(t, tc.currency, currency)
		})
	}
}

func TestParsePriceCurrencyIsStable(t *testing.T) {
	for i := 0; i < 200; i++ {
		_, currency, ok := ParsePrice("C$24.99")
		require.True(t, ok)
		require.Equal(t, "CAD", currency,
			"prefixed symbols must win over the bare dollar sign on every run")
	}
}

func TestIsPlaceholderImage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty", "", true},
		{"svg data uri", "data:image/svg+xml;base64,abc", true},
		{"sitestripe asset", "/assets/amazon-sitestripe/foo.png", true},
		{"amazon svg", "https://m.media-amazon.com/images/grey-pixel.svg", true},
		{"placeholder word", "https://cdn.example.com/placeholder.jpg", true},
		{"unsplash stock", "https://images.unsplash.com/photo-123", true},
		{"picsum stock", "https://picsum.photos/200", true},
		{"real product shot", "https://i.ebayimg.com/images/g/abc/s-l500.jpg", false},
		{"real cdn image", "https://cdn.example.com/widget.jpg", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsPlaceholderImage(tc.input))
		})
	}
}

func TestCanonicalIdentityNonEbayPassthrough(t *testing.T) {
	id, canonical := CanonicalIdentity("B000TEST", "https://www.amazon.com/dp/B000TEST?tag=x", "amazon")
	assert.Equal(t, "B000TEST", id)
	assert.Equal(t, "https://www.amazon.com/dp/B000TEST?tag=x", canonical)
}

func TestCanonicalIdentityEbayTrackingParams(t *testing.T) {
	withTracking := "https://www.EBAY.com/itm/cool-gadget-123456789012/?mkcid=1&campid=5338&toolid=10001&customid=abc"
	bare := "https://www.ebay.com/itm/cool-gadget-123456789012"

	id1, canonical1 := CanonicalIdentity("", withTracking, "ebay")
	id2, canonical2 := CanonicalIdentity("", bare, "ebay")

	assert.Equal(t, id1, id2, "tracking params must not split identity")
	assert.Equal(t, "ebay-123456789012", id1)
	assert.Equal(t, canonical1, canonical2, "canonical URLs collapse too")
	assert.Equal(t, "https://www.ebay.com/itm/cool-gadget-123456789012", canonical1)
}

func TestCanonicalIdentityPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		rawID  string
		rawURL string
		want   string
	}{
		{"v1 explicit id", "v1|123456789|0", "https://www.ebay.com/itm/x", "ebay-123456789"},
		{"bare numeric id", "234567891", "https://www.ebay.com/p/whatever", "ebay-234567891"},
		{"prefixed id", "ebay-345678912", "https://www.ebay.com/p/whatever", "ebay-345678912"},
		{"path pattern", "", "https://www.ebay.com/itm/gadget-456789123456", "ebay-456789123456"},
		{"hash param", "", "https://www.ebay.com/something?hash=item21f2a8b9cd", "ebay-21f2a8b9cd"},
		{"named param", "", "https://www.ebay.com/view?itemid=567891234", "ebay-567891234"},
		{"slug fallback", "", "https://www.ebay.com/deals/tech-gifts", "ebay-deals-tech-gifts"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, _ := CanonicalIdentity(tc.rawID, tc.rawURL, "ebay")
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestCanonicalIdentityRejectsCustomIDEcho(t *testing.T) {
	id, _ := CanonicalIdentity("987654321",
		"https://www.ebay.com/itm/real-item-123456789012?customid=987654321", "ebay")
	assert.Equal(t, "ebay-123456789012", id,
		"an id echoing the affiliate customid falls through to the URL pattern")
}

func TestCanonicalIdentitySortsQueryKeys(t *testing.T) {
	_, canonical := CanonicalIdentity("", "https://www.ebay.com/sch/i.html?b=2&a=1", "ebay")
	assert.Equal(t, "https://www.ebay.com/sch/i.html?a=1&b=2", canonical)
}

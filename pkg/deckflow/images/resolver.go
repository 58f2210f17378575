// Package images resolves search queries to image URLs for slide content.
//
// The stock resolver maps queries onto a curated catalog keyed by topic.
// A real search backend can be plugged in through the Resolver interface;
// the pipeline only depends on batch resolution and a fallback URL.
package images

import (
	"context"
	"net/url"
	"strings"
)

// Image is a resolved image with display metadata.
type Image struct {
	URL     string
	AltText string
}

// Query is a search request paired with the alt text to attach to the result.
type Query struct {
	Query   string
	AltText string
}

// Resolver turns search queries into image URLs.
type Resolver interface {
	// ResolveBatch resolves all queries, preserving order. Implementations
	// return an error only on total failure; per-item failures should be
	// substituted with DefaultImage.
	ResolveBatch(ctx context.Context, queries []Query) ([]Image, error)
}

// catalog maps topic categories to curated stock photo URLs.
var catalog = map[string][]string{
	"business": {
		"https://images.unsplash.com/photo-1454165804606-c3d57bc86b40?w=1200&q=80",
		"https://images.unsplash.com/photo-1460925895917-afdab827c52f?w=1200&q=80",
		"https://images.unsplash.com/photo-1553877522-43269d4ea984?w=1200&q=80",
	},
	"technology": {
		"https://images.unsplash.com/photo-1518770660439-4636190af475?w=1200&q=80",
		"https://images.unsplash.com/photo-1488590528505-98d2b5aba04b?w=1200&q=80",
		"https://images.unsplash.com/photo-1550751827-4bd374c3f58b?w=1200&q=80",
	},
	"people": {
		"https://images.unsplash.com/photo-1522071820081-009f0129c71c?w=1200&q=80",
		"https://images.unsplash.com/photo-1556761175-b413da4baf72?w=1200&q=80",
		"https://images.unsplash.com/photo-1521737711867-e3b97375f902?w=1200&q=80",
	},
	"nature": {
		"https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=1200&q=80",
		"https://images.unsplash.com/photo-1469474968028-56623f02e42e?w=1200&q=80",
		"https://images.unsplash.com/photo-1441974231531-c6227db76b6e?w=1200&q=80",
	},
	"abstract": {
		"https://images.unsplash.com/photo-1557672172-298e090bd0f1?w=1200&q=80",
		"https://images.unsplash.com/photo-1558591710-4b4a1ae0f04d?w=1200&q=80",
		"https://images.unsplash.com/photo-1551434678-e076c223a692?w=1200&q=80",
	},
	"data": {
		"https://images.unsplash.com/photo-1551288049-bebda4e38f71?w=1200&q=80",
		"https://images.unsplash.com/photo-1460925895917-afdab827c52f?w=1200&q=80",
		"https://images.unsplash.com/photo-1551288049-bebda4e38f71?w=1200&q=80",
	},
	"education": {
		"https://images.unsplash.com/photo-1503676260728-1c00da094a0b?w=1200&q=80",
		"https://images.unsplash.com/photo-1523050854058-8df90110c9f1?w=1200&q=80",
		"https://images.unsplash.com/photo-1427504494785-3a9ca7044f45?w=1200&q=80",
	},
	"default": {
		"https://images.unsplash.com/photo-1557683316-973673baf926?w=1200&q=80",
		"https://images.unsplash.com/photo-1579546929518-9e396f3cc809?w=1200&q=80",
		"https://images.unsplash.com/photo-1557683304-673a23048d34?w=1200&q=80",
	},
}

// categoryKeywords maps query substrings to catalog categories.
// First match wins, checked in a fixed order.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"business", []string{"business", "office", "corporate"}},
	{"technology", []string{"tech", "computer", "digital"}},
	{"people", []string{"people", "team", "group"}},
	{"nature", []string{"nature", "landscape", "outdoor"}},
	{"abstract", []string{"abstract", "pattern", "texture"}},
	{"data", []string{"data", "chart", "graph"}},
	{"education", []string{"education", "learning", "study"}},
}

// categorize picks the catalog category for a query.
func categorize(query string) string {
	q := strings.ToLower(query)
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(q, w) {
				return ck.category
			}
		}
	}
	return "default"
}

// StockResolver resolves queries against the built-in catalog.
// Resolution is deterministic: the same query list always produces the
// same URLs, with the batch position providing variety within a category.
type StockResolver struct{}

var _ Resolver = StockResolver{}

// NewStockResolver returns a catalog-backed resolver.
func NewStockResolver() StockResolver {
	return StockResolver{}
}

// Resolve returns the image for a single query at the given batch position.
func (StockResolver) Resolve(_ context.Context, q Query, index int) Image {
	urls := catalog[categorize(q.Query)]
	return Image{
		URL:     urls[index%len(urls)],
		AltText: q.AltText,
	}
}

// ResolveBatch resolves all queries in order. It never fails.
func (r StockResolver) ResolveBatch(ctx context.Context, queries []Query) ([]Image, error) {
	results := make([]Image, len(queries))
	for i, q := range queries {
		results[i] = r.Resolve(ctx, q, i)
	}
	return results, nil
}

// ValidateURL reports whether s is a well-formed http or https URL.
func ValidateURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DefaultImage is the fallback URL used when resolution fails.
func DefaultImage() string {
	return catalog["default"][0]
}

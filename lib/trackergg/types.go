package trackergg

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// BundleType is the closed set of bundle categories the store page
// renders. Anything the API grows beyond these maps to BundleUnknown
// and gets dropped during processing.
type BundleType int

const (
	BundleUnknown BundleType = iota
	BundleFeatured
	BundleOperator
	BundleBlueprint
)

func ParseBundleType(typeKey string) BundleType {
	switch typeKey {
	case "FEATURED":
		return BundleFeatured
	case "OPERATOR":
		return BundleOperator
	case "WEAPON":
		return BundleBlueprint
	}
	return BundleUnknown
}

func (t BundleType) String() string {
	switch t {
	case BundleFeatured:
		return "featured"
	case BundleOperator:
		return "operator"
	case BundleBlueprint:
		return "blueprint"
	}
	return "unknown"
}

// Bundle is one purchasable item grouping in the store.
type Bundle struct {
	ID        int64  `json:"id"`
	TypeKey   string `json:"typeKey"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Price     int    `json:"price"`
	Billboard string `json:"billboard"`
	Logo      string `json:"logo"`
}

func (b Bundle) Type() BundleType {
	return ParseBundleType(b.TypeKey)
}

// "12345" renders as "12,345"
func (b Bundle) PrettyPrice() string {
	return humanize.Comma(int64(b.Price))
}

// URL returns the bundle's detail page on the tracker site.
func (b Bundle) URL() string {
	return fmt.Sprintf("https://cod.tracker.gg/warzone/db/bundles/%d-%s", b.ID, b.Slug)
}

// Store is one snapshot of the in-game store. Hash identifies the
// snapshot's content version and is only used for change detection.
type Store struct {
	LastUpdated string   `json:"lastUpdated"`
	Hash        string   `json:"hash"`
	Items       []Bundle `json:"items"`
}

package unireservas

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// ============================================================================
// Filter state
// ============================================================================

type SortOption string

const (
	SortRelevance SortOption = "relevancia"
	SortPriceAsc  SortOption = "menor-preco"
	SortPriceDesc SortOption = "maior-preco"
	SortNewest    SortOption = "mais-recente"
	SortBestRated SortOption = "melhor-avaliado"
)

// Selector values that switch a predicate off, and the price bucket ids.
const (
	AllTypes = "todos"
	AnyPrice = "todos-precos"

	BucketUpTo500   = "ate-500"
	Bucket500To800  = "500-800"
	Bucket800To1200 = "800-1200"
	BucketAbove1200 = "acima-1200"
)

// SortOptions lists the sort keys in display order.
var SortOptions = []SortOption{SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest, SortBestRated}

// PriceBuckets lists the price bucket ids in display order.
var PriceBuckets = []string{AnyPrice, BucketUpTo500, Bucket500To800, Bucket800To1200, BucketAbove1200}

// FilterState is the browsing filter configuration. The price bucket and
// MaxPrice narrow independently when both are set.
type FilterState struct {
	PropertyType string     `json:"propertyType"`
	PriceRange   string     `json:"priceRange"`
	MaxPrice     *float64   `json:"maxPrice"`
	Location     string     `json:"location"`
	SortBy       SortOption `json:"sortBy"`
	SearchTerm   string     `json:"searchTerm"`
	Amenities    []string   `json:"amenities"`
}

// DefaultFilters returns the state with every predicate off.
func DefaultFilters() FilterState {
	return FilterState{
		PropertyType: AllTypes,
		PriceRange:   AnyPrice,
		SortBy:       SortRelevance,
		Amenities:    []string{},
	}
}

// Active reports whether any narrowing predicate is on. Sorting does not
// count.
func (f FilterState) Active() bool {
	return (f.PropertyType != "" && f.PropertyType != AllTypes) ||
		(f.PriceRange != "" && f.PriceRange != AnyPrice) ||
		f.MaxPrice != nil ||
		f.Location != "" ||
		f.SearchTerm != "" ||
		len(f.Amenities) > 0
}

// Clone returns a copy that shares no slices or pointers with f.
func (f FilterState) Clone() FilterState {
	out := f
	if f.MaxPrice != nil {
		v := *f.MaxPrice
		out.MaxPrice = &v
	}
	out.Amenities = append([]string(nil), f.Amenities...)
	return out
}

// The With helpers return an updated copy and leave f untouched.

func (f FilterState) WithType(t string) FilterState {
	out := f.Clone()
	out.PropertyType = t
	return out
}

func (f FilterState) WithPriceRange(bucket string) FilterState {
	out := f.Clone()
	out.PriceRange = bucket
	return out
}

// WithMaxPrice sets the price ceiling; nil switches it off.
func (f FilterState) WithMaxPrice(max *float64) FilterState {
	out := f.Clone()
	out.MaxPrice = nil
	if max != nil {
		v := *max
		out.MaxPrice = &v
	}
	return out
}

func (f FilterState) WithLocation(loc string) FilterState {
	out := f.Clone()
	out.Location = loc
	return out
}

func (f FilterState) WithSearchTerm(term string) FilterState {
	out := f.Clone()
	out.SearchTerm = term
	return out
}

func (f FilterState) WithSort(by SortOption) FilterState {
	out := f.Clone()
	out.SortBy = by
	return out
}

// WithAmenity adds tag to the requested amenities, or removes it when it is
// already there.
func (f FilterState) WithAmenity(tag string) FilterState {
	out := f.Clone()
	for i, a := range out.Amenities {
		if a == tag {
			out.Amenities = append(out.Amenities[:i], out.Amenities[i+1:]...)
			return out
		}
	}
	out.Amenities = append(out.Amenities, tag)
	return out
}

// ============================================================================
// Engine
// ============================================================================

// ApplyFilters returns the properties that pass every active predicate, in
// the order f.SortBy asks for. The input slice is never modified. Unknown
// filter values behave as if the filter were off.
func ApplyFilters(properties []Property, f FilterState) []Property {
	fold := cases.Fold()
	location := fold.String(strings.TrimSpace(f.Location))
	term := fold.String(strings.TrimSpace(f.SearchTerm))
	contains := func(s, sub string) bool {
		return strings.Contains(fold.String(s), sub)
	}

	out := make([]Property, 0, len(properties))
	for _, p := range properties {
		if f.PropertyType != "" && f.PropertyType != AllTypes && string(p.Type) != f.PropertyType {
			continue
		}
		if !inPriceBucket(p.Price, f.PriceRange) {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if location != "" && !contains(p.Location, location) && !contains(p.University, location) {
			continue
		}
		if term != "" && !contains(p.Title, term) && !contains(p.Location, term) && !contains(p.University, term) {
			continue
		}
		if len(f.Amenities) > 0 && !hasAnyAmenity(p, f.Amenities) {
			continue
		}
		out = append(out, p)
	}

	sortProperties(out, f.SortBy)
	return out
}

func inPriceBucket(price float64, bucket string) bool {
	switch bucket {
	case BucketUpTo500:
		return price <= 500
	case Bucket500To800:
		return price >= 500 && price <= 800
	case Bucket800To1200:
		return price >= 800 && price <= 1200
	case BucketAbove1200:
		return price > 1200
	}
	return true
}

func hasAnyAmenity(p Property, wanted []string) bool {
	for _, w := range wanted {
		if p.HasAmenity(w) {
			return true
		}
	}
	return false
}

func sortProperties(ps []Property, by SortOption) {
	switch by {
	case SortPriceAsc:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price < ps[j].Price })
	case SortPriceDesc:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price > ps[j].Price })
	case SortBestRated:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Rating > ps[j].Rating })
	case SortNewest:
		// Ids are the only recency signal. Non-numeric ids sink to the end.
		sort.SliceStable(ps, func(i, j int) bool {
			a, aok := numericID(ps[i].ID)
			b, bok := numericID(ps[j].ID)
			if aok != bok {
				return aok
			}
			return aok && a > b
		})
	}
}

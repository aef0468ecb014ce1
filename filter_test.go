package unireservas

import (
	"reflect"
	"testing"
)

func sampleProperties() []Property {
	return []Property{
		{ID: "1", Title: "Kitnet perto da USP", Type: TypeKitnet, Price: 650, Location: "Butantã, São Paulo", University: "USP", Rating: 4.5, Amenities: []string{"wifi", "mobiliado"}},
		{ID: "2", Title: "Quarto em república", Type: TypeQuarto, Price: 450, Location: "Barão Geraldo, Campinas", University: "UNICAMP", Rating: 4.8, Amenities: []string{"wifi"}},
		{ID: "3", Title: "Apartamento 2 quartos", Type: TypeApartamento, Price: 1500, Location: "Pinheiros, São Paulo", University: "USP", Rating: 4.1, Amenities: []string{"garagem"}},
		{ID: "4", Title: "Kitnet mobiliada", Type: TypeKitnet, Price: 800, Location: "Centro, Campinas", University: "PUC-Campinas", Rating: 3.9},
		{ID: "5", Title: "Studio novo", Type: TypeApartamento, Price: 1200, Location: "Vila Mariana, São Paulo", University: "UNIFESP", Rating: 4.8, Amenities: []string{"academia", "wifi"}},
	}
}

func ids(ps []Property) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestApplyFiltersDefaultsIsIdentity(t *testing.T) {
	props := sampleProperties()
	got := ApplyFilters(props, DefaultFilters())
	if !reflect.DeepEqual(ids(got), ids(props)) {
		t.Fatalf("expected input order %v, got %v", ids(props), ids(got))
	}
	if DefaultFilters().Active() {
		t.Fatal("default filters must not be active")
	}
}

func TestApplyFiltersDoesNotMutateInput(t *testing.T) {
	props := sampleProperties()
	before := sampleProperties()
	_ = ApplyFilters(props, DefaultFilters().WithSort(SortPriceDesc).WithAmenity("wifi"))
	if !reflect.DeepEqual(props, before) {
		t.Fatal("input slice was modified")
	}
}

func TestApplyFiltersType(t *testing.T) {
	got := ApplyFilters(sampleProperties(), DefaultFilters().WithType(string(TypeKitnet)))
	if want := []string{"1", "4"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}
}

func TestApplyFiltersPriceBuckets(t *testing.T) {
	props := []Property{
		{ID: "a", Price: 499}, {ID: "b", Price: 500}, {ID: "c", Price: 800},
		{ID: "d", Price: 801}, {ID: "e", Price: 1200}, {ID: "f", Price: 1201},
	}
	tests := []struct {
		bucket string
		want   []string
	}{
		{BucketUpTo500, []string{"a", "b"}},
		{Bucket500To800, []string{"b", "c"}},
		{Bucket800To1200, []string{"c", "d", "e"}},
		{BucketAbove1200, []string{"f"}},
		{AnyPrice, []string{"a", "b", "c", "d", "e", "f"}},
		{"nonsense", []string{"a", "b", "c", "d", "e", "f"}},
	}
	for _, tt := range tests {
		t.Run(tt.bucket, func(t *testing.T) {
			got := ApplyFilters(props, DefaultFilters().WithPriceRange(tt.bucket))
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, ids(got))
			}
		})
	}
}

func TestApplyFiltersMaxPriceAndBucketCombine(t *testing.T) {
	f := DefaultFilters().WithPriceRange(Bucket500To800).WithMaxPrice(ptr(650.0))
	got := ApplyFilters(sampleProperties(), f)
	if want := []string{"1"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}

	got = ApplyFilters(sampleProperties(), DefaultFilters().WithMaxPrice(ptr(800.0)))
	if want := []string{"1", "2", "4"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("max price is inclusive: expected %v, got %v", want, ids(got))
	}
}

func TestApplyFiltersText(t *testing.T) {
	t.Run("location matches university case-insensitively", func(t *testing.T) {
		got := ApplyFilters(sampleProperties(), DefaultFilters().WithLocation("usp"))
		if want := []string{"1", "3"}; !reflect.DeepEqual(ids(got), want) {
			t.Fatalf("expected %v, got %v", want, ids(got))
		}
	})

	t.Run("location folds accented capitals", func(t *testing.T) {
		got := ApplyFilters(sampleProperties(), DefaultFilters().WithLocation("  SÃO PAULO "))
		if want := []string{"1", "3", "5"}; !reflect.DeepEqual(ids(got), want) {
			t.Fatalf("expected %v, got %v", want, ids(got))
		}
	})

	t.Run("search term matches title", func(t *testing.T) {
		got := ApplyFilters(sampleProperties(), DefaultFilters().WithSearchTerm("KITNET"))
		if want := []string{"1", "4"}; !reflect.DeepEqual(ids(got), want) {
			t.Fatalf("expected %v, got %v", want, ids(got))
		}
	})

	t.Run("search term matches location", func(t *testing.T) {
		got := ApplyFilters(sampleProperties(), DefaultFilters().WithSearchTerm("campinas"))
		if want := []string{"2", "4"}; !reflect.DeepEqual(ids(got), want) {
			t.Fatalf("expected %v, got %v", want, ids(got))
		}
	})
}

func TestApplyFiltersAmenitiesAreOred(t *testing.T) {
	f := DefaultFilters().WithAmenity("garagem").WithAmenity("academia")
	got := ApplyFilters(sampleProperties(), f)
	if want := []string{"3", "5"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}

	// toggling an amenity off again
	if f = f.WithAmenity("garagem"); !reflect.DeepEqual(f.Amenities, []string{"academia"}) {
		t.Fatalf("expected [academia], got %v", f.Amenities)
	}
}

func TestApplyFiltersAllPredicatesAnded(t *testing.T) {
	f := DefaultFilters().
		WithType(string(TypeApartamento)).
		WithLocation("são paulo").
		WithAmenity("wifi")
	got := ApplyFilters(sampleProperties(), f)
	if want := []string{"5"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}
}

func TestApplyFiltersSort(t *testing.T) {
	tests := []struct {
		by   SortOption
		want []string
	}{
		{SortPriceAsc, []string{"2", "1", "4", "5", "3"}},
		{SortPriceDesc, []string{"3", "5", "4", "1", "2"}},
		// 2 and 5 tie on rating and keep their input order
		{SortBestRated, []string{"2", "5", "1", "3", "4"}},
		{SortNewest, []string{"5", "4", "3", "2", "1"}},
		{SortRelevance, []string{"1", "2", "3", "4", "5"}},
		{"unknown", []string{"1", "2", "3", "4", "5"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.by), func(t *testing.T) {
			got := ApplyFilters(sampleProperties(), DefaultFilters().WithSort(tt.by))
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, ids(got))
			}
		})
	}
}

func TestApplyFiltersNewestSinksNonNumericIDs(t *testing.T) {
	props := []Property{{ID: "abc"}, {ID: "10"}, {ID: "x"}, {ID: "2"}}
	got := ApplyFilters(props, DefaultFilters().WithSort(SortNewest))
	if want := []string{"10", "2", "abc", "x"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}
}

func TestApplyFiltersNewestTreatsNaNAsNonNumeric(t *testing.T) {
	props := []Property{{ID: "3"}, {ID: "NaN"}, {ID: "10"}, {ID: "Inf"}, {ID: "7"}}
	got := ApplyFilters(props, DefaultFilters().WithSort(SortNewest))
	if want := []string{"10", "7", "3", "NaN", "Inf"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}
}

func TestFilterStateWithLeavesOriginal(t *testing.T) {
	base := DefaultFilters().WithMaxPrice(ptr(900.0))
	next := base.WithMaxPrice(ptr(300.0)).WithAmenity("wifi")
	if *base.MaxPrice != 900 || len(base.Amenities) != 0 {
		t.Fatalf("original changed: %+v", base)
	}
	if !next.Active() || *next.MaxPrice != 300 {
		t.Fatalf("unexpected update: %+v", next)
	}
	if off := next.WithMaxPrice(nil); off.MaxPrice != nil {
		t.Fatal("nil max price should switch the filter off")
	}
}

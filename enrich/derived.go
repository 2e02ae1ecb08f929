package enrich

import "math"

// ListingDerived computes plain column arithmetic over listing fields. Each
// output is missing when one of its inputs is.
type ListingDerived struct {
	// SellerMissingFlag inverts has_seller so it marks listings without a
	// seller.
	SellerMissingFlag bool
}

// area_total bucket indicators, upper bounds inclusive.
var areaTotalBuckets = []struct {
	column string
	lo, hi float64
}{
	{"area_total_0_50", math.Inf(-1), 50},
	{"area_total_51_100", 50, 100},
	{"area_total_101_200", 100, 200},
	{"area_total_201_300", 200, 300},
	{"area_total_301_inf", 300, math.Inf(1)},
}

// Name implements RowFeature.
func (ListingDerived) Name() string { return "listing_derived" }

// Columns implements RowFeature.
func (ListingDerived) Columns() []string {
	cols := []string{"bathrooms", "has_seller", "elevator", "room_size_avg", "area_total_log", "remaining_area"}
	for _, b := range areaTotalBuckets {
		cols = append(cols, b.column)
	}
	return cols
}

// Derive implements RowFeature.
func (l ListingDerived) Derive(r Record) (Record, error) {
	out := Record{}

	if shared, ok := r.Get("bathrooms_shared"); ok {
		if private, ok := r.Get("bathrooms_private"); ok {
			out["bathrooms"] = shared + private
		}
	}

	out["has_seller"] = boolValue(r.Has("seller") != l.SellerMissingFlag)

	passenger, _ := r.Get("elevator_passenger")
	service, _ := r.Get("elevator_service")
	out["elevator"] = boolValue(passenger == 1 || service == 1)

	if area, ok := r.Get("area_total"); ok {
		if rooms, ok := r.Get("rooms"); ok && rooms != 0 {
			out["room_size_avg"] = area / rooms
		}
		out["area_total_log"] = math.Log1p(area)
		for _, b := range areaTotalBuckets {
			out[b.column] = boolValue(area > b.lo && area <= b.hi)
		}
		living, okL := r.Get("area_living")
		kitchen, okK := r.Get("area_kitchen")
		if okL && okK {
			out["remaining_area"] = area - living - kitchen
		}
	}
	return out, nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Package quote implements the deterministic price calculator used to
// turn an accepted lead into a draft offer. All intermediate terms are
// retained in the result for audit and display.
package quote

import "math"

// CustomerType selects pricing adjustments.
type CustomerType string

const (
	CustomerPrivate  CustomerType = "private"
	CustomerBusiness CustomerType = "business"
)

// areaBracket maps a living area upper bound to its base price.
type areaBracket struct {
	maxArea int
	price   int
}

// areaBrackets are evaluated in order; the last entry catches
// everything above 100 m².
var areaBrackets = []areaBracket{
	{25, 399},
	{40, 549},
	{60, 749},
	{80, 949},
	{100, 1149},
}

const maxAreaPrice = 1349

// floorSurcharges is the per-end surcharge for moves without an
// elevator, keyed by floor count; four or more floors cap at the top
// rate.
var floorSurcharges = map[int]int{
	1: 60,
	2: 120,
	3: 180,
	4: 240,
}

const (
	includedDistanceKm  = 50.0
	perExtraKm          = 3.5
	packingPerSqm       = 8.0
	furniturePerRoom    = 75.0
	privateDiscountRate = 0.05
	vatRate             = 0.19
)

// Input carries every factor the calculator looks at.
type Input struct {
	AreaSqm           int
	Rooms             float64
	FromFloor         int
	ToFloor           int
	FromHasElevator   bool
	ToHasElevator     bool
	DistanceKm        float64
	PackingService    bool
	FurnitureAssembly bool
	CustomerType      CustomerType
}

// Breakdown is the priced result with every intermediate term.
type Breakdown struct {
	BasePrice         int
	FloorSurcharge    int
	DistanceSurcharge int
	PackingPrice      int
	FurniturePrice    int
	Subtotal          int
	VAT               int
	Total             int
}

// Calculate prices a move. The function is pure: identical inputs
// always produce an identical breakdown.
func Calculate(in Input) Breakdown {
	b := Breakdown{
		BasePrice:         basePrice(in.AreaSqm),
		FloorSurcharge:    floorSurcharge(in.FromFloor, in.FromHasElevator) + floorSurcharge(in.ToFloor, in.ToHasElevator),
		DistanceSurcharge: distanceSurcharge(in.DistanceKm),
	}

	if in.PackingService {
		b.PackingPrice = round(float64(in.AreaSqm) * packingPerSqm)
	}
	if in.FurnitureAssembly {
		b.FurniturePrice = round(in.Rooms * furniturePerRoom)
	}

	b.Subtotal = b.BasePrice + b.FloorSurcharge + b.DistanceSurcharge + b.PackingPrice + b.FurniturePrice
	if in.CustomerType == CustomerPrivate {
		b.Subtotal = round(float64(b.Subtotal) * (1 - privateDiscountRate))
	}

	b.VAT = round(float64(b.Subtotal) * vatRate)
	b.Total = b.Subtotal + b.VAT

	return b
}

func basePrice(area int) int {
	for _, br := range areaBrackets {
		if area <= br.maxArea {
			return br.price
		}
	}
	return maxAreaPrice
}

// floorSurcharge charges one end of the move. Ground floor and
// elevator-served floors are free; four floors and above (including
// the attic sentinel) pay the top rate.
func floorSurcharge(floor int, hasElevator bool) int {
	if hasElevator || floor <= 0 {
		return 0
	}
	if floor > 4 {
		floor = 4
	}
	return floorSurcharges[floor]
}

func distanceSurcharge(distanceKm float64) int {
	extra := distanceKm - includedDistanceKm
	if extra <= 0 {
		return 0
	}
	return round(extra * perExtraKm)
}

// round matches the half-up rounding the pricing contract expects.
func round(v float64) int {
	return int(math.Round(v))
}

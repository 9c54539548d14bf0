package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFullBreakdown(t *testing.T) {
	in := Input{
		AreaSqm:        60,
		FromFloor:      2,
		DistanceKm:     80,
		PackingService: true,
		CustomerType:   CustomerPrivate,
	}

	b := Calculate(in)

	assert.Equal(t, 749, b.BasePrice)
	assert.Equal(t, 120, b.FloorSurcharge)
	assert.Equal(t, 105, b.DistanceSurcharge, "(80-50) km * 3.50")
	assert.Equal(t, 480, b.PackingPrice, "60 m² * 8.00")
	assert.Equal(t, 0, b.FurniturePrice)
	assert.Equal(t, 1381, b.Subtotal, "1454 minus 5% private discount, rounded")
	assert.Equal(t, 262, b.VAT)
	assert.Equal(t, 1643, b.Total)
}

func TestCalculateBusinessSkipsDiscount(t *testing.T) {
	in := Input{AreaSqm: 60, FromFloor: 2, DistanceKm: 80, PackingService: true, CustomerType: CustomerBusiness}

	b := Calculate(in)

	assert.Equal(t, 1454, b.Subtotal)
	assert.Equal(t, 276, b.VAT)
	assert.Equal(t, 1730, b.Total)
}

func TestCalculateDeterministic(t *testing.T) {
	in := Input{
		AreaSqm:           85,
		Rooms:             3,
		FromFloor:         3,
		ToFloor:           1,
		DistanceKm:        123.4,
		PackingService:    true,
		FurnitureAssembly: true,
		CustomerType:      CustomerPrivate,
	}

	first := Calculate(in)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Calculate(in))
	}
}

func TestBasePriceBrackets(t *testing.T) {
	cases := []struct {
		area int
		want int
	}{
		{0, 399},
		{25, 399},
		{26, 549},
		{40, 549},
		{60, 749},
		{80, 949},
		{100, 1149},
		{101, 1349},
		{500, 1349},
	}

	for _, tc := range cases {
		b := Calculate(Input{AreaSqm: tc.area, CustomerType: CustomerBusiness})
		assert.Equal(t, tc.want, b.BasePrice, "area %d", tc.area)
	}
}

func TestFloorSurcharge(t *testing.T) {
	cases := []struct {
		name     string
		floor    int
		elevator bool
		want     int
	}{
		{"ground floor", 0, false, 0},
		{"basement", -1, false, 0},
		{"first floor", 1, false, 60},
		{"third floor", 3, false, 180},
		{"fourth floor", 4, false, 240},
		{"above fourth caps", 7, false, 240},
		{"attic sentinel caps", 99, false, 240},
		{"elevator waives", 5, true, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, floorSurcharge(tc.floor, tc.elevator))
		})
	}
}

func TestFloorSurchargeBothEnds(t *testing.T) {
	b := Calculate(Input{FromFloor: 2, ToFloor: 3, CustomerType: CustomerBusiness})
	assert.Equal(t, 300, b.FloorSurcharge, "both ends without elevator are charged")

	b = Calculate(Input{FromFloor: 2, ToFloor: 3, ToHasElevator: true, CustomerType: CustomerBusiness})
	assert.Equal(t, 120, b.FloorSurcharge)
}

func TestDistanceSurcharge(t *testing.T) {
	assert.Equal(t, 0, Calculate(Input{DistanceKm: 0, CustomerType: CustomerBusiness}).DistanceSurcharge)
	assert.Equal(t, 0, Calculate(Input{DistanceKm: 50, CustomerType: CustomerBusiness}).DistanceSurcharge)
	assert.Equal(t, 4, Calculate(Input{DistanceKm: 51, CustomerType: CustomerBusiness}).DistanceSurcharge,
		"1 km over the allowance rounds half-up")
	assert.Equal(t, 1918, Calculate(Input{DistanceKm: 598, CustomerType: CustomerBusiness}).DistanceSurcharge)
}

func TestFurniturePrice(t *testing.T) {
	b := Calculate(Input{Rooms: 3.5, FurnitureAssembly: true, CustomerType: CustomerBusiness})
	assert.Equal(t, 263, b.FurniturePrice, "3.5 rooms * 75 rounds half-up")
}

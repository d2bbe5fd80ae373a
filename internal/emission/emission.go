// Package emission converts logged activities into CO2-equivalent mass.
//
// The pipeline is two pure steps: normalize the raw (amount, unit) pair into
// the canonical unit for its physical quantity, then apply a category-specific
// emission factor. All factors are fixed constants; the calculator holds no
// state and is safe for concurrent use.
package emission

import (
	"strings"
	"time"
)

// Category is a footprint activity category.
type Category string

const (
	CategoryTransport Category = "transport"
	CategoryEnergy    Category = "energy"
	CategoryFood      Category = "food"
	CategoryPurchase  Category = "purchase"
	CategoryOther     Category = "other"
)

// Categories lists the known activity categories.
var Categories = []Category{
	CategoryTransport,
	CategoryEnergy,
	CategoryFood,
	CategoryPurchase,
	CategoryOther,
}

// IsKnownCategory reports whether s (case-insensitive) names a known category.
func IsKnownCategory(s string) bool {
	switch Category(strings.ToLower(s)) {
	case CategoryTransport, CategoryEnergy, CategoryFood, CategoryPurchase, CategoryOther:
		return true
	}
	return false
}

// Emission factors. Transport and food are kg CO2 per km / kg, energy is
// kg CO2 per kWh, purchase is tons CO2 per USD (scaled to kg at use).
const (
	factorCarPetrol   = 0.192
	factorBus         = 0.105
	factorShortFlight = 0.15

	factorElectricity = 0.475 // flat grid factor, no sub-type distinction

	factorBeef       = 27.0
	factorChicken    = 6.9
	factorPork       = 12.1
	factorFish       = 3.0
	factorDairy      = 3.2
	factorVegetables = 2.0
	factorFruits     = 1.1
	factorFoodOther  = 4.0

	factorPurchaseTonsPerUSD = 0.0005

	factorGenericFallback = 0.1
)

// transportKind is the closed set of transport sub-types. Unrecognized
// free-text input maps to transportUnknown, which carries the car factor.
type transportKind int

const (
	transportCar transportKind = iota
	transportBus
	transportFlight
	transportUnknown
)

func parseTransportKind(s string) transportKind {
	switch strings.ToLower(s) {
	case "car", "petrol", "gasoline", "car_petrol":
		return transportCar
	case "bus", "public_transport":
		return transportBus
	case "flight", "airplane", "plane":
		return transportFlight
	default:
		return transportUnknown
	}
}

func (k transportKind) factor() float64 {
	switch k {
	case transportBus:
		return factorBus
	case transportFlight:
		return factorShortFlight
	default:
		// Unknown sub-types default to car, matching historical behavior.
		return factorCarPetrol
	}
}

// foodKind is the closed set of food sub-types, with foodUnknown mapped to the
// average food factor.
type foodKind int

const (
	foodBeef foodKind = iota
	foodChicken
	foodPork
	foodFish
	foodDairy
	foodVegetables
	foodFruits
	foodUnknown
)

func parseFoodKind(s string) foodKind {
	switch strings.ToLower(s) {
	case "beef", "red_meat":
		return foodBeef
	case "chicken", "poultry":
		return foodChicken
	case "pork":
		return foodPork
	case "fish", "seafood":
		return foodFish
	case "dairy", "milk", "cheese":
		return foodDairy
	case "vegetables", "vegetable":
		return foodVegetables
	case "fruits", "fruit":
		return foodFruits
	default:
		return foodUnknown
	}
}

func (k foodKind) factor() float64 {
	switch k {
	case foodBeef:
		return factorBeef
	case foodChicken:
		return factorChicken
	case foodPork:
		return factorPork
	case foodFish:
		return factorFish
	case foodDairy:
		return factorDairy
	case foodVegetables:
		return factorVegetables
	case foodFruits:
		return factorFruits
	default:
		return factorFoodOther
	}
}

// Normalize converts a raw (amount, unit) pair into the canonical unit for its
// physical quantity: km for distance, kg for mass, kWh for energy, USD for
// currency. Canonical unit names are recognized exactly; everything else is
// matched by case-insensitive substrings whose order is part of the contract:
// "mile" is checked before the generic "m" rule so "miles" is never read as
// meters, and "lb"/"pound" before "g" so "pounds" is never read as grams.
// Unmatched units pass through unchanged.
func Normalize(amount float64, unit string) float64 {
	u := strings.ToLower(unit)

	// Canonical unit names pass through before any substring rule fires;
	// otherwise "km" would match the meters rule and "kg" the grams rule.
	switch u {
	case "km", "kg", "kwh", "usd":
		return amount
	}

	// Distance to km
	if strings.Contains(u, "mile") {
		return amount * 1.60934
	} else if strings.Contains(u, "m") {
		return amount / 1000 // meters to km
	}

	// Mass to kg
	if strings.Contains(u, "lb") || strings.Contains(u, "pound") {
		return amount * 0.453592
	} else if strings.Contains(u, "g") {
		return amount / 1000 // grams to kg
	}

	// Energy to kWh
	if strings.Contains(u, "mj") {
		return amount * 0.277778
	} else if strings.Contains(u, "btu") {
		return amount * 0.000293071
	}

	// Currency to USD (simplified fixed rates)
	if strings.Contains(u, "eur") {
		return amount * 1.1
	} else if strings.Contains(u, "gbp") {
		return amount * 1.25
	}

	return amount // assume already canonical
}

// Calculate returns the kg CO2 equivalent of one logged activity.
// meta carries optional sub-type hints: "transport_type" or "food_type",
// falling back to a generic "type" key.
func Calculate(category string, amount float64, unit string, meta map[string]string) float64 {
	normalized := Normalize(amount, unit)

	switch Category(strings.ToLower(category)) {
	case CategoryTransport:
		return normalized * parseTransportKind(subType(meta, "transport_type")).factor()
	case CategoryEnergy:
		return normalized * factorElectricity
	case CategoryFood:
		return normalized * parseFoodKind(subType(meta, "food_type")).factor()
	case CategoryPurchase:
		// Factor is tons CO2 per USD; scale to kg.
		return normalized * factorPurchaseTonsPerUSD * 1000
	default:
		return normalized * factorGenericFallback
	}
}

func subType(meta map[string]string, key string) string {
	if meta == nil {
		return ""
	}
	if v := meta[key]; v != "" {
		return v
	}
	return meta["type"]
}

// Activity is the derived portion of a footprint produced from one input row.
type Activity struct {
	Category Category
	CO2Kg    float64
	Date     time.Time
	Meta     map[string]any
}

// ParseRow converts a parsed CSV row into an Activity: it computes the CO2
// mass from the row's category/amount/unit/meta and packages every original
// input field plus the derived original_amount/original_unit into the
// activity metadata.
func ParseRow(category string, amount float64, unit, description string, date time.Time, extra map[string]string) Activity {
	meta := map[string]string{}
	for k, v := range extra {
		meta[k] = v
	}
	if description != "" {
		meta["description"] = description
	}

	co2 := Calculate(category, amount, unit, meta)

	out := make(map[string]any, len(meta)+2)
	for k, v := range meta {
		out[k] = v
	}
	out["original_amount"] = amount
	out["original_unit"] = unit

	return Activity{
		Category: Category(strings.ToLower(category)),
		CO2Kg:    co2,
		Date:     date,
		Meta:     out,
	}
}

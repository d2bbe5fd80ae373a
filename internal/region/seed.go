package region

import (
	"context"
	"fmt"

	"github.com/cialabs/carbonrisk/internal/idgen"
)

// SeedData is the reference set of vulnerable countries the dashboard maps.
// Values are illustrative, not authoritative hazard science.
var SeedData = []Region{
	{
		Name: "Bangladesh", ISOCode: "BGD",
		VulnerabilityIndex: 0.85, Population: 164_700_000,
		BaseHazardProb:   map[string]float64{"flood": 0.3, "drought": 0.15, "heatwave": 0.25, "storm": 0.4},
		ExposureFraction: 0.6,
	},
	{
		Name: "Philippines", ISOCode: "PHL",
		VulnerabilityIndex: 0.78, Population: 109_600_000,
		BaseHazardProb:   map[string]float64{"flood": 0.35, "drought": 0.1, "heatwave": 0.2, "storm": 0.45},
		ExposureFraction: 0.55,
	},
	{
		Name: "Haiti", ISOCode: "HTI",
		VulnerabilityIndex: 0.82, Population: 11_400_000,
		BaseHazardProb:   map[string]float64{"flood": 0.25, "drought": 0.2, "heatwave": 0.3, "storm": 0.35},
		ExposureFraction: 0.7,
	},
	{
		Name: "Mozambique", ISOCode: "MOZ",
		VulnerabilityIndex: 0.75, Population: 31_200_000,
		BaseHazardProb:   map[string]float64{"flood": 0.4, "drought": 0.25, "heatwave": 0.2, "storm": 0.3},
		ExposureFraction: 0.65,
	},
	{
		Name: "Myanmar", ISOCode: "MMR",
		VulnerabilityIndex: 0.72, Population: 54_400_000,
		BaseHazardProb:   map[string]float64{"flood": 0.3, "drought": 0.2, "heatwave": 0.25, "storm": 0.35},
		ExposureFraction: 0.5,
	},
	{
		Name: "Somalia", ISOCode: "SOM",
		VulnerabilityIndex: 0.88, Population: 15_800_000,
		BaseHazardProb:   map[string]float64{"flood": 0.15, "drought": 0.5, "heatwave": 0.4, "storm": 0.2},
		ExposureFraction: 0.8,
	},
	{
		Name: "Afghanistan", ISOCode: "AFG",
		VulnerabilityIndex: 0.8, Population: 38_900_000,
		BaseHazardProb:   map[string]float64{"flood": 0.2, "drought": 0.4, "heatwave": 0.3, "storm": 0.15},
		ExposureFraction: 0.75,
	},
	{
		Name: "Yemen", ISOCode: "YEM",
		VulnerabilityIndex: 0.85, Population: 29_800_000,
		BaseHazardProb:   map[string]float64{"flood": 0.1, "drought": 0.6, "heatwave": 0.35, "storm": 0.15},
		ExposureFraction: 0.7,
	},
	{
		Name: "Niger", ISOCode: "NER",
		VulnerabilityIndex: 0.83, Population: 24_200_000,
		BaseHazardProb:   map[string]float64{"flood": 0.2, "drought": 0.45, "heatwave": 0.4, "storm": 0.1},
		ExposureFraction: 0.8,
	},
	{
		Name: "Mali", ISOCode: "MLI",
		VulnerabilityIndex: 0.79, Population: 20_200_000,
		BaseHazardProb:   map[string]float64{"flood": 0.15, "drought": 0.4, "heatwave": 0.35, "storm": 0.1},
		ExposureFraction: 0.75,
	},
	{
		Name: "Chad", ISOCode: "TCD",
		VulnerabilityIndex: 0.81, Population: 16_400_000,
		BaseHazardProb:   map[string]float64{"flood": 0.25, "drought": 0.35, "heatwave": 0.3, "storm": 0.15},
		ExposureFraction: 0.8,
	},
	{
		Name: "Burkina Faso", ISOCode: "BFA",
		VulnerabilityIndex: 0.77, Population: 20_900_000,
		BaseHazardProb:   map[string]float64{"flood": 0.2, "drought": 0.35, "heatwave": 0.3, "storm": 0.15},
		ExposureFraction: 0.7,
	},
	{
		Name: "South Sudan", ISOCode: "SSD",
		VulnerabilityIndex: 0.84, Population: 11_100_000,
		BaseHazardProb:   map[string]float64{"flood": 0.3, "drought": 0.25, "heatwave": 0.25, "storm": 0.2},
		ExposureFraction: 0.75,
	},
	{
		Name: "Central African Republic", ISOCode: "CAF",
		VulnerabilityIndex: 0.8, Population: 4_800_000,
		BaseHazardProb:   map[string]float64{"flood": 0.2, "drought": 0.3, "heatwave": 0.3, "storm": 0.2},
		ExposureFraction: 0.7,
	},
	{
		Name: "Democratic Republic of Congo", ISOCode: "COD",
		VulnerabilityIndex: 0.76, Population: 89_500_000,
		BaseHazardProb:   map[string]float64{"flood": 0.25, "drought": 0.2, "heatwave": 0.25, "storm": 0.2},
		ExposureFraction: 0.6,
	},
}

// Seed inserts the reference regions into the store. Existing rows with the
// same ISO code are refreshed rather than duplicated (Postgres store); the
// memory store is assumed empty at startup.
func Seed(ctx context.Context, store Store) (int, error) {
	for i := range SeedData {
		r := SeedData[i] // copy; keep SeedData pristine
		r.ID = idgen.WithPrefix("rg_")
		if err := store.Create(ctx, &r); err != nil {
			return i, fmt.Errorf("seed region %s: %w", r.ISOCode, err)
		}
	}
	return len(SeedData), nil
}

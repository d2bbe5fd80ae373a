// Package hazard scores climate hazard risk for a region given a pool of
// CO2 emissions. The model is deliberately simple: emissions nudge a
// temperature delta, the delta scales each hazard's base probability, and
// the region's vulnerability and exposure translate probability into a
// bounded risk score and an affected-population estimate.
package hazard

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cialabs/carbonrisk/internal/region"
)

// Type identifies a climate hazard.
type Type string

const (
	Flood    Type = "flood"
	Drought  Type = "drought"
	Heatwave Type = "heatwave"
	Storm    Type = "storm"
)

// Types lists every hazard in evaluation order.
var Types = []Type{Flood, Drought, Heatwave, Storm}

// IsValid reports whether t names a known hazard.
func (t Type) IsValid() bool {
	switch t {
	case Flood, Drought, Heatwave, Storm:
		return true
	}
	return false
}

// alpha converts pooled emissions (tons CO2) into a temperature delta (degC).
const alpha = 1e-6

// beta is the per-hazard sensitivity of likelihood to the temperature delta.
var beta = map[Type]float64{
	Flood:    0.1,
	Drought:  0.15,
	Heatwave: 0.2,
	Storm:    0.12,
}

// Assessment is the scored outcome of one hazard for one region.
type Assessment struct {
	RiskScore    float64
	PeopleAtRisk float64
	Explanation  string
}

var englishPrinter = message.NewPrinter(language.English)

// Score evaluates hazard t for region r against pooled emissions in tons.
// It returns false when the region carries no base probability for t; such
// hazards are skipped rather than scored at zero.
func Score(r *region.Region, t Type, tons float64) (Assessment, bool) {
	baseProb, ok := r.BaseHazardProb[string(t)]
	if !ok {
		return Assessment{}, false
	}

	deltaTemp := tons * alpha
	likelihood := baseProb * (1 + beta[t]*deltaTemp)
	score := likelihood * r.VulnerabilityIndex
	if score > 1 {
		score = 1
	}
	people := score * float64(r.Population) * r.ExposureFraction

	return Assessment{
		RiskScore:    score,
		PeopleAtRisk: people,
		Explanation:  explain(r, t, tons, deltaTemp, baseProb, likelihood, score, people),
	}, true
}

func explain(r *region.Region, t Type, tons, deltaTemp, baseProb, likelihood, score, people float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s risk assessment for %s:\n", titleCase(string(t)), r.Name)
	fmt.Fprintf(&b, "- Total emissions: %.2f tons CO2\n", tons)
	// displayed in millidegrees so small pools still show movement
	fmt.Fprintf(&b, "- Temperature increase: %.4f°C\n", deltaTemp*1000)
	fmt.Fprintf(&b, "- Base %s probability: %.1f%%\n", t, baseProb*100)
	fmt.Fprintf(&b, "- Adjusted probability: %.1f%%\n", likelihood*100)
	fmt.Fprintf(&b, "- Vulnerability index: %.1f%%\n", r.VulnerabilityIndex*100)
	fmt.Fprintf(&b, "- Risk score: %.1f%%\n", score*100)
	fmt.Fprintf(&b, "- People at risk: %s", englishPrinter.Sprintf("%d", int64(people+0.5)))
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

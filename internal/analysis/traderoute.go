package analysis

import (
	"fmt"
	"strings"

	"supplyguard/internal/common/config"
	"supplyguard/internal/models"
)

// TradeRoute scores a route from per-country base risk. The combined
// score is the worst country on the route, raised by a complexity factor
// proportional to the number of transit hops.
type TradeRoute struct {
	bands         models.LevelBands
	countryRisk   map[string]float64
	unknownRisk   float64
	transitFactor float64
}

// defaultCountryRisk is the built-in base risk table, merged with any
// configured overrides.
var defaultCountryRisk = map[string]float64{
	"united states":  20,
	"germany":        15,
	"japan":          18,
	"united kingdom": 22,
	"france":         25,
	"canada":         18,
	"south korea":    30,
	"italy":          35,
	"china":          45,
	"india":          50,
	"russia":         70,
	"iran":           85,
	"north korea":    95,
	"venezuela":      80,
	"syria":          90,
}

func NewTradeRoute(cfg config.AnalysisConfig) *TradeRoute {
	risk := make(map[string]float64, len(defaultCountryRisk))
	for country, v := range defaultCountryRisk {
		risk[country] = v
	}
	for country, v := range cfg.TradeRoute.CountryRisk {
		risk[strings.ToLower(country)] = v
	}
	return &TradeRoute{
		bands:         bandsFrom(cfg.Bands),
		countryRisk:   risk,
		unknownRisk:   cfg.TradeRoute.UnknownCountryRisk,
		transitFactor: cfg.TradeRoute.TransitFactor,
	}
}

// AnalyzeRoute scores origin -> transits -> destination. Countries
// absent from the table contribute the configured unknown-country risk
// and are surfaced in details.
func (t *TradeRoute) AnalyzeRoute(origin, destination string, transits ...string) models.RiskScore {
	if origin == "" && destination == "" && len(transits) == 0 {
		return zeroResult("trade_route")
	}

	countries := make([]string, 0, len(transits)+2)
	if origin != "" {
		countries = append(countries, origin)
	}
	countries = append(countries, transits...)
	if destination != "" {
		countries = append(countries, destination)
	}

	var worst float64
	var unknown []string
	perCountry := make(map[string]float64, len(countries))

	for _, country := range countries {
		risk, ok := t.countryRisk[strings.ToLower(country)]
		if !ok {
			risk = t.unknownRisk
			unknown = append(unknown, country)
		}
		perCountry[country] = risk
		if risk > worst {
			worst = risk
		}
	}

	// Each transit hop adds handling and border exposure.
	complexity := 1 + t.transitFactor*float64(len(transits))
	score := clampScore(worst * complexity)
	level := t.bands.Level(score)

	details := map[string]interface{}{
		"country_risk":      perCountry,
		"worst_country":     worst,
		"transit_count":     len(transits),
		"complexity_factor": complexity,
	}
	if len(unknown) > 0 {
		details["unknown_countries"] = unknown
		details["condition"] = string(errCodeUnknownEntity)
	}

	return models.RiskScore{
		Dimension:       "trade_route",
		Score:           round1(score),
		Level:           level,
		Summary:         fmt.Sprintf("route through %d countries, worst base risk %.0f", len(countries), worst),
		Recommendations: tradeRouteRecommendations(level, unknown),
		Confidence:      tradeRouteConfidence(len(countries), len(unknown)),
		Provenance:      models.ProvenanceTraditional,
		Details:         details,
	}
}

// AnalyzeEquipment scores the manufacturing-to-destination route of one
// piece of equipment.
func (t *TradeRoute) AnalyzeEquipment(eq models.Equipment, transits ...string) models.RiskScore {
	res := t.AnalyzeRoute(eq.ManufacturingCountry, eq.DestinationCountry, transits...)
	if res.Details == nil {
		res.Details = map[string]interface{}{}
	}
	res.Details["equipment"] = eq.Name
	return res
}

const errCodeUnknownEntity = "UNKNOWN_ENTITY"

func tradeRouteConfidence(total, unknown int) float64 {
	if total == 0 {
		return 0
	}
	return round1(0.9 * float64(total-unknown) / float64(total))
}

func tradeRouteRecommendations(level models.RiskLevel, unknown []string) []string {
	var recs []string
	switch level {
	case models.RiskCritical:
		recs = append(recs, "Avoid routing through the highest-risk country where possible")
	case models.RiskHigh:
		recs = append(recs, "Evaluate alternative routes with lower base risk")
	}
	if len(unknown) > 0 {
		recs = append(recs, "Add missing countries to the risk table before relying on this score")
	}
	if len(recs) == 0 {
		recs = []string{"Route risk within tolerance"}
	}
	return recs
}

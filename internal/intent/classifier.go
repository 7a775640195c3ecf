// Package intent classifies queries into risk domains and pulls out the
// entities the agents will need. Classification never fails: a query
// that matches nothing is a general query, not an error.
package intent

import (
	"regexp"
	"sort"
	"strings"

	"supplyguard/internal/common/logger"
	"supplyguard/internal/models"
)

const (
	keywordScore = 2
	patternScore = 3
)

type domainRule struct {
	domain   models.Domain
	keywords []string
	patterns []*regexp.Regexp
}

var domainRules = []domainRule{
	{
		domain: models.DomainScheduling,
		keywords: []string{
			"schedule", "delay", "deadline", "delivery", "late",
			"timeline", "overdue", "on time", "eta",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)when\s+(will|does|is).*(arrive|deliver|complete)`),
			regexp.MustCompile(`(?i)(behind|ahead of)\s+schedule`),
		},
	},
	{
		domain: models.DomainPolitical,
		keywords: []string{
			"political", "sanction", "war", "conflict", "government",
			"election", "geopolitical", "instability", "embargo",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)political\s+risk`),
			regexp.MustCompile(`(?i)(risk|exposure)\s+(for|from|in)\s+[A-Z][a-z]+`),
		},
	},
	{
		domain: models.DomainLogistics,
		keywords: []string{
			"logistics", "shipping", "port", "transport", "freight",
			"customs", "carrier", "container", "route",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(shipping|port|transport)\s+(disruption|delay|closure)`),
		},
	},
	{
		domain: models.DomainTariff,
		keywords: []string{
			"tariff", "duty", "duties", "import", "export",
			"trade policy", "quota", "customs fee",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)trade\s+(war|barrier|policy)`),
		},
	},
}

// knownCountries is the extraction vocabulary, matching the trade-route
// risk table.
var knownCountries = []string{
	"United States", "Germany", "Japan", "United Kingdom", "France",
	"Canada", "South Korea", "Italy", "China", "India", "Russia",
	"Iran", "North Korea", "Venezuela", "Syria",
}

var equipmentCategories = []string{
	"semiconductor", "electronics", "machinery", "automotive",
	"pharmaceutical", "chemicals", "steel", "textiles",
}

var timePhrases = map[string]int{
	"today":        1,
	"tomorrow":     1,
	"this week":    7,
	"next week":    7,
	"this month":   30,
	"next month":   30,
	"this quarter": 90,
	"next quarter": 90,
}

// Classifier ranks domains for a query. Stateless and safe for
// concurrent use.
type Classifier struct {
	logger logger.Logger
}

func NewClassifier(log logger.Logger) *Classifier {
	return &Classifier{logger: log}
}

// Classify scores every domain against the query text. No hit at all
// produces a general intent with low confidence.
func (c *Classifier) Classify(query models.Query) models.Intent {
	lowered := strings.ToLower(query.Text)

	var matches []models.DomainMatch
	for _, rule := range domainRules {
		var score float64
		var hit []string
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				score += keywordScore
				hit = append(hit, kw)
			}
		}
		for _, p := range rule.patterns {
			if p.MatchString(query.Text) {
				score += patternScore
				hit = append(hit, p.String())
			}
		}
		if score > 0 {
			matches = append(matches, models.DomainMatch{
				Domain:  rule.domain,
				Score:   score,
				Matched: hit,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	entities := c.extractEntities(query)

	if len(matches) == 0 {
		return models.Intent{
			Matches:    []models.DomainMatch{{Domain: models.DomainGeneral, Score: 0}},
			Entities:   entities,
			Confidence: 0.3,
		}
	}

	confidence := matches[0].Score / 10
	if confidence > 1 {
		confidence = 1
	}

	c.logger.Debug("Query classified", map[string]interface{}{
		"primary":    string(matches[0].Domain),
		"domains":    len(matches),
		"confidence": confidence,
	})

	return models.Intent{
		Matches:    matches,
		Entities:   entities,
		Confidence: confidence,
	}
}

func (c *Classifier) extractEntities(query models.Query) models.Entities {
	lowered := strings.ToLower(query.Text)
	var out models.Entities

	for _, country := range knownCountries {
		if strings.Contains(lowered, strings.ToLower(country)) {
			out.Countries = append(out.Countries, country)
		}
	}
	for _, cat := range equipmentCategories {
		if strings.Contains(lowered, cat) {
			out.EquipmentCategories = append(out.EquipmentCategories, cat)
		}
	}
	for phrase, days := range timePhrases {
		if strings.Contains(lowered, phrase) {
			out.TimePhrases = append(out.TimePhrases, phrase)
			if out.WindowDays == 0 || days < out.WindowDays {
				out.WindowDays = days
			}
		}
	}
	sort.Strings(out.TimePhrases)

	// Explicit context narrows harder than extracted text.
	if query.Context != nil {
		if query.Context.Country != "" && !contains(out.Countries, query.Context.Country) {
			out.Countries = append(out.Countries, query.Context.Country)
		}
		if query.Context.EquipmentCategory != "" && !contains(out.EquipmentCategories, query.Context.EquipmentCategory) {
			out.EquipmentCategories = append(out.EquipmentCategories, query.Context.EquipmentCategory)
		}
		if query.Context.WindowDays > 0 {
			out.WindowDays = query.Context.WindowDays
		}
	}

	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

package models

type Domain string

const (
	DomainScheduling Domain = "scheduling"
	DomainPolitical  Domain = "political"
	DomainLogistics  Domain = "logistics"
	DomainTariff     Domain = "tariff"
	DomainGeneral    Domain = "general"
)

// Query is a user request entering the engine.
type Query struct {
	Text    string        `json:"text"`
	Context *QueryContext `json:"context,omitempty"`
}

// QueryContext narrows a query without changing its text.
type QueryContext struct {
	Country           string `json:"country,omitempty"`
	EquipmentCategory string `json:"equipmentCategory,omitempty"`
	WindowDays        int    `json:"windowDays,omitempty"`
}

// DomainMatch is one scored domain hit from classification.
type DomainMatch struct {
	Domain  Domain   `json:"domain"`
	Score   float64  `json:"score"`
	Matched []string `json:"matched,omitempty"`
}

// Entities are the structured values pulled out of query text.
type Entities struct {
	Countries           []string `json:"countries,omitempty"`
	EquipmentCategories []string `json:"equipmentCategories,omitempty"`
	TimePhrases         []string `json:"timePhrases,omitempty"`
	WindowDays          int      `json:"windowDays,omitempty"`
}

// Intent is the classifier's reading of a query. Matches are ordered by
// descending score; a query can hit several domains at once.
type Intent struct {
	Matches    []DomainMatch `json:"matches"`
	Entities   Entities      `json:"entities"`
	Confidence float64       `json:"confidence"`
}

// Primary returns the best-scoring domain, or general when nothing matched.
func (i Intent) Primary() Domain {
	if len(i.Matches) == 0 {
		return DomainGeneral
	}
	return i.Matches[0].Domain
}

// Domains returns all matched domains in rank order.
func (i Intent) Domains() []Domain {
	out := make([]Domain, 0, len(i.Matches))
	for _, m := range i.Matches {
		out = append(out, m.Domain)
	}
	return out
}

package domain

// PestelCategory is one of the six macro-environment categories, each scored 1–5.
type PestelCategory string

const (
	PestelPolitical     PestelCategory = "political"
	PestelEconomic      PestelCategory = "economic"
	PestelSocial        PestelCategory = "social"
	PestelTechnological PestelCategory = "technological"
	PestelEcological    PestelCategory = "ecological"
	PestelLegal         PestelCategory = "legal"
)

// PestelCategories lists the categories in form and rule order.
var PestelCategories = []PestelCategory{
	PestelPolitical,
	PestelEconomic,
	PestelSocial,
	PestelTechnological,
	PestelEcological,
	PestelLegal,
}

var pestelLabels = map[PestelCategory]string{
	PestelPolitical:     "Political",
	PestelEconomic:      "Economic",
	PestelSocial:        "Social",
	PestelTechnological: "Technological",
	PestelEcological:    "Ecological",
	PestelLegal:         "Legal",
}

// Label returns the display label of the category.
func (c PestelCategory) Label() string {
	if label, ok := pestelLabels[c]; ok {
		return label
	}
	return string(c)
}

// Valid reports whether c is one of the six known categories.
func (c PestelCategory) Valid() bool {
	_, ok := pestelLabels[c]
	return ok
}

// PorterForce is one of the five competitive forces.
type PorterForce string

const (
	PorterNewEntrants PorterForce = "new-entrants"
	PorterBuyers      PorterForce = "buyers"
	PorterSubstitutes PorterForce = "substitutes"
	PorterCompetition PorterForce = "competition"
	PorterSuppliers   PorterForce = "suppliers"
)

// PorterForces lists the forces in form order.
var PorterForces = []PorterForce{
	PorterNewEntrants,
	PorterBuyers,
	PorterSubstitutes,
	PorterCompetition,
	PorterSuppliers,
}

var porterLabels = map[PorterForce]string{
	PorterNewEntrants: "Threat of new entrants",
	PorterBuyers:      "Bargaining power of buyers",
	PorterSubstitutes: "Threat of substitutes",
	PorterCompetition: "Competitive rivalry",
	PorterSuppliers:   "Bargaining power of suppliers",
}

// Label returns the display label of the force.
func (f PorterForce) Label() string {
	if label, ok := porterLabels[f]; ok {
		return label
	}
	return string(f)
}

// Valid reports whether f is one of the five known forces.
func (f PorterForce) Valid() bool {
	_, ok := porterLabels[f]
	return ok
}

package catalog

import (
	"bytes"
	"encoding/json"
	"strings"

	"stratsim/internal/input"
	"stratsim/pkg/domain"
)

// number accepts a JSON number, a numeric string or null. Catalog files are
// hand edited, so values are coerced the same way form input is.
type number struct {
	raw string
	set bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = number{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = number{raw: s, set: strings.TrimSpace(s) != ""}
		return nil
	}
	*n = number{raw: string(b), set: true}
	return nil
}

func (n number) Int() int          { return input.Int(n.raw) }
func (n number) Float() float64    { return input.Float(n.raw) }
func (n number) OptionalInt() *int { return input.OptionalInt(n.raw) }

type productRecord struct {
	ID     number `json:"id"`
	Name   string `json:"name"`
	Nombre string `json:"nombre"`
	Unit   string `json:"unit"`
	Unidad string `json:"unidad"`
}

func (r productRecord) toDomain() domain.Product {
	return domain.Product{ID: r.ID.Int(), Name: firstNonEmpty(r.Name, r.Nombre), Unit: firstNonEmpty(r.Unit, r.Unidad)}
}

type clientRecord struct {
	ID     number `json:"id"`
	Name   string `json:"name"`
	Nombre string `json:"nombre"`
	Type   string `json:"type"`
	Tipo   string `json:"tipo"`
}

func (r clientRecord) toDomain() domain.Client {
	kind, ok := domain.ParseClientType(firstNonEmpty(r.Type, r.Tipo))
	if !ok {
		kind = domain.ClientTypeFintech
	}
	return domain.Client{ID: r.ID.Int(), Name: firstNonEmpty(r.Name, r.Nombre), Type: kind}
}

type strategyRecord struct {
	ID              number `json:"id"`
	Nombre          string `json:"nombre"`
	Tipo            string `json:"tipo"`
	ProductoID      number `json:"productoId"`
	Inversion       number `json:"inversion"`
	Duracion        number `json:"duracion"`
	ImpactoIngresos number `json:"impactoIngresos"`
	ImpactoCostos   number `json:"impactoCostos"`
	Activa          bool   `json:"activa"`
}

func (r strategyRecord) toDomain() domain.Strategy {
	s := domain.Strategy{
		Name:            r.Nombre,
		Type:            domain.ParseStrategyType(r.Tipo),
		TargetProductID: r.ProductoID.OptionalInt(),
		Investment:      r.Inversion.Float(),
		DurationMonths:  r.Duracion.Int(),
		RevenueImpact:   r.ImpactoIngresos.Float(),
		CostImpact:      r.ImpactoCostos.Float(),
		Active:          r.Activa,
	}
	if r.ID.set {
		s.ID = "catalog-" + strings.TrimSpace(r.ID.raw)
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

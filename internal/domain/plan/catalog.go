package plan

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Catalog is the YAML document cmd/seed loads plans and benefits from.
type Catalog struct {
	Plans    []CatalogPlan    `yaml:"plans"`
	Benefits []CatalogBenefit `yaml:"benefits"`
}

type CatalogPlan struct {
	Slug         string   `yaml:"slug"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Price        string   `yaml:"price"`
	DurationDays int      `yaml:"duration_days"`
	Inactive     bool     `yaml:"inactive"`
	Benefits     []string `yaml:"benefits"`
}

type CatalogBenefit struct {
	Slug     string                 `yaml:"slug"`
	Name     string                 `yaml:"name"`
	Type     BenefitType            `yaml:"type"`
	Value    map[string]interface{} `yaml:"value"`
	Partners []string               `yaml:"partners"`
}

// catalogEntry is a validated benefit ready for upsert.
type catalogEntry struct {
	benefit  Benefit
	partners []uuid.UUID
}

// LoadCatalog decodes and validates a catalog. Every benefit value must
// match its type and every plan may only reference declared benefits.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if _, _, err := c.build(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) build() ([]Plan, map[string]catalogEntry, error) {
	benefits := make(map[string]catalogEntry, len(c.Benefits))
	for _, cb := range c.Benefits {
		if cb.Slug == "" || cb.Name == "" {
			return nil, nil, fmt.Errorf("%w: benefit needs slug and name", ErrInvalidCatalog)
		}
		if _, dup := benefits[cb.Slug]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate benefit %q", ErrInvalidCatalog, cb.Slug)
		}
		raw, err := json.Marshal(cb.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: benefit %q: %v", ErrInvalidCatalog, cb.Slug, err)
		}
		value, err := DecodeValue(cb.Type, raw)
		if err != nil {
			return nil, nil, fmt.Errorf("benefit %q: %w", cb.Slug, err)
		}

		entry := catalogEntry{benefit: Benefit{
			ID:       uuid.New(),
			Slug:     cb.Slug,
			Name:     cb.Name,
			Type:     cb.Type,
			ValueRaw: raw,
			Value:    value,
			Active:   true,
		}}
		for _, p := range cb.Partners {
			id, err := uuid.Parse(p)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: benefit %q: partner %q is not a uuid", ErrInvalidCatalog, cb.Slug, p)
			}
			entry.partners = append(entry.partners, id)
		}
		benefits[cb.Slug] = entry
	}

	plans := make([]Plan, 0, len(c.Plans))
	seen := make(map[string]bool, len(c.Plans))
	for _, cp := range c.Plans {
		if cp.Slug == "" || cp.Name == "" || seen[cp.Slug] {
			return nil, nil, fmt.Errorf("%w: plan %q needs a unique slug and a name", ErrInvalidCatalog, cp.Slug)
		}
		seen[cp.Slug] = true

		price, err := decimal.NewFromString(cp.Price)
		if err != nil || price.IsNegative() {
			return nil, nil, fmt.Errorf("%w: plan %q: invalid price %q", ErrInvalidCatalog, cp.Slug, cp.Price)
		}
		if cp.DurationDays <= 0 {
			return nil, nil, fmt.Errorf("%w: plan %q: duration_days must be positive", ErrInvalidCatalog, cp.Slug)
		}
		for _, slug := range cp.Benefits {
			if _, ok := benefits[slug]; !ok {
				return nil, nil, fmt.Errorf("%w: plan %q references unknown benefit %q", ErrInvalidCatalog, cp.Slug, slug)
			}
		}

		plans = append(plans, Plan{
			ID:           uuid.New(),
			Slug:         cp.Slug,
			Name:         cp.Name,
			Description:  cp.Description,
			Price:        price.Round(2),
			DurationDays: cp.DurationDays,
			Active:       !cp.Inactive,
		})
	}
	return plans, benefits, nil
}

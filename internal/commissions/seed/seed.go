// Package seed loads commission rules from a YAML file.
package seed

import (
	"context"
	"fmt"
	"io"
	"strings"

	"telesales_backend/internal/commissions/repository"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type file struct {
	Rules []ruleDoc `yaml:"rules"`
}

type ruleDoc struct {
	Name            string `yaml:"name"`
	Type            string `yaml:"type"`
	FixedAmount     string `yaml:"fixed_amount"`
	PercentageValue string `yaml:"percentage_value"`
	MinOrderValue   string `yaml:"min_order_value"`
	MaxOrderValue   string `yaml:"max_order_value"`
	Active          *bool  `yaml:"active"`
	Default         bool   `yaml:"default"`
}

// Parse reads and validates a rules document:
//
//	rules:
//	  - name: Standard
//	    type: hybrid
//	    fixed_amount: "50"
//	    percentage_value: "3"
//	    default: true
//
// Rules are active unless "active: false" is given. At most one rule may be
// the default.
func Parse(r io.Reader) ([]repository.UpsertRuleParams, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("no rules defined")
		}
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("no rules defined")
	}

	seen := make(map[string]bool, len(doc.Rules))
	defaults := 0
	out := make([]repository.UpsertRuleParams, 0, len(doc.Rules))
	for i, d := range doc.Rules {
		p, err := d.params()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("rule %d: duplicate name %q", i+1, p.Name)
		}
		seen[p.Name] = true
		if p.IsDefault {
			defaults++
		}
		out = append(out, p)
	}
	if defaults > 1 {
		return nil, fmt.Errorf("%d rules are marked default, expected at most one", defaults)
	}
	return out, nil
}

func (d ruleDoc) params() (repository.UpsertRuleParams, error) {
	p := repository.UpsertRuleParams{
		Name:      strings.TrimSpace(d.Name),
		Type:      strings.ToLower(strings.TrimSpace(d.Type)),
		IsActive:  d.Active == nil || *d.Active,
		IsDefault: d.Default,
	}
	if p.Name == "" {
		return p, fmt.Errorf("name is required")
	}
	switch p.Type {
	case repository.TypeFixed, repository.TypePercentage, repository.TypeHybrid:
	default:
		return p, fmt.Errorf("unknown type %q", d.Type)
	}
	if p.IsDefault && !p.IsActive {
		return p, fmt.Errorf("default rule %q must be active", p.Name)
	}

	var err error
	if p.FixedAmount, err = amount(d.FixedAmount, "fixed_amount"); err != nil {
		return p, err
	}
	if p.PercentageValue, err = amount(d.PercentageValue, "percentage_value"); err != nil {
		return p, err
	}
	if p.PercentageValue.GreaterThan(decimal.NewFromInt(100)) {
		return p, fmt.Errorf("percentage_value cannot exceed 100")
	}
	if p.MinOrderValue, err = optionalAmount(d.MinOrderValue, "min_order_value"); err != nil {
		return p, err
	}
	if p.MaxOrderValue, err = optionalAmount(d.MaxOrderValue, "max_order_value"); err != nil {
		return p, err
	}
	return p, nil
}

func amount(raw, field string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s cannot be negative", field)
	}
	return v, nil
}

func optionalAmount(raw, field string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.NullDecimal{}, nil
	}
	v, err := amount(raw, field)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: v, Valid: true}, nil
}

// Store is what Apply writes through.
type Store interface {
	UpsertRule(ctx context.Context, p repository.UpsertRuleParams) (repository.Rule, error)
	ClearDefaults(ctx context.Context, keep string) error
}

// Apply upserts rules by name. When one of them is the default, every other
// rule loses the flag. Callers run it in a single transaction.
func Apply(ctx context.Context, store Store, rules []repository.UpsertRuleParams) ([]repository.Rule, error) {
	saved := make([]repository.Rule, 0, len(rules))
	for _, p := range rules {
		if p.IsDefault {
			if err := store.ClearDefaults(ctx, p.Name); err != nil {
				return nil, err
			}
		}
		rule, err := store.UpsertRule(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("upsert %q: %w", p.Name, err)
		}
		saved = append(saved, rule)
	}
	return saved, nil
}

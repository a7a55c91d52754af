package replenishment

import (
	"context"

	"lotledger/internal/domain"
	"lotledger/internal/domain/catalogs/product"
	"lotledger/pkg/logger"
)

// Suggestion is one product flagged for reordering.
type Suggestion struct {
	Product *product.Product `json:"product"`

	// Shortfall is how far stock sits below the reorder point
	Shortfall float64 `json:"shortfall"`
}

// Service scans the catalog for products matching the replenishment
// rule. Read-only; placing the replenishment order remains a human
// decision.
type Service struct {
	productRepo product.Repository
	rule        *Rule
}

// NewService creates a replenishment service with the given rule, or
// the default rule when expression is empty.
func NewService(productRepo product.Repository, expression string) (*Service, error) {
	if expression == "" {
		expression = DefaultExpression
	}
	rule, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return &Service{productRepo: productRepo, rule: rule}, nil
}

// Rule returns the active rule.
func (s *Service) Rule() *Rule {
	return s.rule
}

// Scan returns products the rule currently flags.
func (s *Service) Scan(ctx context.Context, filter domain.ListFilter) ([]Suggestion, error) {
	result, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0)
	for _, p := range result.Items {
		matched, err := s.rule.Matches(p)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Product:   p,
			Shortfall: p.ReorderPoint.Float64() - p.CurrentStock.Float64(),
		})
	}

	logger.Debug(ctx, "replenishment scan finished",
		"checked", len(result.Items),
		"flagged", len(suggestions))
	return suggestions, nil
}

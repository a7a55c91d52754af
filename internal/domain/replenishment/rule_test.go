package replenishment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/types"
	"lotledger/internal/domain/catalogs/product"
)

func makeProduct(stock, reorder float64) *product.Product {
	p := product.NewProduct("WID-01", "Widget", product.CategoryComponent)
	p.CurrentStock = types.NewQuantityFromFloat64(stock)
	p.ReorderPoint = types.NewQuantityFromFloat64(reorder)
	return p
}

func TestDefaultRule(t *testing.T) {
	rule := MustCompile(DefaultExpression)

	tests := []struct {
		name    string
		stock   float64
		reorder float64
		want    bool
	}{
		{"below reorder point", 5, 10, true},
		{"at reorder point", 10, 10, true},
		{"above reorder point", 15, 10, false},
		{"no reorder point configured", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rule.Matches(makeProduct(tt.stock, tt.reorder))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCustomRuleSeesCategory(t *testing.T) {
	rule, err := Compile(`category == "component" && current_stock < 100.0`)
	require.NoError(t, err)

	got, err := rule.Matches(makeProduct(50, 0))
	require.NoError(t, err)
	assert.True(t, got)

	finished := makeProduct(50, 0)
	finished.Category = product.CategoryFinished
	got, err = rule.Matches(finished)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestCompileRejectsBadExpressions(t *testing.T) {
	_, err := Compile(`current_stock <`)
	assert.Error(t, err)

	_, err = Compile(`current_stock + reorder_point`)
	assert.Error(t, err, "non-boolean result must be rejected")
}

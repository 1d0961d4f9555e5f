package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }

func TestStructuredQuery_Validate(t *testing.T) {
	q := &StructuredQuery{
		Keywords:    []string{"bluetooth", "earbuds"},
		TargetPrice: &PriceRange{Max: f64(10)},
		MOQ:         &QuantityRange{Max: i(1000)},
	}
	require.NoError(t, q.Validate())
}

func TestStructuredQuery_Validate_InvertedPriceRange(t *testing.T) {
	q := &StructuredQuery{
		Keywords:    []string{"earbuds"},
		TargetPrice: &PriceRange{Min: f64(20), Max: f64(10)},
	}
	err := q.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_price")
}

func TestStructuredQuery_Validate_InvertedMOQRange(t *testing.T) {
	q := &StructuredQuery{
		MOQ: &QuantityRange{Min: i(5000), Max: i(100)},
	}
	err := q.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moq")
}

func TestStructuredQuery_Validate_NegativePrice(t *testing.T) {
	q := &StructuredQuery{
		TargetPrice: &PriceRange{Min: f64(-1)},
	}
	assert.Error(t, q.Validate())
}

func TestQuantityRange_Ceiling(t *testing.T) {
	assert.Nil(t, (*QuantityRange)(nil).Ceiling())
	assert.Nil(t, (&QuantityRange{}).Ceiling())
	assert.Equal(t, 500, *(&QuantityRange{Min: i(500)}).Ceiling())
	// Max wins over min when both are present.
	assert.Equal(t, 1000, *(&QuantityRange{Min: i(500), Max: i(1000)}).Ceiling())
}

func TestQuantityRange_Floor(t *testing.T) {
	assert.Equal(t, 1, (*QuantityRange)(nil).Floor())
	assert.Equal(t, 1, (&QuantityRange{}).Floor())
	assert.Equal(t, 500, (&QuantityRange{Min: i(500), Max: i(1000)}).Floor())
	assert.Equal(t, 1000, (&QuantityRange{Max: i(1000)}).Floor())
}

func TestStructuredQuery_SpecialRequirements(t *testing.T) {
	q := &StructuredQuery{SpecialRequirements: []string{RequirementDropshipping}}
	assert.True(t, q.RequiresDropshipping())
	assert.False(t, q.RequiresOEM())

	q = &StructuredQuery{}
	assert.False(t, q.RequiresDropshipping())
}

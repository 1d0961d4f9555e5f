// Package types provides type definitions for structured data used throughout the sourcing-agent system.
package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Special requirement flags recognized by the matching engine.
const (
	RequirementDropshipping = "dropshipping-required"
	RequirementOEM          = "oem-required"
)

// PriceRange is an inclusive price band. Either bound may be nil (unbounded).
type PriceRange struct {
	Min *float64 `json:"min,omitempty" validate:"omitempty,gte=0"`
	Max *float64 `json:"max,omitempty" validate:"omitempty,gte=0"`
}

// QuantityRange expresses the buyer's acceptable order-quantity band.
// For MOQ checks the ceiling is Max when present, otherwise Min.
type QuantityRange struct {
	Min *int `json:"min,omitempty" validate:"omitempty,gte=1"`
	Max *int `json:"max,omitempty" validate:"omitempty,gte=1"`
}

// Ceiling returns the largest MOQ the buyer will accept, or nil when the
// range carries no bound at all.
func (q *QuantityRange) Ceiling() *int {
	if q == nil {
		return nil
	}
	if q.Max != nil {
		return q.Max
	}
	return q.Min
}

// Floor returns the buyer's preferred order quantity (min, falling back to
// max, falling back to 1) used by the MOQ scoring ladder.
func (q *QuantityRange) Floor() int {
	if q == nil {
		return 1
	}
	if q.Min != nil {
		return *q.Min
	}
	if q.Max != nil {
		return *q.Max
	}
	return 1
}

// StructuredQuery is the normalized sourcing intent extracted from user input.
type StructuredQuery struct {
	Keywords            []string       `json:"keywords"`
	Category            string         `json:"category,omitempty"`
	TargetPrice         *PriceRange    `json:"target_price,omitempty"`
	MOQ                 *QuantityRange `json:"moq,omitempty"`
	Certifications      []string       `json:"certifications,omitempty"`
	SpecialRequirements []string       `json:"special_requirements,omitempty"`
	OriginalQuery       string         `json:"original_query,omitempty"`
}

// RequiresDropshipping reports whether the query carries the dropshipping flag.
func (q *StructuredQuery) RequiresDropshipping() bool {
	return q.hasRequirement(RequirementDropshipping)
}

// RequiresOEM reports whether the query carries the OEM flag.
func (q *StructuredQuery) RequiresOEM() bool {
	return q.hasRequirement(RequirementOEM)
}

func (q *StructuredQuery) hasRequirement(flag string) bool {
	for _, r := range q.SpecialRequirements {
		if r == flag {
			return true
		}
	}
	return false
}

// Validate checks the query for malformed ranges. Inverted bounds are
// rejected here rather than silently reordered.
func (q *StructuredQuery) Validate() error {
	validate := validator.New()
	if err := validate.Struct(q); err != nil {
		return err
	}

	if q.TargetPrice != nil && q.TargetPrice.Min != nil && q.TargetPrice.Max != nil {
		if *q.TargetPrice.Min > *q.TargetPrice.Max {
			return fmt.Errorf("invalid target_price range: min %.2f exceeds max %.2f", *q.TargetPrice.Min, *q.TargetPrice.Max)
		}
	}
	if q.MOQ != nil && q.MOQ.Min != nil && q.MOQ.Max != nil {
		if *q.MOQ.Min > *q.MOQ.Max {
			return fmt.Errorf("invalid moq range: min %d exceeds max %d", *q.MOQ.Min, *q.MOQ.Max)
		}
	}

	return nil
}

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStepInput(t *testing.T) {
	input := &TaskStepInput{
		Step:   "supplier_matching",
		Kind:   "system_action",
		Status: "pending",
	}

	assert.Equal(t, "supplier_matching", input.Step)
	assert.Equal(t, "system_action", input.Kind)
	assert.Equal(t, "pending", input.Status)
}

func TestDefaultPageCacheTTL(t *testing.T) {
	assert.Equal(t, 7*24*60*60.0, DefaultPageCacheTTL.Seconds())
}

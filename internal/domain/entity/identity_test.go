package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fty-ops/alert-registry/internal/domain/entity"
)

func TestIdentityEqualCaseInsensitive(t *testing.T) {
	a := entity.Identity{Rule: "Threshold", Element: "Žluťoučký kůň супер"}
	b := entity.Identity{Rule: "threshold", Element: "žluťoučký kůň супер"}
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
}

func TestIdentityNotEqual(t *testing.T) {
	a := entity.Identity{Rule: "Threshold", Element: "ups"}
	b := entity.Identity{Rule: "Threshold", Element: "ups2"}
	assert.False(t, a.Equal(b))
}

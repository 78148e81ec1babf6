package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	base := NewStd("no voxels in roi")
	err := New(base).
		Component("spine").
		Category(CategoryROI).
		Context("level", "T5").
		Build()

	assert.Equal(t, "no voxels in roi", err.Error())
	assert.Equal(t, "spine", err.GetComponent())
	assert.Equal(t, string(CategoryROI), err.GetCategory())
	assert.Equal(t, "T5", err.GetContext()["level"])
	assert.False(t, err.GetTimestamp().IsZero())
}

func TestUnwrapChain(t *testing.T) {
	sentinel := NewStd("boundary reversed")
	wrapped := New(fmt.Errorf("phase pre: %w", sentinel)).
		Category(CategoryBoundary).
		Build()

	require.ErrorIs(t, wrapped, sentinel)
	assert.True(t, HasCategory(wrapped, CategoryBoundary))
	assert.False(t, HasCategory(wrapped, CategoryCache))
}

func TestCategoryDefaultsToGeneric(t *testing.T) {
	err := Newf("something %s", "odd").Build()
	assert.Equal(t, CategoryGeneric, err.Category)
}

func TestContextIsCopied(t *testing.T) {
	err := Newf("x").Context("k", 1).Build()
	ctx := err.GetContext()
	ctx["k"] = 2
	assert.Equal(t, 1, err.GetContext()["k"])
}

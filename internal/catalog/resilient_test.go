package catalog_test

import (
	"context"
	"errors"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"recsync/internal/catalog"
)

func TestResilientEngine_PassesThrough(t *testing.T) {
	engine := new(MockEngine)
	r := catalog.NewResilientEngine("test", engine)

	engine.On("DeleteItems", mock.Anything, []string{"a_en"}).Return(nil)

	assert.NoError(t, r.DeleteItems(context.Background(), []string{"a_en"}))
	assert.Equal(t, gobreaker.StateClosed, r.State())
	engine.AssertExpectations(t)
}

func TestResilientEngine_OpensAfterRepeatedFailures(t *testing.T) {
	engine := new(MockEngine)
	r := catalog.NewResilientEngine("test-open", engine)
	down := errors.New("engine down")

	engine.On("SetItems", mock.Anything, mock.Anything).Return(down)

	for i := 0; i < 10; i++ {
		assert.ErrorIs(t, r.SetItems(context.Background(), []catalog.Item{{ID: "a_en"}}), down)
	}

	err := r.SetItems(context.Background(), []catalog.Item{{ID: "a_en"}})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, r.State())
	engine.AssertNumberOfCalls(t, "SetItems", 10)
}

func TestResilientEngine_CanceledCallsDoNotTrip(t *testing.T) {
	engine := new(MockEngine)
	r := catalog.NewResilientEngine("test-cancel", engine)

	engine.On("AddProperties", mock.Anything, mock.Anything).Return(context.Canceled)

	for i := 0; i < 12; i++ {
		assert.ErrorIs(t, r.AddProperties(context.Background(), nil), context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, r.State())
}

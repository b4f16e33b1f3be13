package models

import (
	"errors"
	"net/http"
	"testing"

	"storefront-service/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeSetContains(t *testing.T) {
	full := AttributeSet{"color": "red", "size": "M", "material": "cotton"}

	// A query naming a subset of the signature still matches.
	assert.True(t, full.Contains(AttributeSet{"color": "red"}))
	assert.True(t, full.Contains(AttributeSet{"color": "red", "size": "M"}))
	assert.True(t, full.Contains(AttributeSet{}))

	assert.False(t, full.Contains(AttributeSet{"color": "blue"}))
	assert.False(t, full.Contains(AttributeSet{"color": "red", "fit": "slim"}))
}

func TestAttributeSetEqual(t *testing.T) {
	a := AttributeSet{"color": "red", "size": "M"}

	assert.True(t, a.Equal(AttributeSet{"size": "M", "color": "red"}))
	assert.False(t, a.Equal(AttributeSet{"color": "red"}))
	assert.False(t, a.Equal(AttributeSet{"color": "red", "size": "L"}))
}

func TestAttributeSetScan(t *testing.T) {
	var s AttributeSet
	require.NoError(t, s.Scan([]byte(`{"color":"red","size":"M"}`)))
	assert.Equal(t, AttributeSet{"color": "red", "size": "M"}, s)

	value, err := s.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"color":"red","size":"M"}`, string(value.([]byte)))
}

func TestClampStock(t *testing.T) {
	assert.Equal(t, 8, ClampStock(10, -2))
	assert.Equal(t, 0, ClampStock(10, -10))
	assert.Equal(t, 0, ClampStock(3, -7))
	assert.Equal(t, 15, ClampStock(10, 5))
}

func TestIsValidOrderStatus(t *testing.T) {
	assert.True(t, IsValidOrderStatus(OrderStatusProcessing))
	assert.True(t, IsValidOrderStatus(OrderStatusShipped))
	assert.True(t, IsValidOrderStatus(OrderStatusDelivered))

	assert.False(t, IsValidOrderStatus("Cancelled"))
	assert.False(t, IsValidOrderStatus("processing"))
	assert.False(t, IsValidOrderStatus(""))
}

func TestProductValidate(t *testing.T) {
	p := &Product{Name: "Lamp", Price: 19.99, Stock: 3}
	assert.NoError(t, p.Validate())

	assert.Error(t, (&Product{Price: 1}).Validate())
	assert.Error(t, (&Product{Name: "Lamp", Price: -1}).Validate())
	assert.Error(t, (&Product{Name: "Lamp", Stock: -1}).Validate())
}

// Entity validation failures carry the ValidationFailed kind so the API layer
// maps them to 400, not 500.
func TestValidateReturnsValidationKind(t *testing.T) {
	for _, err := range []error{
		(&Product{Name: "Lamp", Price: -1}).Validate(),
		(&Product{Name: "Lamp", Stock: -1}).Validate(),
		(&Variation{ProductID: 1, SKU: "X", Price: -1}).Validate(),
		(&Variation{ProductID: 1, SKU: "X", Stock: -1}).Validate(),
	} {
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrValidationFailed), "got %v", err)
		assert.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(err))
	}
}

func TestVariationValidate(t *testing.T) {
	v := &Variation{ProductID: 1, SKU: "TS-RED-M", Price: 14.99, Stock: 5}
	assert.NoError(t, v.Validate())

	assert.Error(t, (&Variation{SKU: "TS-RED-M"}).Validate())
	assert.Error(t, (&Variation{ProductID: 1}).Validate())
	assert.Error(t, (&Variation{ProductID: 1, SKU: "X", Price: -1}).Validate())
}

package pkgerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	err := NewProductsNotFoundError("p2", "p3")
	assert.Equal(t, "[-2002] One or more products was not found. (p2, p3)", err.Error())

	wrapped := NewDuplicateKeyError(errors.New("pq: boom"))
	assert.Equal(t, "[-1003] duplicate key violation: pq: boom", wrapped.Error())

	assert.Equal(t, "[-2003] One or more products are out of stock.", NewInsufficientStockError().Error())
}

func TestAppErrorMatching(t *testing.T) {
	err := fmt.Errorf("create order: %w", NewInsufficientStockError("p1"))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrProductsNotFound))
	assert.True(t, IsInsufficientStockError(err))
	assert.False(t, IsInvalidCustomerError(err))
	assert.Equal(t, CodeInsufficientStock, GetErrorCode(err))
	assert.Equal(t, CodeUnknown, GetErrorCode(errors.New("plain")))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewNonExistingKeyError(cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsNonExistingKeyError(err))
}

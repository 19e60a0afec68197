package pkgtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOption(t *testing.T) {
	some := Some(42)
	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.True(t, some.IsSome())
	assert.Equal(t, 42, some.OrElse(7))

	none := None[string]()
	s, ok := none.Get()
	assert.False(t, ok)
	assert.Empty(t, s)
	assert.False(t, none.IsSome())
	assert.Equal(t, "fallback", none.OrElse("fallback"))
}

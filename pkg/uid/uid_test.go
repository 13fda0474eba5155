package uid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_IsValid(t *testing.T) {
	id := New()
	assert.True(t, IsValid(id))
	assert.NotEqual(t, id, New())
}

func TestIsValid_Rejects(t *testing.T) {
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("not-a-uuid"))
}

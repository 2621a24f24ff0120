package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	id := NewID("eval")
	assert.True(t, strings.HasPrefix(id, "eval-"))
	assert.Len(t, id, len("eval-")+16)
	assert.NotEqual(t, id, NewID("eval"))
	assert.Len(t, NewID(""), 16)
}

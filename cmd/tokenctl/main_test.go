package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitScope(t *testing.T) {
	assert.Equal(t, []string{"user", "admin"}, splitScope(" user, ,admin "))
	assert.Nil(t, splitScope(""))
}

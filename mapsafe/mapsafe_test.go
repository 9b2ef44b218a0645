package mapsafe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	m := map[string]any{
		"yaml_int":   2,
		"json_int":   4.0,
		"fraction":   1.5,
		"int64":      int64(8),
		"name":       "lstm",
		"enabled":    true,
		"timeout":    "250ms",
		"nil":        nil,
		"wrong_type": "three",
	}

	assert.Equal(t, 2, Get(m, "yaml_int", 0))
	assert.Equal(t, 4, Get(m, "json_int", 0))
	assert.Equal(t, 0, Get(m, "fraction", 0), "fractions are not truncated into ints")
	assert.Equal(t, int64(8), Get(m, "int64", int64(0)))
	assert.Equal(t, 2.0, Get(m, "yaml_int", 0.0))
	assert.Equal(t, "lstm", Get(m, "name", ""))
	assert.True(t, Get(m, "enabled", false))
	assert.Equal(t, 250*time.Millisecond, Get(m, "timeout", time.Second))

	assert.Equal(t, 7, Get(m, "missing", 7))
	assert.Equal(t, 7, Get(m, "nil", 7))
	assert.Equal(t, 7, Get(m, "wrong_type", 7))
	assert.Equal(t, 7, Get[int](nil, "yaml_int", 7))
}

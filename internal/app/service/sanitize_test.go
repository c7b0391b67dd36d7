package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	type screen struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	var nilMap map[string]int
	var nilSlice []string
	n := 7

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "x", "x"},
		{"int", 3, 3},
		{"pointer", &n, 7},
		{"nil map", nilMap, nil},
		{"nil slice", nilSlice, nil},
		{"bytes", []byte("hi"), "aGk="},
		{"inf", math.Inf(1), nil},
		{"float32", float32(1.5), 1.5},
		{"channel", make(chan int), nil},
		{"struct", screen{Width: 1, Height: 2}, map[string]any{"width": 1.0, "height": 2.0}},
		{"typed map", map[string]int{"a": 1}, map[string]any{"a": 1}},
		{"int keys", map[int]string{1: "x"}, map[string]any{"1": "x"}},
		{"slice keeps length", []any{1, nil, math.NaN()}, []any{1, nil, nil}},
		{"array", [2]string{"a", "b"}, []any{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeMapKeepsKeys(t *testing.T) {
	var p *int
	out := SanitizeMap(map[string]any{
		"a": p,
		"b": map[string]any{"c": nil, "d": []any{nil}},
	})

	assert.Equal(t, map[string]any{
		"a": nil,
		"b": map[string]any{"c": nil, "d": []any{nil}},
	}, out)
	assert.Nil(t, SanitizeMap(nil))
}

package datasetgen

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestQueue_Add(t *testing.T) {
	tests := []struct {
		name      string
		in        RequestInput
		wantOK    bool
		wantQty   int
		wantRatio AspectRatio
		wantLabel []string
	}{
		{
			name:      "valid request",
			in:        RequestInput{Prompt: "a red apple", Quantity: 2, Labels: []string{"apple", "fruit"}, AspectRatio: AspectRatio16x9},
			wantOK:    true,
			wantQty:   2,
			wantRatio: AspectRatio16x9,
			wantLabel: []string{"apple", "fruit"},
		},
		{
			name:      "quantity below range is clamped",
			in:        RequestInput{Prompt: "cat", Quantity: -3},
			wantOK:    true,
			wantQty:   1,
			wantRatio: AspectRatio1x1,
			wantLabel: []string{},
		},
		{
			name:      "quantity above range is clamped",
			in:        RequestInput{Prompt: "cat", Quantity: 12, AspectRatio: AspectRatio3x4},
			wantOK:    true,
			wantQty:   4,
			wantRatio: AspectRatio3x4,
			wantLabel: []string{},
		},
		{
			name:      "unknown ratio falls back to square",
			in:        RequestInput{Prompt: "cat", Quantity: 1, AspectRatio: "21:9"},
			wantOK:    true,
			wantQty:   1,
			wantRatio: AspectRatio1x1,
			wantLabel: []string{},
		},
		{
			name:      "labels are trimmed",
			in:        RequestInput{Prompt: "cat", Quantity: 1, Labels: []string{" cat ", "", "  "}},
			wantOK:    true,
			wantQty:   1,
			wantRatio: AspectRatio1x1,
			wantLabel: []string{"cat"},
		},
		{
			name:   "empty prompt",
			in:     RequestInput{Prompt: "", Quantity: 1},
			wantOK: false,
		},
		{
			name:   "whitespace prompt",
			in:     RequestInput{Prompt: " \t\n ", Quantity: 1},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewRequestQueue()
			req, ok := q.Add(tt.in)

			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, 0, q.Len())
				return
			}

			assert.NotEmpty(t, req.ID)
			assert.Equal(t, tt.in.Prompt, req.Prompt)
			assert.Equal(t, tt.wantQty, req.Quantity)
			assert.Equal(t, tt.wantRatio, req.AspectRatio)
			assert.Equal(t, tt.wantLabel, req.Labels)
			assert.Equal(t, []GenerationRequest{req}, q.Requests())
		})
	}
}

func TestRequestQueue_UniqueIDs(t *testing.T) {
	q := NewRequestQueue()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		req, ok := q.Add(RequestInput{Prompt: "p", Quantity: 1})
		require.True(t, ok)
		require.False(t, seen[req.ID], "duplicate id %s", req.ID)
		seen[req.ID] = true
	}
}

func TestRequestQueue_Remove(t *testing.T) {
	q := NewRequestQueue()
	a, _ := q.Add(RequestInput{Prompt: "a", Quantity: 1})
	b, _ := q.Add(RequestInput{Prompt: "b", Quantity: 2})
	c, _ := q.Add(RequestInput{Prompt: "c", Quantity: 3})

	assert.True(t, q.Remove(b.ID))
	assert.Equal(t, []GenerationRequest{a, c}, q.Requests())

	// Unknown id is a no-op
	assert.False(t, q.Remove("missing"))
	assert.False(t, q.Remove(b.ID))
	assert.Equal(t, 2, q.Len())
}

func TestRequestQueue_TotalRequestedImageCount(t *testing.T) {
	q := NewRequestQueue()
	assert.Equal(t, 0, q.TotalRequestedImageCount())

	q.Add(RequestInput{Prompt: "a", Quantity: 1})
	q.Add(RequestInput{Prompt: "b", Quantity: 4})
	q.Add(RequestInput{Prompt: "c", Quantity: 9})
	assert.Equal(t, 9, q.TotalRequestedImageCount())
}

func TestRequestQueue_RequestsIsSnapshot(t *testing.T) {
	q := NewRequestQueue()
	q.Add(RequestInput{Prompt: "a", Quantity: 1})

	snap := q.Requests()
	snap[0].Prompt = "changed"
	assert.Equal(t, "a", q.Requests()[0].Prompt)
}

func TestProperty_QuantityIsClamped(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("stored quantity is always within [1,4]", prop.ForAll(
		func(qty int) bool {
			q := NewRequestQueue()
			req, ok := q.Add(RequestInput{Prompt: "prompt", Quantity: qty})
			if !ok {
				return false
			}
			if qty >= MinQuantity && qty <= MaxQuantity {
				return req.Quantity == qty
			}
			return req.Quantity >= MinQuantity && req.Quantity <= MaxQuantity
		},
		gen.IntRange(-1000, 1000),
	))

	properties.Property("blank prompts never change the queue", prop.ForAll(
		func(n int, qty int) bool {
			q := NewRequestQueue()
			q.Add(RequestInput{Prompt: "existing", Quantity: 1})
			_, ok := q.Add(RequestInput{Prompt: strings.Repeat(" \t", n), Quantity: qty})
			return !ok && q.Len() == 1
		},
		gen.IntRange(0, 20),
		gen.IntRange(-10, 10),
	))

	properties.TestingRun(t)
}

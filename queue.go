package datasetgen

import (
	"slices"

	"github.com/google/uuid"
)

// GenerationRequest is one queued generation task. It is never mutated after
// it has been added to a RequestQueue.
type GenerationRequest struct {
	ID          string      `json:"id" yaml:"-"`
	Prompt      string      `json:"prompt" yaml:"prompt"`
	Quantity    int         `json:"quantity" yaml:"quantity"`
	Labels      []string    `json:"labels" yaml:"labels"`
	AspectRatio AspectRatio `json:"aspectRatio" yaml:"aspect_ratio"`
}

// RequestInput is a request as submitted, before it has an id.
type RequestInput struct {
	Prompt      string      `json:"prompt" yaml:"prompt"`
	Quantity    int         `json:"quantity" yaml:"quantity"`
	Labels      []string    `json:"labels" yaml:"labels"`
	AspectRatio AspectRatio `json:"aspectRatio" yaml:"aspect_ratio"`
}

// RequestQueue is the ordered list of pending generation requests.
// It is not safe for concurrent use; Session serialises access to it.
type RequestQueue struct {
	requests []GenerationRequest
	newID    func() string
}

// NewRequestQueue returns an empty queue that assigns UUIDs.
func NewRequestQueue() *RequestQueue {
	return &RequestQueue{newID: uuid.NewString}
}

// Add normalises in and appends it with a fresh id. Empty or whitespace-only
// prompts are ignored and reported with ok == false.
func (q *RequestQueue) Add(in RequestInput) (req GenerationRequest, ok bool) {
	if ValidatePrompt(in.Prompt) != nil {
		return GenerationRequest{}, false
	}

	ratio := in.AspectRatio
	if !ratio.Valid() {
		ratio = DefaultAspectRatio
	}

	req = GenerationRequest{
		ID:          q.newID(),
		Prompt:      in.Prompt,
		Quantity:    ClampQuantity(in.Quantity),
		Labels:      NormalizeLabels(in.Labels),
		AspectRatio: ratio,
	}
	q.requests = append(q.requests, req)
	return req, true
}

// Remove deletes the first request with the given id. Unknown ids are a no-op.
func (q *RequestQueue) Remove(id string) bool {
	i := slices.IndexFunc(q.requests, func(r GenerationRequest) bool { return r.ID == id })
	if i < 0 {
		return false
	}
	q.requests = slices.Delete(q.requests, i, i+1)
	return true
}

// TotalRequestedImageCount is the sum of quantities across the queue.
func (q *RequestQueue) TotalRequestedImageCount() int {
	total := 0
	for _, r := range q.requests {
		total += r.Quantity
	}
	return total
}

// Requests returns a snapshot of the queue in order.
func (q *RequestQueue) Requests() []GenerationRequest {
	return slices.Clone(q.requests)
}

// Len returns the number of queued requests.
func (q *RequestQueue) Len() int {
	return len(q.requests)
}

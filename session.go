package datasetgen

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mhpenta/datasetgen/ratelimiter"
)

// Status is a point-in-time view of a Session, suitable for display.
type Status struct {
	Busy                 bool                `json:"busy"`
	Error                string              `json:"error,omitempty"`
	Requests             []GenerationRequest `json:"requests"`
	TotalRequestedImages int                 `json:"totalRequestedImages"`
	ImageCount           int                 `json:"imageCount"`
}

// Session owns the request queue and the result collection, and drives the
// external image services. All state changes are serialised by mu; outbound
// calls run without holding it.
type Session struct {
	queue   *RequestQueue
	results *ResultCollection

	generator  ImageGenerator
	variations VariationGenerator

	generationModel Model
	variationModel  Model

	// Outbound call behaviour when a rate limit is hit
	waitOnRateLimit bool
	maxWait         time.Duration

	rateLimiters   ratelimiter.Registry
	tokenEstimator TokenEstimator

	logger   *zap.Logger
	recorder Recorder
	notifier Notifier

	newID func() string
	now   func() time.Time

	busy      bool
	lastError string

	mu sync.Mutex
}

// Busy reports whether a dataset run or variation is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// LastError returns the current error message, or "" if the last run succeeded.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	return Status{
		Busy:                 s.busy,
		Error:                s.lastError,
		Requests:             s.queue.Requests(),
		TotalRequestedImages: s.queue.TotalRequestedImageCount(),
		ImageCount:           s.results.Len(),
	}
}

// AddRequest queues a generation request. Empty prompts are ignored and
// reported with ok == false.
func (s *Session) AddRequest(in RequestInput) (GenerationRequest, bool) {
	s.mu.Lock()
	req, ok := s.queue.Add(in)
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("ignored request with empty prompt")
		return req, false
	}

	s.logger.Debug("request queued",
		zap.String("request_id", req.ID),
		zap.Int("quantity", req.Quantity),
		zap.String("aspect_ratio", req.AspectRatio.String()),
	)
	s.notify()
	return req, true
}

// RemoveRequest removes a queued request. It is refused while a generation
// is in flight.
func (s *Session) RemoveRequest(id string) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	removed := s.queue.Remove(id)
	s.mu.Unlock()

	if removed {
		s.notify()
	}
	return nil
}

// Requests returns the queued requests in order.
func (s *Session) Requests() []GenerationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Requests()
}

// Images returns the result collection in order.
func (s *Session) Images() []GeneratedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results.Images()
}

// Image returns the image with the given id.
func (s *Session) Image(id string) (GeneratedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results.Get(id)
}

// Groups returns the result collection grouped by prompt.
func (s *Session) Groups() []PromptGroup {
	return GroupByPrompt(s.Images())
}

// GenerateDataset clears the result collection and drains the queue
// sequentially, one request at a time. On the first failure the remaining
// requests are skipped, images collected so far are kept and the failure is
// returned as a *GenerationError.
func (s *Session) GenerateDataset(ctx context.Context) error {
	requests, err := s.beginDataset()
	if err != nil {
		return err
	}
	return s.drain(ctx, requests)
}

// StartDataset is GenerateDataset in the background. Busy and empty queue
// conditions are reported synchronously; the run outcome is available via
// Status once it finishes.
func (s *Session) StartDataset(ctx context.Context) error {
	requests, err := s.beginDataset()
	if err != nil {
		return err
	}
	go s.drain(ctx, requests)
	return nil
}

func (s *Session) beginDataset() ([]GenerationRequest, error) {
	s.mu.Lock()
	if s.generator == nil {
		s.mu.Unlock()
		return nil, ErrGeneratorNotConfigured
	}
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.queue.Len() == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyQueue
	}

	requests := s.queue.Requests()
	s.busy = true
	s.lastError = ""
	s.results.Clear()
	s.mu.Unlock()

	s.notify()
	return requests, nil
}

func (s *Session) drain(ctx context.Context, requests []GenerationRequest) error {
	defer s.finish()

	start := time.Now()
	total := 0

	s.logger.Info("dataset generation started", zap.Int("requests", len(requests)))

	for i, req := range requests {
		images, err := s.generateRequest(ctx, req)
		if err != nil {
			genErr := &GenerationError{RequestID: req.ID, Prompt: req.Prompt, Err: err}
			s.fail(genErr.Error())
			s.logger.Error("dataset generation stopped",
				zap.String("request_id", req.ID),
				zap.Int("completed_requests", i),
				zap.Int("skipped_requests", len(requests)-i-1),
				zap.Int("images", total),
				zap.Error(err),
			)
			return genErr
		}

		s.mu.Lock()
		s.results.AppendBatch(images)
		s.mu.Unlock()
		s.notify()

		total += len(images)
	}

	s.logger.Info("dataset generation completed",
		zap.Int("requests", len(requests)),
		zap.Int("images", total),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// generateRequest performs one outbound generation call and tags the result.
func (s *Session) generateRequest(ctx context.Context, req GenerationRequest) ([]GeneratedImage, error) {
	cfg := &GenerateConfig{
		Model:           s.generationModel,
		AspectRatio:     req.AspectRatio,
		NumberOfImages:  req.Quantity,
		OutputMIMEType:  DefaultOutputMIMEType,
		WaitOnRateLimit: s.waitOnRateLimit,
		MaxWaitDuration: s.maxWait,
		Metadata:        map[string]string{"request_id": req.ID},
	}

	start := time.Now()

	s.logger.Debug("starting image generation",
		zap.String("model", cfg.Model.String()),
		zap.String("request_id", req.ID),
		zap.Int("prompt_length", len(req.Prompt)),
	)

	if err := s.checkRateLimit(ctx, cfg, req.Prompt, 0); err != nil {
		s.recorder.RecordGeneration("rate_limited", time.Since(start), 0)
		return nil, err
	}

	result, err := s.generator.Generate(ctx, req.Prompt, cfg)
	duration := time.Since(start)
	if err != nil {
		s.recorder.RecordGeneration("error", duration, 0)
		return nil, err
	}

	images := make([]GeneratedImage, 0, len(result.Images))
	for _, p := range result.Images {
		images = append(images, GeneratedImage{
			ID:        s.newID(),
			Prompt:    req.Prompt,
			Labels:    cloneLabels(req.Labels),
			ImageData: p.Data,
			MIMEType:  p.MIMEType,
			CreatedAt: s.now(),
		})
	}

	s.recorder.RecordGeneration("success", duration, len(images))
	s.logger.Info("generation completed",
		zap.String("model", cfg.Model.String()),
		zap.String("request_id", req.ID),
		zap.Int64("duration_ms", duration.Milliseconds()),
		zap.Int("image_count", len(images)),
	)
	return images, nil
}

// GenerateVariation asks the variation service for one new image based on
// the image with the given id and its prompt, and inserts it at the end of
// that image's variation group. On failure the collection is unchanged and a
// *VariationError is returned.
func (s *Session) GenerateVariation(ctx context.Context, imageID string) (GeneratedImage, error) {
	source, err := s.beginVariation(imageID)
	if err != nil {
		return GeneratedImage{}, err
	}
	return s.vary(ctx, source)
}

// StartVariation is GenerateVariation in the background.
func (s *Session) StartVariation(ctx context.Context, imageID string) error {
	source, err := s.beginVariation(imageID)
	if err != nil {
		return err
	}
	go s.vary(ctx, source)
	return nil
}

func (s *Session) beginVariation(imageID string) (GeneratedImage, error) {
	s.mu.Lock()
	if s.variations == nil {
		s.mu.Unlock()
		return GeneratedImage{}, ErrGeneratorNotConfigured
	}
	if s.busy {
		s.mu.Unlock()
		return GeneratedImage{}, ErrBusy
	}
	source, ok := s.results.Get(imageID)
	if !ok {
		s.mu.Unlock()
		return GeneratedImage{}, ErrImageNotFound
	}
	s.busy = true
	s.lastError = ""
	s.mu.Unlock()

	s.notify()
	return source, nil
}

func (s *Session) vary(ctx context.Context, source GeneratedImage) (GeneratedImage, error) {
	defer s.finish()

	img, err := s.generateVariation(ctx, source)
	if err != nil {
		varErr := &VariationError{ImageID: source.ID, Err: err}
		s.fail(varErr.Error())
		s.logger.Error("variation failed",
			zap.String("image_id", source.ID),
			zap.Error(err),
		)
		return GeneratedImage{}, varErr
	}

	s.mu.Lock()
	rootPresent := s.results.Contains(img.ParentID)
	index := s.results.InsertVariation(img)
	s.mu.Unlock()

	if !rootPresent {
		s.logger.Debug("variation root no longer present, appending",
			zap.String("parent_id", img.ParentID))
	}

	s.logger.Info("variation added",
		zap.String("image_id", img.ID),
		zap.String("parent_id", img.ParentID),
		zap.Int("index", index),
	)
	return img, nil
}

func (s *Session) generateVariation(ctx context.Context, source GeneratedImage) (GeneratedImage, error) {
	payload := source.Payload()
	if err := ValidatePayload(payload); err != nil {
		return GeneratedImage{}, err
	}

	cfg := &GenerateConfig{
		Model:           s.variationModel,
		NumberOfImages:  1,
		OutputMIMEType:  payload.MIMEType,
		WaitOnRateLimit: s.waitOnRateLimit,
		MaxWaitDuration: s.maxWait,
		Metadata:        map[string]string{"image_id": source.ID},
	}

	start := time.Now()

	s.logger.Debug("starting variation",
		zap.String("model", cfg.Model.String()),
		zap.String("image_id", source.ID),
		zap.Int("image_size", len(payload.Data)),
	)

	if err := s.checkRateLimit(ctx, cfg, source.Prompt, 1); err != nil {
		s.recorder.RecordVariation("rate_limited", time.Since(start))
		return GeneratedImage{}, err
	}

	result, err := s.variations.Vary(ctx, payload, source.Prompt, cfg)
	duration := time.Since(start)
	if err == nil && (result == nil || len(result.Images) == 0) {
		err = ErrNoImageInResponse
	}
	if err != nil {
		s.recorder.RecordVariation("error", duration)
		return GeneratedImage{}, err
	}
	s.recorder.RecordVariation("success", duration)

	p := result.Images[0]
	return GeneratedImage{
		ID:        s.newID(),
		Prompt:    source.Prompt,
		Labels:    cloneLabels(source.Labels),
		ImageData: p.Data,
		MIMEType:  p.MIMEType,
		ParentID:  VariationParent(source),
		CreatedAt: s.now(),
	}, nil
}

// fail replaces the current error message.
func (s *Session) fail(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// finish clears the busy flag and announces the final state.
func (s *Session) finish() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(s.Status())
}

// checkRateLimit checks rate limits for a model and optionally waits.
func (s *Session) checkRateLimit(ctx context.Context, cfg *GenerateConfig, prompt string, inputImages int) error {
	limiter, ok := s.rateLimiters.Get(cfg.Model.String())
	if !ok {
		return nil
	}

	estimatedTokens := s.tokenEstimator.EstimateTokens(prompt, inputImages)

	if cfg.WaitOnRateLimit {
		return limiter.WaitAndConsume(ctx, estimatedTokens, cfg.MaxWaitDuration)
	}

	if !limiter.TryConsume(estimatedTokens) {
		s.logger.Warn("rate limit hit", zap.String("model", cfg.Model.String()))
		return &RateLimitError{
			RetryAfter: limiter.TimeUntilAvailable(estimatedTokens),
			LimitType:  "tokens",
			Model:      cfg.Model.String(),
		}
	}

	return nil
}

// Close releases the generator's resources.
func (s *Session) Close() error {
	if s.generator == nil {
		return nil
	}
	return s.generator.Close()
}

func cloneLabels(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

func defaultID() string {
	return uuid.NewString()
}

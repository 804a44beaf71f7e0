package datasetgen

import (
	"time"

	"go.uber.org/zap"

	"github.com/mhpenta/datasetgen/ratelimiter"
)

// SessionOption configures the Session.
type SessionOption func(*Session)

// WithLogger sets a structured logger for the session.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVariationGenerator sets the variation service. By default the image
// generator is used when it also implements VariationGenerator.
func WithVariationGenerator(v VariationGenerator) SessionOption {
	return func(s *Session) {
		s.variations = v
	}
}

// WithGenerationModel overrides the model used for dataset runs.
func WithGenerationModel(model Model) SessionOption {
	return func(s *Session) {
		s.generationModel = model
	}
}

// WithVariationModel overrides the model used for variations.
func WithVariationModel(model Model) SessionOption {
	return func(s *Session) {
		s.variationModel = model
	}
}

// WithRateLimiter sets a custom rate limiter for a model.
func WithRateLimiter(model Model, limiter ratelimiter.Limiter) SessionOption {
	return func(s *Session) {
		s.rateLimiters.Set(model.String(), limiter)
	}
}

// WithWaitOnRateLimit makes outbound calls wait for rate limit capacity,
// up to maxWait (zero means no limit), instead of failing immediately.
func WithWaitOnRateLimit(maxWait time.Duration) SessionOption {
	return func(s *Session) {
		s.waitOnRateLimit = true
		s.maxWait = maxWait
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) SessionOption {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithNotifier sets the receiver of state change snapshots.
func WithNotifier(n Notifier) SessionOption {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithIDGenerator replaces the UUID generator for requests and images.
func WithIDGenerator(newID func() string) SessionOption {
	return func(s *Session) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewSession creates a Session backed by generator.
//
// Example:
//
//	gen, err := gemini.NewWithAPIKey(ctx, apiKey)
//	if err != nil {
//	    return err
//	}
//	session := datasetgen.NewSession(gen)
//
// With options:
//
//	session := datasetgen.NewSession(gen,
//	    datasetgen.WithLogger(logger),
//	    datasetgen.WithWaitOnRateLimit(time.Minute),
//	)
func NewSession(generator ImageGenerator, opts ...SessionOption) *Session {
	s := &Session{
		queue:          NewRequestQueue(),
		results:        NewResultCollection(),
		generator:      generator,
		rateLimiters:   ratelimiter.NewRegistry(),
		tokenEstimator: NewSimpleTokenEstimator(),
		logger:         zap.NewNop(),
		recorder:       nopRecorder{},
		newID:          defaultID,
		now:            time.Now,
	}

	if v, ok := generator.(VariationGenerator); ok {
		s.variations = v
	}

	if generator != nil {
		models := generator.Models()
		s.generationModel = firstModel(models, func(m ModelInfo) bool { return m.Capabilities.SupportsTextToImage })
		s.variationModel = firstModel(models, func(m ModelInfo) bool { return m.Capabilities.SupportsVariation })

		// Default in-memory limiters from each model's published limits
		for _, info := range models {
			if info.RateLimits.TokensPerMinute > 0 || info.RateLimits.RequestsPerMinute > 0 {
				s.rateLimiters.Set(info.APIModelName, ratelimiter.New(
					info.RateLimits.TokensPerMinute,
					info.RateLimits.RequestsPerMinute,
				))
			}
		}
	}

	for _, opt := range opts {
		opt(s)
	}

	s.queue.newID = s.newID
	s.logger = s.logger.With(zap.String("component", "session"))

	return s
}

package waitlist

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/pkg/circuitbreaker"
	"github.com/akeren/waitlist-intake/pkg/constants"
	"github.com/akeren/waitlist-intake/pkg/csvstore"
	apperrors "github.com/akeren/waitlist-intake/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const mirrorTimeout = 2 * time.Second

var mirrorBreakerConfig = circuitbreaker.Config{
	FailureThreshold: 3,
	RecoveryTimeout:  30 * time.Second,
	SuccessThreshold: 1,
}

type WaitlistService interface {
	// Submit validates the input and appends it to the waitlist store.
	// clientIP is the fallback for an absent ipAddress field.
	Submit(ctx context.Context, input SubmissionInput, clientIP string) (*SubmissionResult, error)
}

type waitlistService struct {
	logger  *log.Logger
	store   WaitlistStore
	mirror  WaitlistMirror
	breaker circuitbreaker.CircuitBreaker
	metrics *submissionMetrics
	now     func() time.Time
}

// NewWaitlistService wires the CSV store with an optional database mirror.
// A nil mirror disables mirroring; a nil registerer keeps metrics local.
func NewWaitlistService(logger *log.Logger, store WaitlistStore, mirror WaitlistMirror, reg prometheus.Registerer) WaitlistService {
	metrics := newSubmissionMetrics(reg)

	breakerConfig := mirrorBreakerConfig
	breakerConfig.OnStateChange = func(from, to circuitbreaker.CircuitState) {
		metrics.mirrorCircuitState.Set(float64(to))
		logger.Warn("Waitlist mirror circuit changed state", "from", from.String(), "to", to.String())
	}

	return &waitlistService{
		logger:  logger,
		store:   store,
		mirror:  mirror,
		breaker: circuitbreaker.NewCircuitBreaker(&breakerConfig),
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *waitlistService) Submit(ctx context.Context, input SubmissionInput, clientIP string) (*SubmissionResult, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	ctx, span := otel.Tracer("waitlist").Start(ctx, "waitlist.Submit")
	defer span.End()

	now := s.now()

	record, err := ValidateSubmission(input, Defaults{Now: now, ClientIP: clientIP})
	if err != nil {
		logger.Warn("Waitlist submission rejected", "reason", apperrors.GetHumanReadableMessage(err))
		s.metrics.observe(outcomeRejected)
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	if err := s.store.EnsureReady(ctx); err != nil {
		return nil, s.storageFailure(logger, span, err)
	}

	started := time.Now()
	err = s.store.Append(ctx, *record)
	s.metrics.appendDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, s.storageFailure(logger, span, err)
	}

	s.mirrorEntry(ctx, logger, record)

	s.metrics.observe(outcomeAccepted)
	span.SetAttributes(attribute.String("waitlist.file", s.store.Path()))
	logger.Info("Waitlist entry saved", "email", record.Email, "file", s.store.Path())

	return &SubmissionResult{
		File:      s.store.Path(),
		Timestamp: now.Format(constants.SubmissionTimestampFormat),
		Record:    *record,
	}, nil
}

func (s *waitlistService) storageFailure(logger *log.Logger, span trace.Span, err error) error {
	s.metrics.observe(outcomeFailed)
	span.RecordError(err)
	span.SetStatus(codes.Error, "storage failed")

	var storeErr *csvstore.Error
	if errors.As(err, &storeErr) {
		logger.Error("Failed to save waitlist entry",
			"kind", storeErr.Kind,
			"path", storeErr.Path,
			"error", storeErr.Err,
		)
		return apperrors.NewStorageError(msgStorageFailure+storeErr.Detail, err)
	}

	logger.Error("Failed to save waitlist entry", "error", err)
	return apperrors.NewStorageError(msgStorageFailure+"unexpected storage failure", err)
}

// mirrorEntry copies the row to the database. The CSV append already
// succeeded, so failures are logged and counted but never returned.
func (s *waitlistService) mirrorEntry(ctx context.Context, logger *log.Logger, record *csvstore.Record) {
	if s.mirror == nil {
		return
	}

	mirrorCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
	defer cancel()

	err := s.breaker.Call(func() error {
		return s.mirror.SaveEntry(mirrorCtx, ToWaitlistEntryModel(record))
	})
	if err == nil {
		return
	}

	s.metrics.mirrorFailures.Inc()
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		logger.Warn("Waitlist mirror skipped; circuit open")
		return
	}
	logger.Error("Failed to mirror waitlist entry", "error", err, "circuit", s.breaker.State().String())
}

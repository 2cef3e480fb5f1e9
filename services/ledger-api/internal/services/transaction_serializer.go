package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/internal/observability"
	"go.uber.org/zap"
)

var ErrSerializerClosed = errors.New("transaction serializer is closed")

// Outcome is the single terminal result of a submitted request. Err is nil only for Accepted.
type Outcome struct {
	Receipt views.TransactionReceipt
	Err     error
}

// TransactionSerializer admits mutating requests into one FIFO execution lane.
type TransactionSerializer interface {
	// Submit enqueues req and returns at once. The channel receives exactly one Outcome.
	Submit(ctx context.Context, req views.TransactionRequest) <-chan Outcome
	// Close rejects further submissions and waits for queued requests to finish.
	Close()
}

type ticket struct {
	id          string
	ctx         context.Context
	req         views.TransactionRequest
	submittedAt time.Time
	result      chan Outcome
}

type TransactionSerializerImpl struct {
	logger   *zap.Logger
	executor LedgerExecutor

	mu       sync.Mutex
	queue    []ticket
	draining bool
	closed   bool
	wg       sync.WaitGroup
}

func NewTransactionSerializer(logger *zap.Logger, executor LedgerExecutor) *TransactionSerializerImpl {
	return &TransactionSerializerImpl{
		logger:   logger,
		executor: executor,
	}
}

func (s *TransactionSerializerImpl) Submit(ctx context.Context, req views.TransactionRequest) <-chan Outcome {
	t := ticket{
		id: uuid.New().String(),
		// The lane outlives the caller; a queued request still runs to its outcome.
		ctx:         context.WithoutCancel(ctx),
		req:         req,
		submittedAt: time.Now(),
		result:      make(chan Outcome, 1),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		t.result <- Outcome{Err: executionFailed("ledger is shutting down", ErrSerializerClosed)}
		return t.result
	}
	s.queue = append(s.queue, t)
	observability.SerializerQueueDepth.Inc()
	if !s.draining {
		s.draining = true
		s.wg.Add(1)
		go s.drain()
	}
	s.mu.Unlock()

	s.logger.Debug("transaction_enqueued",
		zap.String(pkg.TraceId, traceIDFrom(ctx)),
		zap.String(pkg.Ticket, t.id),
		zap.String("kind", string(req.Kind)))
	return t.result
}

// drain executes queued tickets one at a time until the queue is empty.
func (s *TransactionSerializerImpl) drain() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		t := s.queue[0]
		s.queue[0] = ticket{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		observability.SerializerQueueDepth.Dec()
		observability.SerializerQueueWait.Observe(time.Since(t.submittedAt).Seconds())
		t.result <- s.execute(t)
	}
}

func (s *TransactionSerializerImpl) execute(t ticket) (outcome Outcome) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("transaction_executor_panic",
				zap.String(pkg.TraceId, traceIDFrom(t.ctx)),
				zap.String(pkg.Ticket, t.id),
				zap.Any("panic", p))
			outcome = Outcome{Err: executionFailed("transaction failed", fmt.Errorf("executor panic: %v", p))}
		}
	}()
	receipt, err := s.executor.Execute(t.ctx, t.req)
	return Outcome{Receipt: receipt, Err: err}
}

func (s *TransactionSerializerImpl) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("transaction_serializer_closed")
}

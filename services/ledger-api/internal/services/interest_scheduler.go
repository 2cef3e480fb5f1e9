package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/models"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/internal/observability"
	"go.uber.org/zap"
)

// AccrualRegistrar schedules time-deposit accounts for compounding.
type AccrualRegistrar interface {
	// Register adds one work item for the account. It reports false if the account is already scheduled.
	Register(accountID int64, dueAt time.Time, maturesAt *time.Time) bool
}

type SchedulerConfig struct {
	Period time.Duration
}

// InterestSchedulerImpl drains the accrual queue in due-time order on a single goroutine.
type InterestSchedulerImpl struct {
	logger  *zap.Logger
	cfg     SchedulerConfig
	accruer InterestAccruer
	clock   Clock

	mu        sync.Mutex
	queue     accrualQueue
	scheduled map[int64]struct{}
	seq       uint64

	wake    chan struct{}
	stop    chan struct{}
	stopped sync.WaitGroup
	once    sync.Once
}

func NewInterestScheduler(logger *zap.Logger, cfg SchedulerConfig, accruer InterestAccruer, clock Clock) *InterestSchedulerImpl {
	return &InterestSchedulerImpl{
		logger:    logger,
		cfg:       cfg,
		accruer:   accruer,
		clock:     clock,
		scheduled: make(map[int64]struct{}),
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
}

// Start runs the drain loop until the returned closer is called.
func (s *InterestSchedulerImpl) Start(ctx context.Context) func() {
	s.stopped.Add(1)
	go s.run(ctx)
	s.logger.Info("interest_scheduler_started", zap.Duration("period", s.cfg.Period))
	return func() {
		s.once.Do(func() { close(s.stop) })
		s.stopped.Wait()
		s.logger.Info("interest_scheduler_stopped", zap.Int("pending_items", s.Pending()))
	}
}

func (s *InterestSchedulerImpl) Register(accountID int64, dueAt time.Time, maturesAt *time.Time) bool {
	s.mu.Lock()
	if _, ok := s.scheduled[accountID]; ok {
		s.mu.Unlock()
		return false
	}
	s.scheduled[accountID] = struct{}{}
	s.pushLocked(workItem{AccountID: accountID, DueAt: dueAt, MaturesAt: maturesAt})
	s.mu.Unlock()

	s.logger.Debug("interest_work_item_registered",
		zap.Int64(pkg.AccountId, accountID),
		zap.Time("due_at", dueAt))
	s.signal()
	return true
}

// Restore registers every active time deposit with its next due time aligned to
// createdAt + k*period. Missed periods are not caught up.
func (s *InterestSchedulerImpl) Restore(accounts []models.Account) int {
	now := s.clock.Now()
	restored := 0
	for _, account := range accounts {
		if !account.IsTimeDeposit() {
			continue
		}
		if s.Register(account.ID, NextDueAfter(account.CreatedAt, now, s.cfg.Period), account.MaturesAt) {
			restored++
		}
	}
	s.logger.Info("interest_schedule_restored", zap.Int("accounts", restored))
	return restored
}

// Pending returns the number of scheduled work items.
func (s *InterestSchedulerImpl) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// NextDueAfter returns the first instant createdAt + k*period strictly after now, k >= 1.
func NextDueAfter(createdAt, now time.Time, period time.Duration) time.Time {
	if now.Before(createdAt) {
		return createdAt.Add(period)
	}
	k := now.Sub(createdAt)/period + 1
	return createdAt.Add(k * period)
}

func (s *InterestSchedulerImpl) pushLocked(w workItem) {
	s.seq++
	w.seq = s.seq
	s.queue.push(w)
	observability.AccrualQueueDepth.Set(float64(s.queue.Len()))
}

func (s *InterestSchedulerImpl) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *InterestSchedulerImpl) run(ctx context.Context) {
	defer s.stopped.Done()
	for {
		item, due, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
		if !due {
			select {
			case <-s.clock.Until(item.DueAt):
			case <-s.wake:
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
			continue
		}
		s.process(ctx, item)
	}
}

// next pops the head if it is due, retiring matured heads along the way. When the head
// is not yet due it is returned in place with due set to false.
func (s *InterestSchedulerImpl) next() (item workItem, due bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.queue.Len() > 0 {
		head := s.queue.peek()
		now := s.clock.Now()
		if head.maturedAt(now) {
			s.retireLocked(s.queue.pop())
			continue
		}
		if head.DueAt.After(now) {
			return head, false, true
		}
		item = s.queue.pop()
		observability.AccrualQueueDepth.Set(float64(s.queue.Len()))
		return item, true, true
	}
	return workItem{}, false, false
}

func (s *InterestSchedulerImpl) process(ctx context.Context, item workItem) {
	if err := s.compound(ctx, item); err != nil {
		observability.CompoundingSteps.WithLabelValues("failed").Inc()
		s.logger.Error("interest_compounding_failed_dropping_account",
			zap.Int64(pkg.AccountId, item.AccountID),
			zap.Error(err))
		s.mu.Lock()
		delete(s.scheduled, item.AccountID)
		observability.AccrualQueueDepth.Set(float64(s.queue.Len()))
		s.mu.Unlock()
		return
	}
	observability.CompoundingSteps.WithLabelValues("applied").Inc()

	item.DueAt = item.DueAt.Add(s.cfg.Period)
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.MaturesAt != nil && !item.DueAt.Before(*item.MaturesAt) {
		s.retireLocked(item)
		return
	}
	s.pushLocked(item)
}

// compound isolates one step so a panic only costs this item.
func (s *InterestSchedulerImpl) compound(ctx context.Context, item workItem) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("compounding panic: %v", p)
		}
	}()
	balance, err := s.accruer.Compound(ctx, item.AccountID)
	if err != nil {
		return err
	}
	s.logger.Debug("interest_compounded",
		zap.Int64(pkg.AccountId, item.AccountID),
		zap.String("balance", balance.String()),
		zap.Time("due_at", item.DueAt))
	return nil
}

func (s *InterestSchedulerImpl) retireLocked(item workItem) {
	delete(s.scheduled, item.AccountID)
	observability.Maturities.Inc()
	observability.AccrualQueueDepth.Set(float64(s.queue.Len()))
	s.logger.Info("time_deposit_matured", zap.Int64(pkg.AccountId, item.AccountID))
}

package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookingpay/models"
	"bookingpay/services/apperr"
	"bookingpay/services/settlement"
	"bookingpay/services/tasks"
	"bookingpay/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// EventPusher delivers one event to the parties' devices. Implemented by notification.PushService.
type EventPusher interface {
	Send(ctx context.Context, event models.BookingEvent) error
}

// Settler is the part of the settlement orchestrator the worker drives.
type Settler interface {
	SettleProviderLeg(ctx context.Context, bookingID, requesterID string) (*settlement.PayoutOutcome, error)
	Sweep(ctx context.Context, limit int) (settlement.SweepReport, error)
}

// AutoCompleter completes confirmed bookings once their time has passed.
type AutoCompleter interface {
	AutoComplete(ctx context.Context, bookingID string) (*models.Booking, error)
}

// Handlers are the services background tasks call into.
type Handlers struct {
	Push        EventPusher
	Settlement  Settler
	Bookings    AutoCompleter
	SweepLimit  int
	SweepPeriod string
}

// Worker runs the asynq server and the periodic sweep scheduler.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	logger    *zap.Logger
}

// NewMux routes every task type to its handler.
func NewMux(h Handlers, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	if h.Push != nil {
		mux.HandleFunc(tasks.TypeNotifyEvent, handleNotifyTask(h.Push, logger))
	}
	if h.Settlement != nil {
		mux.HandleFunc(tasks.TypeSettlementPayout, handlePayoutTask(h.Settlement, logger))
		mux.HandleFunc(tasks.TypeSettlementSweep, handleSweepTask(h.Settlement, h.SweepLimit, logger))
	}
	if h.Bookings != nil {
		mux.HandleFunc(tasks.TypeBookingAutoComplete, handleAutoCompleteTask(h.Bookings, logger))
	}
	return mux
}

// InitWorker starts the task server in the background and registers the sweep schedule.
func InitWorker(redisOpts asynq.RedisClientOpt, h Handlers, logger *zap.Logger) (*Worker, error) {
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger:   logger.Sugar(),
			LogLevel: asynq.WarnLevel,
		},
	)
	mux := NewMux(h, logger)

	w := &Worker{server: srv, logger: logger}
	if h.Settlement != nil {
		period := h.SweepPeriod
		if period == "" {
			period = "@every 5m"
		}
		w.scheduler = asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Logger: logger.Sugar(), LogLevel: asynq.WarnLevel})
		if _, err := w.scheduler.Register(period, tasks.NewSweepTask(), asynq.MaxRetry(0)); err != nil {
			return nil, fmt.Errorf("failed to register sweep: %w", err)
		}
		if err := w.scheduler.Start(); err != nil {
			return nil, fmt.Errorf("failed to start sweep scheduler: %w", err)
		}
	}

	go func() {
		logger.Info("Starting task worker")
		const maxAttempts = 5
		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("Task worker failed to start", zap.Int("attempt", attempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Fatal("Task worker gave up after max attempts")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return w, nil
}

// Shutdown stops accepting tasks and waits for running handlers.
func (w *Worker) Shutdown() {
	if w.scheduler != nil {
		w.scheduler.Shutdown()
	}
	w.server.Shutdown()
	w.logger.Info("Task worker stopped")
}

// --- Handlers ---

func handleNotifyTask(push EventPusher, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var event models.BookingEvent
		if err := json.Unmarshal(task.Payload(), &event); err != nil {
			logger.Error("Invalid notify payload", zap.Error(err))
			return fmt.Errorf("invalid notify payload: %v: %w", err, asynq.SkipRetry)
		}
		if err := push.Send(ctx, event); err != nil {
			logger.Warn("Push delivery failed", zap.String("bookingId", event.BookingID), zap.Error(err))
			return err
		}
		return nil
	}
}

// handlePayoutTask retries the provider leg as the system actor. Outcomes that no retry can
// change end the task.
func handlePayoutTask(s Settler, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseBookingPayload(task)
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		out, err := s.SettleProviderLeg(ctx, p.BookingID, utils.SystemActorID)
		if err != nil {
			if apperr.Retryable(err) {
				return err
			}
			logger.Warn("Payout task dropped", zap.String("bookingId", p.BookingID), zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if out.Retryable {
			return fmt.Errorf("payout for booking %s still pending: %s", p.BookingID, out.Failure)
		}
		if out.Failure != "" {
			logger.Error("Payout rejected", zap.String("bookingId", p.BookingID), zap.String("reason", out.Failure))
			return nil
		}
		logger.Info("Payout task settled", zap.String("bookingId", p.BookingID))
		return nil
	}
}

func handleAutoCompleteTask(b AutoCompleter, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseBookingPayload(task)
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		booking, err := b.AutoComplete(ctx, p.BookingID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			return err
		}
		logger.Debug("Auto-complete ran", zap.String("bookingId", p.BookingID), zap.String("status", string(booking.Status)))
		return nil
	}
}

func handleSweepTask(s Settler, limit int, logger *zap.Logger) asynq.HandlerFunc {
	if limit <= 0 {
		limit = 100
	}
	return func(ctx context.Context, _ *asynq.Task) error {
		report, err := s.Sweep(ctx, limit)
		if err != nil {
			return err
		}
		if report.Reconciled+report.Retried+report.Failed > 0 {
			logger.Info("Settlement sweep finished",
				zap.Int("reconciled", report.Reconciled),
				zap.Int("retried", report.Retried),
				zap.Int("failed", report.Failed))
		}
		return nil
	}
}

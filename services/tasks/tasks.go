package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"bookingpay/models"

	"github.com/hibiken/asynq"
)

const (
	TypeNotifyEvent         = "event:notify"
	TypeSettlementPayout    = "settlement:payout"
	TypeBookingAutoComplete = "booking:auto_complete"
	TypeSettlementSweep     = "settlement:sweep"
)

// BookingPayload identifies the booking a background task acts on.
type BookingPayload struct {
	BookingID string `json:"bookingId"`
}

func NewNotifyTask(event models.BookingEvent) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeNotifyEvent, b)
	opts := []asynq.Option{asynq.MaxRetry(5), asynq.Timeout(30 * time.Second)}
	if event.ID != "" {
		opts = append(opts, asynq.TaskID("notify:"+event.ID))
	}
	return task, opts, nil
}

// NewPayoutTask retries the provider leg of a booking. The task ID keeps at most one pending
// payout per booking in the queue.
func NewPayoutTask(bookingID string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(BookingPayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSettlementPayout, b)
	opts := []asynq.Option{
		asynq.TaskID("payout:" + bookingID),
		asynq.MaxRetry(10),
		asynq.Timeout(2 * time.Minute),
	}
	return task, opts, nil
}

func NewAutoCompleteTask(bookingID string, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(BookingPayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingAutoComplete, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID("autocomplete:" + bookingID),
		asynq.MaxRetry(5),
	}
	return task, opts, nil
}

func NewSweepTask() *asynq.Task {
	return asynq.NewTask(TypeSettlementSweep, nil)
}

// ParseBookingPayload decodes the payload of payout and auto-complete tasks.
func ParseBookingPayload(task *asynq.Task) (BookingPayload, error) {
	var p BookingPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", task.Type(), err)
	}
	if p.BookingID == "" {
		return p, fmt.Errorf("invalid %s payload: missing bookingId", task.Type())
	}
	return p, nil
}

package notification

import (
	"context"
	"errors"
	"fmt"

	providerRepo "bookingpay/database/repository/provider"
	"bookingpay/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// PushService delivers events to every registered device of each recipient through FCM.
type PushService struct {
	directory providerRepo.Directory
	sender    MessageSender
	logger    *zap.Logger
}

func NewPushService(directory providerRepo.Directory, sender MessageSender, logger *zap.Logger) *PushService {
	return &PushService{directory: directory, sender: sender, logger: logger}
}

// Send pushes the event to both parties. Actors without devices are skipped; the returned
// error joins the failed sends so the queue can retry them.
func (s *PushService) Send(ctx context.Context, event models.BookingEvent) error {
	var errs []error
	for _, recipient := range event.Recipients() {
		if recipient == "" {
			continue
		}
		devices, err := s.directory.GetDevices(ctx, recipient)
		if err != nil {
			errs = append(errs, fmt.Errorf("devices for %s: %w", recipient, err))
			continue
		}
		if len(devices) == 0 {
			s.logger.Debug("No push target", zap.String("actorId", recipient))
			continue
		}

		n := Render(event, recipient)
		for _, dev := range devices {
			if dev.FCMToken == "" {
				continue
			}
			if _, err := s.sender.Send(ctx, buildMessage(dev.FCMToken, n)); err != nil {
				if messaging.IsUnregistered(err) {
					s.logger.Info("Stale FCM token", zap.String("actorId", recipient), zap.String("deviceId", dev.DeviceID))
					continue
				}
				errs = append(errs, fmt.Errorf("push to %s/%s: %w", recipient, dev.DeviceID, err))
			}
		}
	}
	return errors.Join(errs...)
}

func buildMessage(token string, n models.Notification) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
}

package models

import "time"

// Device is a push target registered by a client or provider.
type Device struct {
	ActorID    string    `bson:"actorId" json:"actorId"`
	DeviceID   string    `bson:"deviceId" json:"deviceId"`
	DeviceName string    `bson:"deviceName,omitempty" json:"deviceName,omitempty"`
	FCMToken   string    `bson:"fcmToken" json:"-"`
	LastSeen   time.Time `bson:"lastSeen" json:"lastSeen"`
}

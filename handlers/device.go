package handlers

import (
	"net/http"
	"time"

	providerRepo "bookingpay/database/repository/provider"
	"bookingpay/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DeviceHandler struct {
	Directory providerRepo.Directory
}

func NewDeviceHandler(directory providerRepo.Directory) *DeviceHandler {
	return &DeviceHandler{Directory: directory}
}

// RegisterDeviceHandler stores or refreshes the FCM token of the caller's device.
func (h *DeviceHandler) RegisterDeviceHandler(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	var input struct {
		DeviceID   string `json:"deviceId" binding:"required"`
		DeviceName string `json:"deviceName"`
		FCMToken   string `json:"fcmToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	device := models.Device{
		ActorID:    id,
		DeviceID:   input.DeviceID,
		DeviceName: input.DeviceName,
		FCMToken:   input.FCMToken,
		LastSeen:   time.Now().UTC(),
	}
	if err := h.Directory.RegisterDevice(c.Request.Context(), device); err != nil {
		getLogger(c).Error("Failed to register device", zap.String("actorId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register device"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"device": device})
}

func (h *DeviceHandler) GetDevicesHandler(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	devices, err := h.Directory.GetDevices(c.Request.Context(), id)
	if err != nil {
		getLogger(c).Error("Failed to load devices", zap.String("actorId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load devices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

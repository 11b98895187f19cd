package handlers

import (
	"context"
	"net/http"
	"strconv"

	"bookingpay/models"
	"bookingpay/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(service booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: service}
}

// CreateBookingHandler books a service for the authenticated client.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	clientID, ok := actorID(c)
	if !ok {
		return
	}
	var req booking.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	b, err := h.Service.Create(c.Request.Context(), clientID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	b, err := h.Service.Get(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	bookings, err := h.Service.List(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *BookingHandler) AcceptBookingHandler(c *gin.Context) {
	h.transition(c, "accept", h.Service.Accept)
}

func (h *BookingHandler) DeclineBookingHandler(c *gin.Context) {
	h.transition(c, "decline", h.Service.Decline)
}

func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	h.transition(c, "cancel", h.Service.Cancel)
}

func (h *BookingHandler) CompleteBookingHandler(c *gin.Context) {
	h.transition(c, "complete", h.Service.Complete)
}

// ReviewEligibilityHandler tells the review subsystem whether the actor may review this booking.
func (h *BookingHandler) ReviewEligibilityHandler(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	eligible, err := h.Service.ReviewEligible(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eligible": eligible})
}

type transitionFunc func(ctx context.Context, bookingID, actorID string) (*models.Booking, error)

func (h *BookingHandler) transition(c *gin.Context, name string, fn transitionFunc) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	bookingID := c.Param("id")
	b, err := fn(c.Request.Context(), bookingID, id)
	if err != nil {
		getLogger(c).Debug("Booking transition refused",
			zap.String("op", name),
			zap.String("bookingId", bookingID),
			zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

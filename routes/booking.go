package routes

import (
	"bookingpay/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers the booking lifecycle and settlement endpoints.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	bookings := api.Group("/bookings")
	{
		bookings.POST("", hb.Booking.CreateBookingHandler)
		bookings.GET("", hb.Booking.ListBookingsHandler)
		bookings.GET("/:id", hb.Booking.GetBookingHandler)
		bookings.POST("/:id/accept", hb.Booking.AcceptBookingHandler)
		bookings.POST("/:id/decline", hb.Booking.DeclineBookingHandler)
		bookings.POST("/:id/cancel", hb.Booking.CancelBookingHandler)
		bookings.POST("/:id/complete", hb.Booking.CompleteBookingHandler)
		bookings.GET("/:id/review-eligibility", hb.Booking.ReviewEligibilityHandler)

		bookings.GET("/:id/payment", hb.Settlement.GetPaymentHandler)
		bookings.POST("/:id/payment", hb.Settlement.InitiatePaymentHandler)
		bookings.POST("/:id/payment/confirm", hb.Settlement.ConfirmPaymentHandler)
		bookings.POST("/:id/payment/settle", hb.Settlement.SettlePaymentHandler)
		bookings.POST("/:id/payment/reconcile", hb.Settlement.ReconcilePaymentHandler)
	}
}

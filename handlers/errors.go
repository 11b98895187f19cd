package handlers

import (
	"errors"
	"net/http"

	"bookingpay/middleware"
	"bookingpay/services/apperr"
	"bookingpay/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusForKind = map[apperr.Kind]int{
	apperr.KindInvalid:                  http.StatusBadRequest,
	apperr.KindNotFound:                 http.StatusNotFound,
	apperr.KindForbidden:                http.StatusForbidden,
	apperr.KindInvalidTransition:        http.StatusConflict,
	apperr.KindInvalidState:             http.StatusConflict,
	apperr.KindConcurrentModification:   http.StatusConflict,
	apperr.KindAlreadyPaid:              http.StatusConflict,
	apperr.KindPaymentNotCompleted:      http.StatusPaymentRequired,
	apperr.KindPayoutAccountNotVerified: http.StatusUnprocessableEntity,
	apperr.KindRailRejected:             http.StatusPaymentRequired,
	apperr.KindRailTransient:            http.StatusServiceUnavailable,
	apperr.KindInternal:                 http.StatusInternalServerError,
}

var messageForKind = map[apperr.Kind]string{
	apperr.KindInvalid:                  "Invalid request",
	apperr.KindNotFound:                 "Not found",
	apperr.KindForbidden:                "Not allowed for this actor",
	apperr.KindInvalidTransition:        "Booking cannot make this transition from its current status",
	apperr.KindInvalidState:             "Booking is not in a state that allows this operation",
	apperr.KindConcurrentModification:   "The record changed concurrently, re-read and retry",
	apperr.KindAlreadyPaid:              "Booking is already paid",
	apperr.KindPaymentNotCompleted:      "The platform fee has not been collected",
	apperr.KindPayoutAccountNotVerified: "The provider has not verified a payout bank account",
	apperr.KindRailRejected:             "The payment was rejected",
	apperr.KindRailTransient:            "The payment network is unavailable, try again",
	apperr.KindInternal:                 "Internal Server Error",
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	if status, ok := statusForKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes err using the shared error envelope. Internal details are logged, not returned.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	resp := utils.ErrorResponse{
		Error:     messageForKind[kind],
		Code:      string(kind),
		Retryable: apperr.Retryable(err),
	}
	var appErr *apperr.Error
	if kind != apperr.KindInternal && errors.As(err, &appErr) {
		resp.Details = appErr.Error()
	}
	if kind == apperr.KindInternal {
		getLogger(c).Error("Request failed", zap.Error(err))
	}
	utils.JSONError(c, StatusFor(kind), resp)
}

func badRequest(c *gin.Context, details string) {
	utils.JSONError(c, http.StatusBadRequest, utils.ErrorResponse{
		Error:   "Invalid request",
		Code:    string(apperr.KindInvalid),
		Details: details,
	})
}

// actorID returns the authenticated actor set by JWTAuthMiddleware.
func actorID(c *gin.Context) (string, bool) {
	id := c.GetString(middleware.ActorIDKey)
	if id == "" {
		utils.JSONError(c, http.StatusUnauthorized, utils.ErrorResponse{Error: "Insufficient authorization", Code: "unauthorized"})
		return "", false
	}
	return id, true
}

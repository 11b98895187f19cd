package handlers

import (
	"net/http"

	"bookingpay/services/settlement"

	"github.com/gin-gonic/gin"
)

type SettlementHandler struct {
	Settlement settlement.SettlementService
}

func NewSettlementHandler(s settlement.SettlementService) *SettlementHandler {
	return &SettlementHandler{Settlement: s}
}

// InitiatePaymentHandler opens the fee charge and returns the client secret for the card step.
func (h *SettlementHandler) InitiatePaymentHandler(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	initiation, err := h.Settlement.InitiateSettlement(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if initiation.Reused {
		status = http.StatusOK
	}
	c.JSON(status, initiation)
}

// ConfirmPaymentHandler verifies the fee charge with the fee rail.
func (h *SettlementHandler) ConfirmPaymentHandler(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	var input struct {
		FeeRailReference string `json:"feeRailReference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	payment, err := h.Settlement.ConfirmFeeLeg(c.Request.Context(), c.Param("id"), input.FeeRailReference, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// SettlePaymentHandler pays the provider. A payout still pending after a collected fee is
// reported with 202 and the payment snapshot, never as an error.
func (h *SettlementHandler) SettlePaymentHandler(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	out, err := h.Settlement.SettleProviderLeg(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if out.Failure != "" {
		status = http.StatusAccepted
	}
	c.JSON(status, out)
}

func (h *SettlementHandler) GetPaymentHandler(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	payment, err := h.Settlement.GetPayment(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment, "providerPayout": payment.Payout()})
}

// ReconcilePaymentHandler lets a party ask for the payment to be re-read from both rails.
func (h *SettlementHandler) ReconcilePaymentHandler(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	bookingID := c.Param("id")
	if _, err := h.Settlement.GetPayment(c.Request.Context(), bookingID, id); err != nil {
		respondError(c, err)
		return
	}
	payment, err := h.Settlement.ReconcilePayment(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment, "providerPayout": payment.Payout()})
}

package settlement

import "bookingpay/models"

// Operation is a settlement step that reads or advances a Payment.
type Operation string

const (
	OpInitiate       Operation = "initiate"
	OpConfirmFee     Operation = "confirm_fee"
	OpSettleProvider Operation = "settle_provider"
	OpReconcile      Operation = "reconcile"
)

// legalOps is the single table of which operations may act on a payment in each state.
var legalOps = map[models.PaymentState]map[Operation]bool{
	models.StateNotStarted: {OpInitiate: true},
	models.StateFeePending: {OpInitiate: true, OpConfirmFee: true, OpReconcile: true},
	models.StateFeeFailed:  {OpInitiate: true},
	models.StateFeeCompleted: {
		OpConfirmFee:     true,
		OpSettleProvider: true,
		OpReconcile:      true,
	},
	models.StateTransferFailed: {OpConfirmFee: true, OpSettleProvider: true, OpReconcile: true},
	models.StateFullySettled:   {OpConfirmFee: true, OpSettleProvider: true, OpReconcile: true},
}

// Allowed reports whether op may act on a payment in state s.
func Allowed(s models.PaymentState, op Operation) bool {
	return legalOps[s][op]
}

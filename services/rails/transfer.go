package rails

import "context"

// TransferStatus is the normalized state of a bank transfer.
type TransferStatus string

const (
	TransferPending TransferStatus = "pending"
	TransferPosted  TransferStatus = "posted"
	TransferSettled TransferStatus = "settled"
	TransferFailed  TransferStatus = "failed"
)

// Failed reports whether the transfer will never move money.
func (s TransferStatus) Failed() bool {
	return s == TransferFailed
}

// Account identifies the linked bank account being credited.
type Account struct {
	AccessToken string
	AccountID   string
	LegalName   string
}

// TransferRequest describes a credit to a provider.
type TransferRequest struct {
	Account        Account
	AmountCents    int64
	Currency       string
	Description    string
	IdempotencyKey string
}

// Transfer is the transfer rail's view of a credit.
type Transfer struct {
	Reference     string
	Status        TransferStatus
	AmountCents   int64
	FailureReason string
}

// TransferRail credits the provider's linked account. Authorization and execution are separate
// calls; both are keyed so a retried request never moves money twice.
type TransferRail interface {
	AuthorizeTransfer(ctx context.Context, req TransferRequest) (authorizationID string, err error)
	ExecuteTransfer(ctx context.Context, authorizationID string, req TransferRequest) (*Transfer, error)
	GetTransfer(ctx context.Context, reference string) (*Transfer, error)
}

package models

import "time"

// PayoutAccount is the provider's linked bank account used by the transfer rail.
type PayoutAccount struct {
	AccessToken string     `bson:"accessToken" json:"-"`
	AccountID   string     `bson:"accountId" json:"accountId,omitempty"`
	LegalName   string     `bson:"legalName" json:"legalName,omitempty"`
	Verified    bool       `bson:"verified" json:"verified"`
	VerifiedAt  *time.Time `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
}

// Provider is the subset of a provider profile the booking core reads.
type Provider struct {
	ID            string        `bson:"id" json:"id"`
	Name          string        `bson:"name" json:"name"`
	Active        bool          `bson:"active" json:"active"`
	PayoutAccount PayoutAccount `bson:"payoutAccount" json:"payoutAccount"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Service is a catalog entry offered by exactly one provider.
type Service struct {
	ID         string  `bson:"id" json:"id"`
	ProviderID string  `bson:"providerId" json:"providerId"`
	Name       string  `bson:"name" json:"name"`
	Price      float64 `bson:"price" json:"price"`
	Currency   string  `bson:"currency" json:"currency"`
	Active     bool    `bson:"active" json:"active"`
}

package models

import "time"

// Account states stored on members.account_state.
const (
	AccountActive   = "active"
	AccountInactive = "inactive"
)

// MemberSubscription links a member to a recurring-billing record at the
// payment processor. SubID is the processor's subscription identifier.
type MemberSubscription struct {
	ID             int64     `json:"id"`
	MemberID       int64     `json:"member_id"`
	SubID          string    `json:"sub_id"`
	Status         string    `json:"status"`
	PaymentGateway string    `json:"payment_gateway"`
	CreatedAt      time.Time `json:"created_at"`
}

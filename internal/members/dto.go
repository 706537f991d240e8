package members

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultPaymentDescription = "Payment received"

type CreateMemberRequest struct {
	Name               string          `json:"name" binding:"required"`
	HostelName         string          `json:"hostel_name"`
	CollegeName        string          `json:"college_name"`
	WhatsAppNumber     string          `json:"whatsapp_number"`
	SubscriptionAmount decimal.Decimal `json:"subscription_amount"`
	MaxCredits         int             `json:"max_credits"`
}

// nil のフィールドは変更しない
type UpdateMemberRequest struct {
	Name               *string          `json:"name,omitempty"`
	HostelName         *string          `json:"hostel_name,omitempty"`
	CollegeName        *string          `json:"college_name,omitempty"`
	WhatsAppNumber     *string          `json:"whatsapp_number,omitempty"`
	SubscriptionAmount *decimal.Decimal `json:"subscription_amount,omitempty"`
	MaxCredits         *int             `json:"max_credits,omitempty"`
}

type ReactivateRequest struct {
	SubscriptionAmount *decimal.Decimal `json:"subscription_amount" binding:"required"`
	MaxCredits         *int             `json:"max_credits" binding:"required"`
}

type PaymentRequest struct {
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Description string           `json:"description"`
}

type PaymentResponse struct {
	PaymentID   string          `json:"payment_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	PaidAt      time.Time       `json:"paid_at"`
}

type MemberResponse struct {
	MemberID           string            `json:"member_id"`
	Name               string            `json:"name"`
	HostelName         string            `json:"hostel_name"`
	CollegeName        string            `json:"college_name"`
	WhatsAppNumber     string            `json:"whatsapp_number"`
	SubscriptionAmount decimal.Decimal   `json:"subscription_amount"`
	TotalPaid          decimal.Decimal   `json:"total_paid"`
	Outstanding        decimal.Decimal   `json:"outstanding"`
	MaxCredits         int               `json:"max_credits"`
	RemainingCredits   int               `json:"remaining_credits"`
	PaymentHistory     []PaymentResponse `json:"payment_history,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

type ResetResponse struct {
	Reset int64 `json:"reset"`
}

type RevenueResponse struct {
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
	Members        int64           `json:"members"`
}

package members

import (
	"time"

	"github.com/shopspring/decimal"
)

type Member struct {
	ID                 string
	Name               string
	HostelName         string
	CollegeName        string
	WhatsAppNumber     string
	SubscriptionAmount decimal.Decimal
	TotalPaid          decimal.Decimal
	MaxCredits         int
	RemainingCredits   int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Payment struct {
	ID          string
	MemberID    string
	Amount      decimal.Decimal
	Description string
	PaidAt      time.Time
}

func (m Member) toDTO(history []Payment) MemberResponse {
	out := MemberResponse{
		MemberID:           m.ID,
		Name:               m.Name,
		HostelName:         m.HostelName,
		CollegeName:        m.CollegeName,
		WhatsAppNumber:     m.WhatsAppNumber,
		SubscriptionAmount: m.SubscriptionAmount,
		TotalPaid:          m.TotalPaid,
		Outstanding:        m.SubscriptionAmount.Sub(m.TotalPaid),
		MaxCredits:         m.MaxCredits,
		RemainingCredits:   m.RemainingCredits,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
	if history != nil {
		out.PaymentHistory = make([]PaymentResponse, 0, len(history))
		for _, p := range history {
			out.PaymentHistory = append(out.PaymentHistory, p.toDTO())
		}
	}
	return out
}

func (p Payment) toDTO() PaymentResponse {
	return PaymentResponse{
		PaymentID:   p.ID,
		Amount:      p.Amount,
		Description: p.Description,
		PaidAt:      p.PaidAt.UTC(),
	}
}

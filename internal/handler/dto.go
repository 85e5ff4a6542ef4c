package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/multiexpenses/internal/accounting"
	"github.com/mmynk/multiexpenses/internal/models"
	"github.com/mmynk/multiexpenses/internal/service"
)

// Requests. Amounts decode through decimal.Decimal so "12.34" and 12.34 are
// both accepted without a float round-trip.

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type groupRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	UserID string `json:"userId"`
}

type acceptInvitationRequest struct {
	Token string `json:"token"`
}

type splitRequest struct {
	UserID string          `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

type transactionRequest struct {
	GroupID     string          `json:"groupId"`
	PaidBy      string          `json:"paidBy"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	CreatedAt   *time.Time      `json:"createdAt"`
	Splits      []splitRequest  `json:"splits"`
}

func (r *transactionRequest) input() service.TransactionInput {
	in := service.TransactionInput{
		GroupID:     r.GroupID,
		PaidBy:      r.PaidBy,
		Type:        r.Type,
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
	}
	if r.CreatedAt != nil && !r.CreatedAt.IsZero() {
		in.CreatedAt = r.CreatedAt.Unix()
	}
	for _, s := range r.Splits {
		in.Splits = append(in.Splits, models.Split{UserID: s.UserID, Amount: s.Amount})
	}
	return in
}

// Responses.

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type memberResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type groupResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Members   []memberResponse `json:"members"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
}

type invitationResponse struct {
	ID              string `json:"id"`
	GroupID         string `json:"groupId"`
	InvitationToken string `json:"invitationToken"`
	ExpiresAt       string `json:"expiresAt"`
	CreatedAt       string `json:"createdAt"`
}

type acceptInvitationResponse struct {
	GroupID string `json:"groupId"`
	Message string `json:"message"`
}

type splitResponse struct {
	ID     string      `json:"id"`
	UserID string      `json:"userId"`
	Amount json.Number `json:"amount"`
}

type transactionResponse struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"groupId"`
	PaidBy      string          `json:"paidBy,omitempty"`
	Type        string          `json:"type"`
	Amount      json.Number     `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
	Splits      []splitResponse `json:"splits"`
}

type paidSumResponse struct {
	GroupID  string      `json:"groupId"`
	MemberID string      `json:"memberId"`
	PaidSum  json.Number `json:"paidSum"`
}

type expensesSumResponse struct {
	GroupID     string      `json:"groupId"`
	MemberID    string      `json:"memberId"`
	ExpensesSum json.Number `json:"expensesSum"`
}

type earningsSumResponse struct {
	GroupID     string      `json:"groupId"`
	MemberID    string      `json:"memberId"`
	EarningsSum json.Number `json:"earningsSum"`
}

type memberBalanceResponse struct {
	UserID string      `json:"userId"`
	Paid   json.Number `json:"paid"`
	Owed   json.Number `json:"owed"`
	Net    json.Number `json:"net"`
}

type transferResponse struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount json.Number `json:"amount"`
}

type balancesResponse struct {
	GroupID   string                  `json:"groupId"`
	Balances  []memberBalanceResponse `json:"balances"`
	Transfers []transferResponse      `json:"transfers"`
}

// money renders an amount as a JSON number with two decimals.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func timestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func toUser(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, CreatedAt: timestamp(u.CreatedAt)}
}

func toMembers(members []models.Member) []memberResponse {
	out := make([]memberResponse, len(members))
	for i, m := range members {
		out[i] = memberResponse{ID: m.ID, Email: m.Email}
	}
	return out
}

func toGroup(g *models.Group) groupResponse {
	return groupResponse{
		ID:        g.ID,
		Name:      g.Name,
		Members:   toMembers(g.Members),
		CreatedAt: timestamp(g.CreatedAt),
		UpdatedAt: timestamp(g.UpdatedAt),
	}
}

func toInvitation(inv *models.Invitation) invitationResponse {
	return invitationResponse{
		ID:              inv.ID,
		GroupID:         inv.GroupID,
		InvitationToken: inv.Token,
		ExpiresAt:       timestamp(inv.ExpiresAt),
		CreatedAt:       timestamp(inv.CreatedAt),
	}
}

func toTransaction(t *models.Transaction) transactionResponse {
	splits := make([]splitResponse, len(t.Splits))
	for i, s := range t.Splits {
		splits[i] = splitResponse{ID: s.ID, UserID: s.UserID, Amount: money(s.Amount)}
	}
	return transactionResponse{
		ID:          t.ID,
		GroupID:     t.GroupID,
		PaidBy:      t.PaidBy,
		Type:        t.Type,
		Amount:      money(t.Amount),
		Category:    t.Category,
		Description: t.Description,
		CreatedAt:   timestamp(t.CreatedAt),
		UpdatedAt:   timestamp(t.UpdatedAt),
		Splits:      splits,
	}
}

func toBalances(b *service.GroupBalances) balancesResponse {
	res := balancesResponse{
		GroupID:   b.GroupID,
		Balances:  make([]memberBalanceResponse, len(b.Balances)),
		Transfers: make([]transferResponse, len(b.Transfers)),
	}
	for i, mb := range b.Balances {
		res.Balances[i] = memberBalanceResponse{
			UserID: mb.UserID,
			Paid:   money(mb.Paid),
			Owed:   money(mb.Owed),
			Net:    money(mb.Net),
		}
	}
	for i, tr := range b.Transfers {
		res.Transfers[i] = toTransfer(tr)
	}
	return res
}

func toTransfer(t accounting.Transfer) transferResponse {
	return transferResponse{From: t.From, To: t.To, Amount: money(t.Amount)}
}

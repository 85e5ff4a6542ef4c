// Package handler exposes the services as a REST/JSON API.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/mmynk/multiexpenses/internal/metrics"
	"github.com/mmynk/multiexpenses/internal/middleware"
	"github.com/mmynk/multiexpenses/internal/service"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Auth         *service.AuthService
	Users        *service.UserService
	Groups       *service.GroupService
	Members      *service.MemberService
	Invitations  *service.InvitationService
	Transactions *service.TransactionService

	Tokens     middleware.TokenValidator
	Membership middleware.MembershipChecker
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Handler holds the HTTP handlers.
type Handler struct {
	auth         *service.AuthService
	users        *service.UserService
	groups       *service.GroupService
	members      *service.MemberService
	invitations  *service.InvitationService
	transactions *service.TransactionService
	logger       *slog.Logger
}

// NewRouter builds the full HTTP handler: routes, authentication, the
// membership gate on group-scoped routes and the outer logging, metrics and
// CORS middleware.
func NewRouter(d Deps) http.Handler {
	h := &Handler{
		auth:         d.Auth,
		users:        d.Users,
		groups:       d.Groups,
		members:      d.Members,
		invitations:  d.Invitations,
		transactions: d.Transactions,
		logger:       d.Logger,
	}

	authed := middleware.RequireAuth(d.Tokens)
	member := func(fn http.HandlerFunc) http.Handler {
		gate := middleware.RequireGroupMember(d.Membership, middleware.PathValue("groupId"), d.Logger)
		return authed(gate(fn))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.health)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.Handle("GET /api/auth/me", authed(http.HandlerFunc(h.me)))

	mux.Handle("GET /api/users/find", authed(http.HandlerFunc(h.findUser)))

	mux.Handle("GET /api/groups", authed(http.HandlerFunc(h.listGroups)))
	mux.Handle("POST /api/groups", authed(http.HandlerFunc(h.createGroup)))
	mux.Handle("POST /api/groups/invitations/accept", authed(http.HandlerFunc(h.acceptInvitation)))

	mux.Handle("GET /api/groups/{groupId}", member(h.getGroup))
	mux.Handle("PUT /api/groups/{groupId}", member(h.updateGroup))
	mux.Handle("DELETE /api/groups/{groupId}", member(h.deleteGroup))
	mux.Handle("GET /api/groups/{groupId}/balances", member(h.groupBalances))

	mux.Handle("GET /api/groups/{groupId}/members", member(h.listMembers))
	mux.Handle("POST /api/groups/{groupId}/members", member(h.addMember))
	mux.Handle("DELETE /api/groups/{groupId}/members/{userId}", member(h.removeMember))

	mux.Handle("GET /api/groups/{groupId}/invitations", member(h.listInvitations))
	mux.Handle("POST /api/groups/{groupId}/invitations", member(h.createInvitation))
	mux.Handle("DELETE /api/groups/{groupId}/invitations/{token}", member(h.revokeInvitation))

	mux.Handle("GET /api/groups/{groupId}/transactions", member(h.listTransactions))
	mux.Handle("POST /api/groups/{groupId}/transactions", member(h.createTransaction))
	mux.Handle("GET /api/groups/{groupId}/transactions/{transactionId}", member(h.getTransaction))
	mux.Handle("PUT /api/groups/{groupId}/transactions/{transactionId}", member(h.updateTransaction))
	mux.Handle("DELETE /api/groups/{groupId}/transactions/{transactionId}", member(h.deleteTransaction))
	mux.Handle("GET /api/groups/{groupId}/transactions/expenses/{memberId}", member(h.expensesByMember))
	mux.Handle("GET /api/groups/{groupId}/transactions/paid/{memberId}", member(h.paidByMember))
	mux.Handle("GET /api/groups/{groupId}/transactions/income/{memberId}", member(h.incomeByMember))

	// Nothing between Metrics and the mux may copy the request, or r.Pattern is lost.
	outer := []func(http.Handler) http.Handler{middleware.Logging(d.Logger)}
	if d.Metrics != nil {
		outer = append(outer, middleware.Metrics(d.Metrics))
	}
	outer = append(outer, middleware.CORS)
	return middleware.Chain(mux, outer...)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

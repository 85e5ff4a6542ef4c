package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// MembershipChecker answers the two questions the membership gate asks.
// storage.Store satisfies it.
type MembershipChecker interface {
	GroupExists(ctx context.Context, groupID string) (bool, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// GroupIDExtractor pulls the group ID out of a request.
type GroupIDExtractor func(r *http.Request) string

// PathValue extracts the group ID from a named route wildcard.
func PathValue(name string) GroupIDExtractor {
	return func(r *http.Request) string {
		return r.PathValue(name)
	}
}

// RequireGroupMember gates a handler on the caller belonging to the group
// named by extract. It must run after RequireAuth.
//
// Membership is read from the store on every request, so a removed member
// loses access immediately even with a still-valid token.
//
//	400 group ID is not a UUID
//	404 group does not exist
//	403 caller is not a member
func RequireGroupMember(checker MembershipChecker, extract GroupIDExtractor, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := GetUserID(ctx)
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			groupID := extract(r)
			if _, err := uuid.Parse(groupID); err != nil {
				writeError(w, http.StatusBadRequest, "invalid group id")
				return
			}

			exists, err := checker.GroupExists(ctx, groupID)
			if err != nil {
				logger.Error("Membership check failed", "group_id", groupID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !exists {
				writeError(w, http.StatusNotFound, "group not found")
				return
			}

			member, err := checker.IsMember(ctx, groupID, userID)
			if err != nil {
				logger.Error("Membership check failed", "group_id", groupID, "user_id", userID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !member {
				logger.Warn("Non-member denied", "group_id", groupID, "user_id", userID)
				writeError(w, http.StatusForbidden, "not a member of this group")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

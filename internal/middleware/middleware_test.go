package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/multiexpenses/internal/auth"
	"github.com/mmynk/multiexpenses/internal/metrics"
	"github.com/mmynk/multiexpenses/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// whoami echoes the principal placed in the context.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, GetUserID(r.Context())+"|"+GetEmail(r.Context()))
})

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", "iss", "aud", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	h := RequireAuth(jwtManager)(whoami)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "u1|a@example.com"},
		{"lower-case scheme", "bearer " + token, http.StatusOK, "u1|a@example.com"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

type fakeChecker struct {
	groups  map[string][]string
	failure error
}

func (f *fakeChecker) GroupExists(_ context.Context, groupID string) (bool, error) {
	if f.failure != nil {
		return false, f.failure
	}
	_, ok := f.groups[groupID]
	return ok, nil
}

func (f *fakeChecker) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	for _, m := range f.groups[groupID] {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func TestRequireGroupMember(t *testing.T) {
	groupID := uuid.NewString()
	checker := &fakeChecker{groups: map[string][]string{groupID: {"member"}}}

	mux := http.NewServeMux()
	mux.Handle("GET /groups/{groupId}", RequireGroupMember(checker, PathValue("groupId"), discardLogger())(whoami))

	tests := []struct {
		name       string
		userID     string
		groupID    string
		wantStatus int
	}{
		{"member passes", "member", groupID, http.StatusOK},
		{"non-member forbidden", "stranger", groupID, http.StatusForbidden},
		{"missing group", "member", uuid.NewString(), http.StatusNotFound},
		{"malformed id", "member", "not-a-uuid", http.StatusBadRequest},
		{"unauthenticated", "", groupID, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/groups/"+tt.groupID, nil)
			if tt.userID != "" {
				req = req.WithContext(WithPrincipal(req.Context(), tt.userID, ""))
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequireGroupMember_ReadsMembershipEveryCall(t *testing.T) {
	groupID := uuid.NewString()
	checker := &fakeChecker{groups: map[string][]string{groupID: {"member"}}}
	h := RequireGroupMember(checker, func(*http.Request) string { return groupID }, discardLogger())(whoami)

	call := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithPrincipal(req.Context(), "member", ""))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call())
	checker.groups[groupID] = nil
	assert.Equal(t, http.StatusForbidden, call())
}

func TestRequireGroupMember_StoreFailure(t *testing.T) {
	checker := &fakeChecker{failure: errors.New("disk on fire")}
	h := RequireGroupMember(checker, func(*http.Request) string { return uuid.NewString() }, discardLogger())(whoami)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), "member", ""))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestLoggingRecordsStatusAndUser(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	jwtManager := auth.NewJWTManager("secret", "iss", "aud", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	teapot := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Chain(teapot, Logging(logger), RequireAuth(jwtManager))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "user_id=u1")
	assert.Contains(t, out, "path=/brew")
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(whoami)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/groups", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.Handle("GET /items/{id}", whoami)
	h := Metrics(m)(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/2", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	expected := `
# HELP multiexpenses_http_requests_total HTTP requests by method, route pattern and status code.
# TYPE multiexpenses_http_requests_total counter
multiexpenses_http_requests_total{code="200",method="GET",route="GET /items/{id}"} 2
multiexpenses_http_requests_total{code="404",method="GET",route="unmatched"} 1
`
	err := testutil.GatherAndCompare(m.Registry(), bytes.NewBufferString(expected), "multiexpenses_http_requests_total")
	assert.NoError(t, err)
}

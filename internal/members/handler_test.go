package members

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"tiffin-backend/internal/platform/auth"
	"tiffin-backend/internal/platform/idempotency"
)

func newTestRouter(t *testing.T, session auth.Session) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(auth.CtxSessionKey, session)
		c.Next()
	})
	RegisterRoutes(api, svc, idempotency.Middleware(idempotency.NewMemoryStore(), time.Hour))
	return r, svc
}

func send(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var admin = auth.Session{AccountID: "root", Role: auth.RoleAdmin}

func createViaAPI(t *testing.T, r http.Handler) MemberResponse {
	t.Helper()
	w := send(r, http.MethodPost, "/api/v1/members",
		`{"name":"Asha","hostel_name":"C","subscription_amount":3000,"max_credits":30}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var m MemberResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestMemberCRUDHandlers(t *testing.T) {
	r, _ := newTestRouter(t, admin)
	m := createViaAPI(t, r)
	require.Equal(t, 30, m.RemainingCredits)

	w := send(r, http.MethodPost, "/api/v1/members", `{"subscription_amount":1,"max_credits":1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodGet, "/api/v1/members", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"count":1`)

	w = send(r, http.MethodPut, "/api/v1/members/"+m.MemberID, `{"whatsapp_number":"+91 90000 00000"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"whatsapp_number":"+91 90000 00000"`)

	w = send(r, http.MethodDelete, "/api/v1/members/"+m.MemberID, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = send(r, http.MethodGet, "/api/v1/members/"+m.MemberID, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
}

func TestPaymentHandlers(t *testing.T) {
	r, _ := newTestRouter(t, admin)
	m := createViaAPI(t, r)
	path := "/api/v1/members/" + m.MemberID + "/payments"

	w := send(r, http.MethodPost, path, `{"amount":"1000.50"}`, idempotency.HeaderKey, "pay-1")
	require.Equal(t, http.StatusOK, w.Code)
	w = send(r, http.MethodPost, path, `{"amount":"1000.50"}`, idempotency.HeaderKey, "pay-1")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "true", w.Header().Get(idempotency.HeaderReplayed))

	w = send(r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	w = send(r, http.MethodPost, path, `{"amount":5000}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), `"code":"LIMIT_EXCEEDED"`)

	w = send(r, http.MethodPost, path, `{"amount":"lots"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReactivateHandler(t *testing.T) {
	r, _ := newTestRouter(t, admin)
	m := createViaAPI(t, r)
	path := "/api/v1/members/" + m.MemberID + "/reactivate"

	w := send(r, http.MethodPut, path, `{"subscription_amount":"abc","max_credits":30}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPut, path, `{"subscription_amount":5000}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPut, path, `{"subscription_amount":5000,"max_credits":30}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res MemberResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, 30, res.RemainingCredits)
	require.True(t, res.TotalPaid.IsZero())
}

func TestStatsAndResetHandlers(t *testing.T) {
	r, _ := newTestRouter(t, admin)
	createViaAPI(t, r)

	w := send(r, http.MethodGet, "/api/v1/stats/monthly-revenue", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rev RevenueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rev))
	require.True(t, rev.MonthlyRevenue.Equal(dec("3000")))

	w = send(r, http.MethodPut, "/api/v1/members/reset-credits", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"reset":0}`, w.Body.String())

	w = send(r, http.MethodGet, "/api/v1/members/exhausted", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"count":0`)
}

func TestMemberSessionAccess(t *testing.T) {
	r, _ := newTestRouter(t, auth.Session{AccountID: "asha", Role: auth.RoleMember, MemberID: "ID000000000000000000000001"})

	w := send(r, http.MethodPost, "/api/v1/members",
		`{"name":"Asha","subscription_amount":3000,"max_credits":30}`)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = send(r, http.MethodGet, "/api/v1/members/ID000000000000000000000001", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = send(r, http.MethodGet, "/api/v1/members/ID000000000000000000000002/payments", "")
	require.Equal(t, http.StatusForbidden, w.Code)
}

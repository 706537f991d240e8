package members

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tiffin-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterRoutes mounts member and stats routes on an authenticated group.
// idem guards payment recording with an Idempotency-Key.
func RegisterRoutes(r gin.IRoutes, svc *Service, idem gin.HandlerFunc) {
	h := &Handler{svc: svc}
	admin := auth.RequireRole(auth.RoleAdmin)
	owner := auth.RequireOwnerOrAdmin("id")

	// 固定パスを先に
	r.GET("/members/exhausted", admin, h.ListExhausted)
	r.PUT("/members/reset-credits", admin, h.ResetCredits)

	r.POST("/members", admin, h.Create)
	r.GET("/members", admin, h.List)
	r.GET("/members/:id", owner, h.Get)
	r.PUT("/members/:id", admin, h.Update)
	r.DELETE("/members/:id", admin, h.Delete)

	r.PUT("/members/:id/reactivate", admin, h.Reactivate)
	r.POST("/members/:id/payments", admin, idem, h.RecordPayment)
	r.GET("/members/:id/payments", owner, h.ListPayments)

	r.GET("/stats/monthly-revenue", admin, h.MonthlyRevenue)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Header("Location", "/members/"+res.MemberID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(res), "members": res})
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ResetCredits(c *gin.Context) {
	res, err := h.svc.ResetCredits(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListExhausted(c *gin.Context) {
	res, err := h.svc.ListExhausted(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(res), "members": res})
}

func (h *Handler) Reactivate(c *gin.Context) {
	var req ReactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "subscription_amount and max_credits must be numbers"))
		return
	}
	res, err := h.svc.Reactivate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) RecordPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "please provide a valid payment amount"))
		return
	}
	res, err := h.svc.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListPayments(c *gin.Context) {
	res, err := h.svc.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) MonthlyRevenue(c *gin.Context) {
	res, err := h.svc.MonthlyRevenue(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- error helpers ----------

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var api *APIError
	if errors.As(err, &api) {
		return errorBody(api.Code, api.Message)
	}
	slog.Error("members request failed", "error", err)
	return errorBody(CodeInternal, "internal error")
}

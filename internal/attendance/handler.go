package attendance

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tiffin-backend/internal/platform/auth"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct{ svc *Service }

// RegisterRoutes mounts the attendance routes on an authenticated group.
// idem guards the bulk import with an Idempotency-Key.
func RegisterRoutes(r gin.IRoutes, svc *Service, idem gin.HandlerFunc) {
	h := &Handler{svc: svc}
	admin := auth.RequireRole(auth.RoleAdmin)

	r.PUT("/attendance/:memberId/:date/:meal", admin, h.SetMealPresence)
	r.POST("/attendance", admin, idem, h.CreateOrUpdate)

	r.GET("/attendance/today/count", admin, h.TodayCount)
	r.GET("/attendance/export", admin, h.Export)
	r.GET("/attendance/member/:memberId", auth.RequireOwnerOrAdmin("memberId"), h.ListByMember)
	r.GET("/attendance/:date", admin, h.ListByDate)
}

// SetMealPresence godoc
// @Summary  Mark a meal present or absent
// @Tags     attendance
// @Param    memberId path string true "member id"
// @Param    date     path string true "YYYY-MM-DD or today"
// @Param    meal     path string true "lunch or dinner"
// @Success  200 {object} ToggleResponse
// @Router   /attendance/{memberId}/{date}/{meal} [put]
func (h *Handler) SetMealPresence(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "status (boolean) is required"))
		return
	}

	res, err := h.svc.SetMealPresence(c.Request.Context(), c.Param("memberId"), c.Param("date"), c.Param("meal"), *req.Status)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// 一括登録: 一件でも失敗があれば 207
func (h *Handler) CreateOrUpdate(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.CreateOrUpdateAttendance(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	status := http.StatusOK
	if res.Failed > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, res)
}

func (h *Handler) ListByDate(c *gin.Context) {
	res, err := h.svc.ListByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListByMember(c *gin.Context) {
	res, err := h.svc.ListByMember(c.Request.Context(), c.Param("memberId"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) TodayCount(c *gin.Context) {
	res, err := h.svc.TodayCount(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Export(c *gin.Context) {
	data, name, err := h.svc.Export(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
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
	slog.Error("attendance request failed", "error", err)
	return errorBody(CodeInternal, "internal error")
}

package menus

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tiffin-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// Reads are public. Writes go on protected, which must already carry RequireAuth.
func RegisterRoutes(public, protected gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	public.GET("/menus/today", h.Today)
	public.GET("/menus/date/:date", h.ByDate)
	public.GET("/menus/range", h.Range)

	admin := auth.RequireRole(auth.RoleAdmin)
	protected.POST("/menus", admin, h.Create)
	protected.PUT("/menus/:id", admin, h.Update)
	protected.DELETE("/menus/:id", admin, h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	s, _ := auth.SessionFrom(c)
	res, err := h.svc.Create(c.Request.Context(), req, s.AccountID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Header("Location", "/menus/"+res.MenuID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Today(c *gin.Context) {
	res, err := h.svc.Today(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ByDate(c *gin.Context) {
	res, err := h.svc.ByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Range(c *gin.Context) {
	res, err := h.svc.Range(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateMenuRequest
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
	slog.Error("menus request failed", "error", err)
	return errorBody(CodeInternal, "internal error")
}

package entitlement

import (
	"errors"
	"net/http"
	"regexp"

	"gymcore/internal/api"
	"gymcore/internal/auth"
	"gymcore/internal/plan"
	"gymcore/internal/user"

	"github.com/gin-gonic/gin"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetUsage godoc
// @Summary      Usage for the current period
// @Tags         usage
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Summary
// @Failure      403  {object}  api.DeniedResponse
// @Router       /usage [get]
func (h *Handler) GetUsage(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	summary, err := h.service.UsageSummary(c.Request.Context(), userID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// UseGuestPass godoc
// @Summary      Use a guest pass
// @Tags         usage
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  ConsumeResponse
// @Failure      403  {object}  api.DeniedResponse
// @Router       /usage/guest-pass [post]
func (h *Handler) UseGuestPass(c *gin.Context) {
	h.consume(c, ActionGuestPass)
}

// UseMassage godoc
// @Summary      Use a massage session
// @Tags         usage
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  ConsumeResponse
// @Failure      403  {object}  api.DeniedResponse
// @Router       /usage/massage [post]
func (h *Handler) UseMassage(c *gin.Context) {
	h.consume(c, ActionMassage)
}

func (h *Handler) consume(c *gin.Context, action Action) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	authz, err := h.service.Authorize(c.Request.Context(), userID, action)
	if err != nil {
		WriteError(c, err)
		return
	}
	rec, err := h.service.Consume(c.Request.Context(), authz)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, ConsumeResponse{
		Action:    action,
		Allowed:   true,
		Month:     rec.Month,
		Usage:     CountersOf(rec),
		Remaining: Remaining(authz.Plan, rec, action),
	})
}

// ListMonthlyUsage godoc
// @Summary      Usage records for a month
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        month  query     string  false  "YYYY-MM, defaults to the current month"
// @Success      200    {array}   usage.Record
// @Failure      400    {object}  api.ErrorResponse
// @Router       /admin/usage [get]
func (h *Handler) ListMonthlyUsage(c *gin.Context) {
	month := c.Query("month")
	if month != "" && !monthPattern.MatchString(month) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "month must be formatted as YYYY-MM"})
		return
	}

	records, err := h.service.MonthlyUsage(c.Request.Context(), month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load usage"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// WriteError maps gate and lookup errors onto HTTP responses.
func WriteError(c *gin.Context, err error) {
	var denied *DeniedError
	switch {
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, api.DeniedResponse{Error: denied.Message, Reason: denied.Reason})
	case errors.Is(err, user.ErrUserNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found"})
	case errors.Is(err, plan.ErrPlanNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Plan not found"})
	case errors.Is(err, ErrUnknownAction):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "entitlement check failed"})
	}
}

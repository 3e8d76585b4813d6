package membership

import (
	"errors"
	"net/http"
	"strconv"

	"gymcore/internal/api"
	"gymcore/internal/auth"
	"gymcore/internal/plan"
	"gymcore/internal/user"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetMembership godoc
// @Summary      Current membership
// @Tags         membership
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  View
// @Router       /membership [get]
func (h *Handler) GetMembership(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	view, err := h.service.Status(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SelectPlan godoc
// @Summary      Request a membership plan
// @Description  Puts the membership into pending until an admin approves it.
// @Tags         membership
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      SelectRequest  true  "Plan selection"
// @Success      200      {object}  user.User
// @Failure      404      {object}  api.ErrorResponse
// @Router       /membership/select [post]
func (h *Handler) SelectPlan(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req SelectRequest
	if !api.BindAndValidate(c, &req) {
		return
	}

	u, err := h.service.Select(c.Request.Context(), userID, req.PlanID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Renew godoc
// @Summary      Re-apply for the expired plan
// @Tags         membership
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  user.User
// @Failure      409  {object}  api.ErrorResponse
// @Router       /membership/renew [post]
func (h *Handler) Renew(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	u, err := h.service.Renew(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// ListPending godoc
// @Summary      Memberships awaiting approval
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  user.User
// @Router       /admin/memberships/pending [get]
func (h *Handler) ListPending(c *gin.Context) {
	users, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Approve godoc
// @Summary      Approve pending membership
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        userID  path      int  true  "User ID"
// @Success      200     {object}  user.User
// @Failure      404     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Router       /admin/memberships/{userID}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	u, err := h.service.Approve(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Reject godoc
// @Summary      Reject pending membership
// @Description  The reason is echoed back and sent to the member but not stored.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        userID   path      int            true   "User ID"
// @Param        request  body      RejectRequest  false  "Rejection reason"
// @Success      200      {object}  RejectResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/memberships/{userID}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	var req RejectRequest
	if c.Request.ContentLength > 0 && !api.BindAndValidate(c, &req) {
		return
	}

	u, err := h.service.Reject(c.Request.Context(), userID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, RejectResponse{User: *u, Reason: req.Reason})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found"})
	case errors.Is(err, plan.ErrPlanNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Plan not found"})
	case errors.Is(err, ErrInvalidState):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "membership operation failed"})
	}
}

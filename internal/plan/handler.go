package plan

import (
	"errors"
	"net/http"
	"strconv"

	"gymcore/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListPlans godoc
// @Summary      List available plans
// @Tags         plans
// @Produce      json
// @Success      200  {array}   Plan
// @Router       /plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load plans"})
		return
	}
	c.JSON(http.StatusOK, plans)
}

// ListAllPlans godoc
// @Summary      List all plans including disabled ones
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Plan
// @Router       /admin/plans [get]
func (h *Handler) ListAllPlans(c *gin.Context) {
	plans, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load plans"})
		return
	}
	c.JSON(http.StatusOK, plans)
}

// CreatePlan godoc
// @Summary      Create plan
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      PlanRequest  true  "Plan"
// @Success      201      {object}  Plan
// @Failure      400      {object}  api.ValidationErrorResponse
// @Router       /admin/plans [post]
func (h *Handler) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if !api.BindAndValidate(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create plan"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdatePlan godoc
// @Summary      Update plan
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        planID   path      int          true  "Plan ID"
// @Param        request  body      PlanRequest  true  "Plan"
// @Success      200      {object}  Plan
// @Failure      400      {object}  api.ValidationErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /admin/plans/{planID} [put]
func (h *Handler) UpdatePlan(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid plan ID"})
		return
	}

	var req PlanRequest
	if !api.BindAndValidate(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePlan godoc
// @Summary      Delete plan
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        planID  path      int  true  "Plan ID"
// @Success      200     {object}  api.MessageResponse
// @Failure      404     {object}  api.ErrorResponse
// @Router       /admin/plans/{planID} [delete]
func (h *Handler) DeletePlan(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid plan ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Plan deleted"})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrPlanNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Plan not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "plan operation failed"})
}

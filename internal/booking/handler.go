package booking

import (
	"errors"
	"net/http"
	"strconv"

	"gymcore/internal/api"
	"gymcore/internal/auth"
	"gymcore/internal/entitlement"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// BookSession godoc
// @Summary      Book personal training session
// @Description  Requires an active membership whose plan includes personal training with sessions left this period.
// @Tags         sessions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      BookSessionRequest  true  "Session"
// @Success      201      {object}  BookSessionResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.DeniedResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /sessions [post]
func (h *Handler) BookSession(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req BookSessionRequest
	if !api.BindAndValidate(c, &req) {
		return
	}

	resp, err := h.service.BookSession(c.Request.Context(), userID, req.TrainerID, req.ScheduledAt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CancelSession godoc
// @Summary      Cancel personal training session
// @Description  Cancelled sessions still count towards the period's usage.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      int  true  "Booking ID"
// @Success      200        {object}  CancelBookingResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /sessions/{bookingID}/cancel [post]
func (h *Handler) CancelSession(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	bookingID, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid booking ID"})
		return
	}

	if err := h.service.CancelSession(c.Request.Context(), userID, bookingID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, CancelBookingResponse{Message: "Session cancelled"})
}

// ListMySessions godoc
// @Summary      List own sessions
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Booking
// @Router       /sessions [get]
func (h *Handler) ListMySessions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	bookings, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load sessions"})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// ListTrainerSessions godoc
// @Summary      Sessions booked with the calling trainer
// @Tags         trainer
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  BookingWithDetails
// @Router       /trainer/sessions [get]
func (h *Handler) ListTrainerSessions(c *gin.Context) {
	trainerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	bookings, err := h.service.ListForTrainer(c.Request.Context(), trainerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load sessions"})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrTrainerNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrSessionInPast):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrTrainerBusy), errors.Is(err, ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotOwner):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
	default:
		entitlement.WriteError(c, err)
	}
}

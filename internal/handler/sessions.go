package handler

import (
	"net/http"
	"strconv"

	"github.com/kassemKu/sibai-transactions-sub000/internal/apierror"
	"github.com/kassemKu/sibai-transactions-sub000/internal/dto"
	"github.com/kassemKu/sibai-transactions-sub000/internal/middleware"
	"github.com/kassemKu/sibai-transactions-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SessionHandler struct{ svc service.SessionService }

func NewSessionHandler(svc service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Open godoc
// @Summary Opens the shop-wide cash session (admin only)
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 201 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash-sessions/open [post]
func (h *SessionHandler) Open(c *gin.Context) {
	claims := middleware.GetClaims(c)
	openerID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Open(c.Request.Context(), openerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// MarkPending godoc
// @Summary Freezes the session ahead of closing (admin only)
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash-sessions/{id}/pending [post]
func (h *SessionHandler) MarkPending(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.MarkPending(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary Closes a pending session with counted balances (admin only)
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.CloseSessionRequest true "Counted closing balances"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash-sessions/{id}/close [post]
func (h *SessionHandler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	closerID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Close(c.Request.Context(), id, closerID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddCashbox godoc
// @Summary Adds counted cash to the shop pool mid-shift (admin only)
// @Tags sessions
// @Accept json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.AddCashboxRequest true "Currency additions"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash-sessions/{id}/cashbox [post]
func (h *SessionHandler) AddCashbox(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.AddCashboxRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	addedBy, _ := uuid.Parse(claims.UserID)

	if err := h.svc.AddCashbox(c.Request.Context(), id, addedBy, req); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCashbox godoc
// @Summary Lists the journaled cashbox additions of a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {array} dto.CashboxAdditionResponse
// @Router /v1/cash-sessions/{id}/cashbox [get]
func (h *SessionHandler) ListCashbox(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.ListCashboxAdditions(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Current godoc
// @Summary Returns the current non-closed session with its rate snapshots
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cash-sessions/current [get]
func (h *SessionHandler) Current(c *gin.Context) {
	resp, err := h.svc.Current(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetBalances godoc
// @Summary Returns per-currency balances of a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {array} dto.BalanceResponse
// @Router /v1/cash-sessions/{id}/balances [get]
func (h *SessionHandler) GetBalances(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetBalances(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Lists past and present sessions, newest first
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} dto.SessionListResponse
// @Router /v1/cash-sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := h.svc.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

package handler

import (
	"net/http"

	"github.com/kassemKu/sibai-transactions-sub000/internal/apierror"
	"github.com/kassemKu/sibai-transactions-sub000/internal/dto"
	"github.com/kassemKu/sibai-transactions-sub000/internal/middleware"
	"github.com/kassemKu/sibai-transactions-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CasherSessionHandler struct{ svc service.CasherSessionService }

func NewCasherSessionHandler(svc service.CasherSessionService) *CasherSessionHandler {
	return &CasherSessionHandler{svc: svc}
}

// Open godoc
// @Summary Opens a cashier drawer, allocating cash from the shop pool (admin only)
// @Tags casher-sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenCasherSessionRequest true "Casher and opening allocation"
// @Success 201 {object} dto.CasherSessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/casher-sessions/open [post]
func (h *CasherSessionHandler) Open(c *gin.Context) {
	var req dto.OpenCasherSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// MarkPending godoc
// @Summary Freezes a drawer ahead of counting (admin only)
// @Tags casher-sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Casher session ID"
// @Success 200 {object} dto.CasherSessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/casher-sessions/{id}/pending [post]
func (h *CasherSessionHandler) MarkPending(c *gin.Context) {
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
// @Summary Closes a pending drawer and folds counted cash back into the pool (admin only)
// @Tags casher-sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Casher session ID"
// @Param body body dto.CloseCasherSessionRequest true "Counted closing balances"
// @Success 200 {object} dto.CasherSessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/casher-sessions/{id}/close [post]
func (h *CasherSessionHandler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.CloseCasherSessionRequest
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

// Get godoc
// @Summary Returns one drawer with its balances
// @Tags casher-sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Casher session ID"
// @Success 200 {object} dto.CasherSessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/casher-sessions/{id} [get]
func (h *CasherSessionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListBySession godoc
// @Summary Lists all drawers of one shop session
// @Tags casher-sessions
// @Produce json
// @Security BearerAuth
// @Param session_id path string true "Session ID"
// @Success 200 {array} dto.CasherSessionResponse
// @Router /v1/cash-sessions/{session_id}/casher-sessions [get]
func (h *CasherSessionHandler) ListBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AvailableBalance godoc
// @Summary Returns the allocatable pool per currency (admin only)
// @Tags casher-sessions
// @Produce json
// @Security BearerAuth
// @Param session_id path string true "Session ID"
// @Success 200 {array} dto.BalanceResponse
// @Router /v1/cash-sessions/{session_id}/available [get]
func (h *CasherSessionHandler) AvailableBalance(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.AvailableBalance(c.Request.Context(), sessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

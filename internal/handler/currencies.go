package handler

import (
	"net/http"

	"github.com/kassemKu/sibai-transactions-sub000/internal/apierror"
	"github.com/kassemKu/sibai-transactions-sub000/internal/dto"
	"github.com/kassemKu/sibai-transactions-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CurrencyHandler struct{ svc service.RegistryService }

func NewCurrencyHandler(svc service.RegistryService) *CurrencyHandler {
	return &CurrencyHandler{svc: svc}
}

// Create godoc
// @Summary Registers a currency with its rate triple (admin only)
// @Tags currencies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateCurrencyRequest true "Currency data"
// @Success 201 {object} dto.CurrencyResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/currencies [post]
func (h *CurrencyHandler) Create(c *gin.Context) {
	var req dto.CreateCurrencyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Lists all currencies with current rates
// @Tags currencies
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.CurrencyResponse
// @Router /v1/currencies [get]
func (h *CurrencyHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateRates godoc
// @Summary Updates a currency's rate triple (admin only)
// @Tags currencies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Currency ID"
// @Param body body dto.UpdateRatesRequest true "New rates"
// @Success 200 {object} dto.CurrencyResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/currencies/{id}/rates [put]
func (h *CurrencyHandler) UpdateRates(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.UpdateRatesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateRates(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

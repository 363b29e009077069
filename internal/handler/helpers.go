package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/kassemKu/sibai-transactions-sub000/internal/apierror"
	"github.com/kassemKu/sibai-transactions-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeServiceError maps domain errors onto HTTP statuses. Lifecycle and
// balance violations are 409s so clients can distinguish a retryable conflict
// from a malformed request.
func writeServiceError(c *gin.Context, err error) {
	var poolErr *service.InsufficientPoolBalanceError
	var balErr *service.InsufficientBalanceError
	var rateErr *service.InvalidRateError

	switch {
	case errors.Is(err, service.ErrSessionAlreadyOpen),
		errors.Is(err, service.ErrSessionNotActive),
		errors.Is(err, service.ErrSessionPending),
		errors.Is(err, service.ErrSessionNotPending),
		errors.Is(err, service.ErrSessionClosed),
		errors.Is(err, service.ErrCasherSessionNotActive),
		errors.Is(err, service.ErrCasherSessionPending),
		errors.Is(err, service.ErrCasherSessionNotPending),
		errors.Is(err, service.ErrCasherSessionClosed),
		errors.Is(err, service.ErrDrawerAlreadyOpen),
		errors.Is(err, service.ErrDrawersStillOpen),
		errors.Is(err, service.ErrTransactionNotPending):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &poolErr), errors.As(err, &balErr):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNoOpenSession):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNotAssignedCasher):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrInvalidCurrencyPair),
		errors.Is(err, service.ErrInvalidMovement),
		errors.As(err, &rateErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}

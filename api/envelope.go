package api

import (
	"errors"
	"net/http"

	"github.com/example/eshop/pkg/orders"
	"github.com/example/eshop/pkg/repository"
	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response shape: every endpoint returns
// {data, status, error}, with error null on success and data null (or empty)
// on failure.
type Envelope struct {
	Data   interface{} `json:"data"`
	Status int         `json:"status"`
	Error  interface{} `json:"error"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{
		Data:   data,
		Status: status,
		Error:  nil,
	})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, Envelope{
		Data:   nil,
		Status: status,
		Error:  msg,
	})
}

// statusFor maps domain errors onto HTTP statuses per the error taxonomy:
// validation and malformed ids are 400, missing documents 404, ownership
// violations 403, anything else a storage-level 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrInvalidID),
		errors.Is(err, orders.ErrEmptyItems),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrProductNotFound):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func respondDomainError(c *gin.Context, err error) {
	respondError(c, statusFor(err), err.Error())
}

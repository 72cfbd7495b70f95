package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// bindJSON binds the request body into out and runs struct validation.
// On failure it writes the 400 envelope and returns false so the handler
// can short-circuit.
func (s *Server) bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(out); err != nil {
		respondError(c, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	ve, ok := err.(validatorv10.ValidationErrors)
	if !ok {
		return err.Error()
	}
	fields := make([]string, len(ve))
	for i, fe := range ve {
		fields[i] = fe.Field() + " failed " + fe.Tag()
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

// fieldsParam splits the optional ?fields= projection list.
func fieldsParam(c *gin.Context) []string {
	raw := c.Query("fields")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorCase binds a sentinel error to the HTTP status and message it maps to.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError walks the cases in order and writes the first match.
// Unmatched errors fall back to the provided default status and message.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, defaultStatus int, defaultMessage string) {
	for _, candidate := range cases {
		if candidate.Err != nil && errors.Is(err, candidate.Err) {
			c.JSON(candidate.Status, NewErrorResponse(c, candidate.Message))
			return
		}
	}

	if defaultStatus == 0 {
		defaultStatus = http.StatusInternalServerError
	}
	if defaultMessage == "" {
		defaultMessage = "internal server error"
	}

	c.JSON(defaultStatus, NewErrorResponse(c, defaultMessage))
}

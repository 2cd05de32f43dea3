package helpers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mwalcott/stagecrew/internal/faults"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: customMessage,
	})
}

// RespondWithFault maps a typed fault to its HTTP status. Untyped errors are
// treated as internal.
func RespondWithFault(c *gin.Context, err error) {
	switch faults.KindOf(err) {
	case faults.KindValidation:
		RespondWithError(c, http.StatusBadRequest, err.Error())
	case faults.KindState, faults.KindCapacity:
		RespondWithError(c, http.StatusConflict, err.Error())
	case faults.KindConsistency:
		RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	case faults.KindNotFound:
		RespondWithError(c, http.StatusNotFound, err.Error())
	case faults.KindForbidden:
		RespondWithError(c, http.StatusForbidden, err.Error())
	default:
		RespondWithError(c, http.StatusInternalServerError, "Something went wrong.")
	}
}

package gateway

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/veedubyou/stemsplit-be/src/server/api_error"
	"github.com/veedubyou/stemsplit-be/src/server/internal/errors/api"
	"github.com/veedubyou/stemsplit-be/src/server/internal/job/errors"
	"github.com/veedubyou/stemsplit-be/src/server/internal/source/errors"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:            http.StatusInternalServerError,
	joberrors.JobNotFoundCode:       http.StatusNotFound,
	joberrors.BadJobDataCode:        http.StatusBadRequest,
	joberrors.InvalidJobRequestCode: http.StatusBadRequest,
	joberrors.JobConflictCode:       http.StatusConflict,
	joberrors.JobNotCancellableCode: http.StatusConflict,
	joberrors.QueueUnavailableCode:  http.StatusInternalServerError,
	sourceerrors.SourceNotFoundCode: http.StatusNotFound,
	sourceerrors.BadSourceDataCode:  http.StatusBadRequest,
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	statusCode, ok := httpStatusCodeMap[err.ErrorCode]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", err.ErrorCode)
		panic(msg)
	}

	return c.JSON(statusCode, api_error.JSONAPIError{
		Code:         string(err.ErrorCode),
		Msg:          err.UserMessage,
		ErrorDetails: err.Error(),
	})
}

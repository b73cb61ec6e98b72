package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// JSend envelope statuses. "fail" is a client problem, "error" a server one.
const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope{Status: statusSuccess, Data: data})
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, envelope{Status: statusFail, Message: message, Code: code})
}

// failParam rejects one query or path parameter.
func failParam(c echo.Context, param, problem string) error {
	return c.JSON(http.StatusBadRequest, envelope{
		Status:  statusFail,
		Message: "Invalid request parameter",
		Code:    http.StatusBadRequest,
		Data:    map[string]map[string]string{"validation_errors": {param: problem}},
	})
}

func serverError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, envelope{
		Status:  statusError,
		Message: message,
		Code:    http.StatusInternalServerError,
	})
}

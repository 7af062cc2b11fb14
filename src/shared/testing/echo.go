package testing

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func PrepareEchoContext(request *http.Request, response http.ResponseWriter) echo.Context {
	e := echo.New()
	return e.NewContext(request, response)
}

// PrepareEchoContextWithParams fills in path params the router would normally extract.
func PrepareEchoContextWithParams(request *http.Request, response http.ResponseWriter, params map[string]string) echo.Context {
	c := PrepareEchoContext(request, response)

	names := []string{}
	values := []string{}
	for name, value := range params {
		names = append(names, name)
		values = append(values, value)
	}

	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

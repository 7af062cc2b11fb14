package sourcegateway

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/veedubyou/stemsplit-be/src/server/internal/errors/api"
	"github.com/veedubyou/stemsplit-be/src/server/internal/errors/gateway"
	"github.com/veedubyou/stemsplit-be/src/server/internal/lib/request"
	"github.com/veedubyou/stemsplit-be/src/server/internal/source/errors"
	"github.com/veedubyou/stemsplit-be/src/server/internal/source/usecase"
)

type Gateway struct {
	usecase sourceusecase.Usecase
}

func NewGateway(usecase sourceusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) ImportSource(c echo.Context) error {
	ctx := request.Context(c)

	importRequest := sourceusecase.ImportRequest{}
	err := c.Bind(&importRequest)
	if err != nil {
		err = errors.Wrap(err, "Failed to bind request body to import request")
		apiErr := api.CommitError(err,
			sourceerrors.BadSourceDataCode,
			"The import request received was malformed")
		return gateway.ErrorResponse(c, apiErr)
	}

	response, apiErr := g.usecase.ImportSource(ctx, importRequest)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusAccepted, response)
}

func (g Gateway) GetSource(c echo.Context, sourceID string) error {
	ctx := request.Context(c)

	sourceAudio, apiErr := g.usecase.GetSource(ctx, sourceID)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, sourceAudio)
}

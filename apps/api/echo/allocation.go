package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/allocation"
)

type allocationApi struct {
	svc *allocation.Service
}

func registerAllocationAPI(g *echo.Group, svc *allocation.Service) {
	api := allocationApi{svc: svc}

	ag := g.Group("/allocations")
	ag.POST("", api.generate)
	ag.PUT("", api.save)
	ag.GET("/latest", api.latest)
}

// generate previews a fresh allocation of the current roster; nothing is saved.
func (api *allocationApi) generate(ctx echo.Context) error {
	run, err := api.svc.Generate(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "generating allocation")
	}
	return ctx.JSON(http.StatusOK, run)
}

func (api *allocationApi) save(ctx echo.Context) error {
	var data allocation.Allocation
	if err := ctx.Echo().JSONSerializer.Deserialize(ctx, &data); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "allocation", Error: "invalid allocation document"})
	}

	res, err := api.svc.Save(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving allocation")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *allocationApi) latest(ctx echo.Context) error {
	run, err := api.svc.Latest(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading latest allocation")
	}
	return ctx.JSON(http.StatusOK, run)
}

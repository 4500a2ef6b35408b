package routes

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/qwex-trainer/pkg/qtrain"
)

type HealthOutput struct {
	Body struct {
		Status   string `json:"status" example:"ok" doc:"Health status"`
		RunState string `json:"run_state" example:"unconfigured" doc:"Whether a run is currently configured" enum:"unconfigured,configured"`
	}
}

func RegisterHealth(api huma.API, trainer *qtrain.Trainer) {
	huma.Register(api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the trainer service",
		Tags:        []string{TagGeneral.String()},
	}, func(ctx context.Context, input *struct{}) (*HealthOutput, error) {
		resp := &HealthOutput{}
		resp.Body.Status = "ok"
		resp.Body.RunState = string(trainer.State())
		return resp, nil
	})
}

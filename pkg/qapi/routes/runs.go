package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/qwex-trainer/pkg/qapi/schemas"
	"github.com/quatton/qwex-trainer/pkg/qerr"
	"github.com/quatton/qwex-trainer/pkg/qtrain"
)

// ConfigureRunInput defines the input for configuring a run. A missing body
// configures from the default reference with no overrides.
type ConfigureRunInput struct {
	Body *schemas.ConfigureRunRequest
}

// ConfigureRunOutput is the response for configuring a run
type ConfigureRunOutput struct {
	Body schemas.RunDescriptorResponse
}

// ExecuteRunOutput is the response for executing the configured run
type ExecuteRunOutput struct {
	Body schemas.ExecutionResponse
}

// GetRunOutput is the response for reading the configured run
type GetRunOutput struct {
	Body schemas.RunDescriptorResponse
}

// RegisterRuns registers the configure/execute routes
func RegisterRuns(api huma.API, trainer *qtrain.Trainer) {
	huma.Register(api, huma.Operation{
		OperationID: "configure-run",
		Method:      http.MethodPost,
		Path:        "/api/run/configure",
		Summary:     "Configure the pending run",
		Description: "Loads defaults from the configuration reference, applies non-empty overrides and replaces the pending run",
		Tags:        []string{TagRuns.String()},
	}, func(ctx context.Context, input *ConfigureRunInput) (*ConfigureRunOutput, error) {
		var req schemas.ConfigureRunRequest
		if input.Body != nil {
			req = *input.Body
		}
		d, err := trainer.Configure(ctx, req.ConfigPath, toOverrides(req))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ConfigureRunOutput{Body: toDescriptorResponse(d, trainer.State())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "execute-run",
		Method:      http.MethodPost,
		Path:        "/api/run/execute",
		Summary:     "Execute the pending run",
		Description: "Executes the most recently configured run. Fails with 409 when nothing has been configured",
		Tags:        []string{TagRuns.String()},
	}, func(ctx context.Context, input *struct{}) (*ExecuteRunOutput, error) {
		res, err := trainer.Execute(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ExecuteRunOutput{Body: toExecutionResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-run",
		Method:      http.MethodGet,
		Path:        "/api/run",
		Summary:     "Get the pending run",
		Description: "Returns the currently configured run",
		Tags:        []string{TagRuns.String()},
	}, func(ctx context.Context, input *struct{}) (*GetRunOutput, error) {
		d, err := trainer.Current()
		if err != nil {
			if qerr.IsCode(err, qerr.CodeUnconfigured) {
				return nil, huma.Error404NotFound(err.Error())
			}
			return nil, toHumaError(err)
		}
		return &GetRunOutput{Body: toDescriptorResponse(d, trainer.State())}, nil
	})
}

// toHumaError maps a trainer error onto an HTTP status error
func toHumaError(err error) error {
	switch qerr.CodeOf(err) {
	case qerr.CodeUnconfigured:
		return huma.Error409Conflict(err.Error())
	case qerr.CodeInvalidArgument:
		return huma.Error400BadRequest(err.Error())
	case qerr.CodeNotFound:
		return huma.Error404NotFound(err.Error())
	case qerr.CodeInvalidConfig:
		return huma.Error422UnprocessableEntity(err.Error())
	}
	return huma.Error500InternalServerError(fmt.Sprintf("trainer failure: %v", err))
}

func toOverrides(req schemas.ConfigureRunRequest) qtrain.Overrides {
	return qtrain.Overrides{
		string(qtrain.FieldTotalRound): req.TotalRound,
		string(qtrain.FieldStartRound): req.StartRound,
		string(qtrain.FieldDataSize):   req.DataSize,
		string(qtrain.FieldMode):       req.Mode,
	}
}

func toRunArguments(a qtrain.ArgumentSet) schemas.RunArguments {
	return schemas.RunArguments{
		TotalRound: a.TotalRound,
		StartRound: a.StartRound,
		DataSize:   a.DataSize,
		Mode:       a.Mode,
	}
}

func toDescriptorResponse(d qtrain.RunDescriptor, state qtrain.State) schemas.RunDescriptorResponse {
	return schemas.RunDescriptorResponse{
		ID:           d.ID,
		ConfigPath:   d.ConfigRef,
		Arguments:    toRunArguments(d.Arguments),
		ConfiguredAt: d.ConfiguredAt.Format(time.RFC3339),
		State:        string(state),
	}
}

func toExecutionResponse(res qtrain.ExecutionResult) schemas.ExecutionResponse {
	return schemas.ExecutionResponse{
		DescriptorID: res.DescriptorID,
		ConfigPath:   res.ConfigRef,
		Arguments:    toRunArguments(res.Arguments),
		Status:       string(res.Status),
		StartedAt:    res.StartedAt.Format(time.RFC3339),
		FinishedAt:   res.FinishedAt.Format(time.RFC3339),
		ExitCode:     res.ExitCode,
		RunDir:       res.RunDir,
	}
}

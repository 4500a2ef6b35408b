package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/quatton/qwex-trainer/pkg/qapi/schemas"
	"github.com/quatton/qwex-trainer/pkg/qlog"
	"github.com/quatton/qwex-trainer/pkg/qtrain"
)

const (
	FormPath         = "/demo1/"
	formConfigKey    = "config_path"
	formExecuteKey   = "execute_model"
	maxFormBodyBytes = 1 << 20
)

// RegisterForm mounts the form-submission endpoint used by the HTML front end.
// A submission carrying config_path configures a run from the recognized
// fields; one carrying execute_model executes the configured run. When both
// are present the run is configured first and then executed.
func RegisterForm(router chi.Router, trainer *qtrain.Trainer, log *qlog.Logger) {
	router.Post(FormPath, func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeError(w, huma.Error400BadRequest("invalid form body", err))
			return
		}

		_, configure := r.PostForm[formConfigKey]
		_, execute := r.PostForm[formExecuteKey]
		log.Debug("handling form submission", "configure", configure, "execute", execute)

		resp := schemas.FormSubmissionResponse{Message: "no action requested"}

		if configure {
			d, err := trainer.Configure(r.Context(), r.PostForm.Get(formConfigKey), qtrain.OverridesFromValues(r.PostForm))
			if err != nil {
				writeError(w, toHumaError(err))
				return
			}
			configured := toDescriptorResponse(d, qtrain.StateConfigured)
			resp.Configured = &configured
			resp.Message = "run configured"
		}

		if execute {
			res, err := trainer.Execute(r.Context())
			if err != nil {
				writeError(w, toHumaError(err))
				return
			}
			execution := toExecutionResponse(res)
			resp.Execution = &execution
			if configure {
				resp.Message = "run configured and executed"
			} else {
				resp.Message = "run executed"
			}
		}

		writeJSON(w, http.StatusOK, "application/json", resp)
	})
}

func writeError(w http.ResponseWriter, err error) {
	var se huma.StatusError
	if !errors.As(err, &se) {
		se = huma.Error500InternalServerError(err.Error())
	}
	writeJSON(w, se.GetStatus(), "application/problem+json", se)
}

func writeJSON(w http.ResponseWriter, status int, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

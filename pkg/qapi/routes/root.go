package routes

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/quatton/qwex-trainer/pkg/qapi/services"
)

// RegisterAPI registers every operation. A nil svcs registers against an
// empty container, which is enough to generate the OpenAPI document.
func RegisterAPI(api huma.API, router chi.Router, svcs *services.Services) {
	if svcs == nil {
		svcs = services.EmptyServices()
	}
	doc := api.OpenAPI()
	doc.Tags = append(doc.Tags, AllTags()...)

	RegisterIndex(api)
	RegisterHealth(api, svcs.Trainer)
	RegisterRuns(api, svcs.Trainer)
	RegisterForm(router, svcs.Trainer, svcs.Log)
}

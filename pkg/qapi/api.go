package qapi

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	Title   = "qwex Trainer"
	Version = "1.0.0"
)

type Api struct {
	Api    huma.API
	Router *chi.Mux
}

func NewApi() *Api {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	config := huma.DefaultConfig(Title, Version)
	config.Info.Description = "Configure a training run from a config reference plus overrides, then execute it."

	api := humachi.New(router, config)

	return &Api{Api: api, Router: router}
}

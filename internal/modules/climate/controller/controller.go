package controller

import (
	"net/http"

	"climate-server/internal/modules/climate/service"
)

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	service *service.Service
}

func NewClimateController(service *service.Service) ClimateController {
	return &climateControllerImpl{service: service}
}

func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleIndex)
	mux.HandleFunc("GET "+service.APIPrefix+"/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET "+service.APIPrefix+"/stations", c.handleStations)
	mux.HandleFunc("GET "+service.APIPrefix+"/tobs", c.handleTobs)
	mux.HandleFunc("GET "+service.APIPrefix+"/{start}", c.handleStats)
	mux.HandleFunc("GET "+service.APIPrefix+"/{start}/{end}", c.handleStats)
}

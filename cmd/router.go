package main

import (
	"net/http"

	"github.com/angeloszaimis/circuitguard/internal/handler"
	"github.com/angeloszaimis/circuitguard/internal/metrics"
)

func setupRouter(opsHandler *handler.OpsHandler, collector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /breakers", opsHandler.ListBreakers)
	mux.HandleFunc("GET /breakers/{name}", opsHandler.GetBreaker)
	mux.HandleFunc("POST /breakers/reset", opsHandler.ResetAll)
	mux.HandleFunc("POST /breakers/{name}/reset", opsHandler.ResetBreaker)
	mux.HandleFunc("POST /breakers/{name}/trip", opsHandler.TripBreaker)
	mux.Handle("GET /metrics", collector.Handler())

	return mux
}

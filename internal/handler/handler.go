package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/angeloszaimis/circuitguard/pkg/circuitbreaker"
)

// OpsHandler serves the operational surface of the breaker registry:
// stats snapshots and manual trip/reset controls.
type OpsHandler struct {
	logger   *slog.Logger
	breakers *circuitbreaker.Registry
}

func NewOpsHandler(logger *slog.Logger, breakers *circuitbreaker.Registry) *OpsHandler {
	return &OpsHandler{
		logger:   logger,
		breakers: breakers,
	}
}

// ListBreakers writes a JSON snapshot of every registered breaker.
func (h *OpsHandler) ListBreakers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(h.breakers.AllStats()); err != nil {
		h.logger.Error("Failed to encode breaker stats", slog.Any("err", err))
	}
}

// GetBreaker writes the stats snapshot of a single breaker.
func (h *OpsHandler) GetBreaker(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !h.breakers.Has(name) {
		http.Error(w, "unknown breaker", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	stats := h.breakers.Get(name).Stats()
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.logger.Error("Failed to encode breaker stats",
			slog.String("breaker", name),
			slog.Any("err", err))
	}
}

// ResetAll closes every registered breaker.
func (h *OpsHandler) ResetAll(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Resetting all breakers",
		slog.String("from", extractClientIP(r)))

	h.breakers.ResetAll()
	w.WriteHeader(http.StatusNoContent)
}

// ResetBreaker closes a single breaker.
func (h *OpsHandler) ResetBreaker(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !h.breakers.Has(name) {
		http.Error(w, "unknown breaker", http.StatusNotFound)
		return
	}

	h.logger.Info("Resetting breaker",
		slog.String("breaker", name),
		slog.String("from", extractClientIP(r)))

	h.breakers.Get(name).Reset()
	w.WriteHeader(http.StatusNoContent)
}

// TripBreaker forces a single breaker open.
func (h *OpsHandler) TripBreaker(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !h.breakers.Has(name) {
		http.Error(w, "unknown breaker", http.StatusNotFound)
		return
	}

	h.logger.Info("Tripping breaker",
		slog.String("breaker", name),
		slog.String("from", extractClientIP(r)))

	h.breakers.Get(name).Trip()
	w.WriteHeader(http.StatusNoContent)
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}

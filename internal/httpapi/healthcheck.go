package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"climate-server/internal/utils"
)

const healthCheckTimeout = 2 * time.Second

type healthStatus struct {
	Status string `json:"status"`
}

// healthCheck reports whether the dataset connection still answers. In memory
// mode requests never touch it, but an unreachable file is still worth
// surfacing to orchestrators.
type healthCheck struct {
	db      *sql.DB
	timeout time.Duration
}

func (h healthCheck) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var one int
	if err := h.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		slog.Warn("dataset unreachable", "error", err, "timeout", h.timeout)
		utils.WriteError(w, http.StatusServiceUnavailable, "dataset unreachable")
		return
	}
	utils.WriteJSON(w, http.StatusOK, healthStatus{Status: "ok"})
}

package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux returns a mux carrying the operational routes. Feature modules add
// their own routes to it.
func NewMux(db *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /healthz", healthCheck{db: db, timeout: healthCheckTimeout})
	return mux
}

package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux returns a mux with the operational routes mounted. metrics may be
// nil, in which case /metrics is not served.
func NewMux(db *sql.DB, status DatasetStatusFunc, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, status)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}

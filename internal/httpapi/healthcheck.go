package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/types"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/utils"
)

// DatasetStatusFunc reports where the one-shot dataset load stands.
type DatasetStatusFunc func() types.DatasetStatus

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db     *sql.DB
	status DatasetStatusFunc
}

func NewHealthchecker(db *sql.DB, status DatasetStatusFunc) healthchecker {
	return &healthcheckerImpl{db: db, status: status}
}

// handleHealthz reports 200 whenever the database answers. A pending or
// failed dataset is surfaced in the body but does not fail the check.
func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var ok int
	if err := h.db.QueryRowContext(r.Context(), `SELECT 1`).Scan(&ok); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}

	body := map[string]string{"status": "ok"}
	if h.status != nil {
		body["dataset"] = string(h.status())
	}
	utils.WriteJSON(w, http.StatusOK, body)
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB, status DatasetStatusFunc) {
	healthchecker := NewHealthchecker(db, status)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}

package shared

import (
	"encoding/json"
	"net/http"
	"strconv"

	"mutapa-lotto/database"
	"mutapa-lotto/logger"
	schedulerConfig "mutapa-lotto/scheduler/config"
	"mutapa-lotto/scheduler/draws"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// InitAdminServer starts the internal trigger server. It is an
// operations surface: it must only be reachable from the internal
// network, never publicly.
func InitAdminServer(cfg *schedulerConfig.AdminConfig, scheduler *draws.Scheduler) {
	if len(cfg.Address) == 0 {
		return
	}

	srv := &http.Server{
		Addr:    cfg.Address,
		Handler: NewAdminRouter(scheduler),
	}
	go srv.ListenAndServe()
}

func NewAdminRouter(scheduler *draws.Scheduler) http.Handler {
	handler := adminHandler{scheduler: scheduler}

	r := mux.NewRouter()
	r.HandleFunc("/admin/execute-draw/{type}", handler.executeDraw).Methods(http.MethodPost)
	r.HandleFunc("/admin/halt-draw/{id}", handler.haltDraw).Methods(http.MethodPost)
	r.HandleFunc("/admin/emergency-stop", handler.emergencyStop).Methods(http.MethodPost)
	r.HandleFunc("/admin/purchase-gate", handler.purchaseGate).Methods(http.MethodGet)
	r.HandleFunc("/admin/draw-state", handler.drawState).Methods(http.MethodGet)
	return r
}

type adminHandler struct {
	scheduler *draws.Scheduler
}

func (h adminHandler) executeDraw(w http.ResponseWriter, r *http.Request) {
	drawType := database.DrawType(mux.Vars(r)["type"])
	if drawType != database.DrawTypeDaily && drawType != database.DrawTypeWeekly {
		writeJSONError(w, http.StatusBadRequest, "unknown draw type")
		return
	}

	draw, err := h.scheduler.ForceExecuteDraw(drawType)
	if errors.Is(err, draws.ErrDrawInProgress) {
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		logger.Error("Forced %s draw failed: %v", drawType, err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, draw)
}

func (h adminHandler) haltDraw(w http.ResponseWriter, r *http.Request) {
	drawID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid draw id")
		return
	}

	err = h.scheduler.HaltDraw(drawID)
	if errors.Is(err, draws.ErrDrawNotFound) {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"halted": drawID})
}

func (h adminHandler) emergencyStop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"aborted": h.scheduler.EmergencyStop()})
}

func (h adminHandler) purchaseGate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduler.PurchaseGate())
}

func (h adminHandler) drawState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduler.State())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Error encoding admin response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

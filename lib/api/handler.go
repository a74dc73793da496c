// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzhttp"

	"github.com/bureau-foundation/node-proxy/lib/codec"
	"github.com/bureau-foundation/node-proxy/lib/metrics"
	"github.com/bureau-foundation/node-proxy/lib/netutil"
	"github.com/bureau-foundation/node-proxy/lib/redfish"
	"github.com/bureau-foundation/node-proxy/lib/secret"
	"github.com/bureau-foundation/node-proxy/lib/system"
)

// Backend supplies the current System and daemon health. The System
// changes when the supervisor reinitializes it, so handlers ask for it
// on every request.
type Backend interface {
	System() system.System
	Health() Health
}

// Health is the /health body.
type Health struct {
	Healthy     bool                    `json:"healthy"`
	SystemState string                  `json:"system_state"`
	Flushed     bool                    `json:"flushed"`
	Workers     map[string]WorkerStatus `json:"workers"`
}

// WorkerStatus describes one supervised worker.
type WorkerStatus struct {
	Running   bool   `json:"running"`
	Restarts  int    `json:"restarts"`
	LastError string `json:"last_error,omitempty"`
}

// Config configures the handler.
type Config struct {
	Backend Backend

	// Name and Secret are the basic-auth credentials.
	Name   string
	Secret *secret.Buffer

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type handler struct {
	backend Backend
	name    string
	secret  *secret.Buffer
	logger  *slog.Logger
}

// compressMinSize is the smallest response body worth compressing.
const compressMinSize = 256

// NewHandler returns the command API's routes.
func NewHandler(config Config) (http.Handler, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	h := &handler{
		backend: config.Backend,
		name:    config.Name,
		secret:  config.Secret,
		logger:  config.Logger,
	}

	mux := http.NewServeMux()
	mux.Handle("GET /data", h.authenticated(h.data))
	mux.Handle("POST /flush", h.authenticated(h.flush))
	mux.Handle("GET /led/chassis", h.authenticated(h.getChassisLED))
	mux.Handle("PATCH /led/chassis", h.authenticated(h.setChassisLED))
	mux.Handle("GET /led/drive/{id}", h.authenticated(h.getDriveLED))
	mux.Handle("PATCH /led/drive/{id}", h.authenticated(h.setDriveLED))
	mux.Handle("POST /shutdown", h.authenticated(h.shutdown))
	mux.Handle("POST /powercycle", h.authenticated(h.powercycle))
	mux.Handle("POST /reboot-jobs", h.authenticated(h.createRebootJob))
	mux.Handle("POST /reboot-jobs/{id}/schedule", h.authenticated(h.scheduleRebootJob))
	mux.HandleFunc("GET /health", h.health)
	mux.Handle("GET /metrics", config.Metrics.Handler())

	compress, err := gzhttp.NewWrapper(gzhttp.MinSize(compressMinSize))
	if err != nil {
		return nil, fmt.Errorf("api: building compression wrapper: %w", err)
	}
	return compress(mux), nil
}

func (h *handler) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, password, ok := r.BasicAuth()
		if !ok || !h.credentialsMatch(name, password) {
			h.logger.Warn("rejected unauthenticated command request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Basic realm="node-proxy"`)
			writeError(w, http.StatusUnauthorized, errors.New("authentication required"))
			return
		}
		next(w, r)
	})
}

func (h *handler) credentialsMatch(name, password string) bool {
	if h.secret == nil {
		return false
	}
	nameOK := subtle.ConstantTimeCompare([]byte(name), []byte(h.name))
	secretOK := subtle.ConstantTimeCompare([]byte(password), h.secret.Bytes())
	return nameOK&secretOK == 1
}

func (h *handler) data(w http.ResponseWriter, r *http.Request) {
	s := h.backend.System()
	s.Lock()
	ready := s.ReadyLocked()
	snapshot := s.AssembleLocked()
	s.Unlock()

	if !ready {
		writeError(w, http.StatusServiceUnavailable, errors.New("no data collected yet"))
		return
	}
	if strings.Contains(r.Header.Get("Accept"), codec.ContentType) {
		encoded, err := codec.Marshal(snapshot)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", codec.ContentType)
		w.Write(encoded)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *handler) flush(w http.ResponseWriter, r *http.Request) {
	h.backend.System().Flush()
	writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

func (h *handler) getChassisLED(w http.ResponseWriter, r *http.Request) {
	state, err := h.backend.System().GetChassisLED(r.Context())
	if err != nil {
		h.capabilityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *handler) setChassisLED(w http.ResponseWriter, r *http.Request) {
	on, err := decodeLEDState(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s := h.backend.System()
	var status int
	if on {
		status, err = s.ChassisLEDOn(r.Context())
	} else {
		status, err = s.ChassisLEDOff(r.Context())
	}
	if err != nil {
		h.capabilityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"http_code": status})
}

func (h *handler) getDriveLED(w http.ResponseWriter, r *http.Request) {
	state, err := h.backend.System().GetDeviceLED(r.Context(), r.PathValue("id"))
	if err != nil {
		h.capabilityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *handler) setDriveLED(w http.ResponseWriter, r *http.Request) {
	on, err := decodeLEDState(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status, err := h.backend.System().SetDeviceLED(r.Context(), r.PathValue("id"), on)
	if err != nil {
		h.capabilityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"http_code": status})
}

func (h *handler) shutdown(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Force bool `json:"force"`
	}
	if err := decodeOptional(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.logger.Info("host shutdown requested", "force", request.Force)
	status, err := h.backend.System().Shutdown(r.Context(), request.Force)
	if err != nil {
		h.capabilityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"http_code": status})
}

func (h *handler) powercycle(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("host power cycle requested")
	status, err := h.backend.System().PowerCycle(r.Context())
	if err != nil {
		h.capabilityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"http_code": status})
}

// rebootTypes are the job types createRebootJob accepts.
var rebootTypes = []string{system.RebootGraceful, system.RebootForced, system.RebootCycle}

func (h *handler) createRebootJob(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Type string `json:"type"`
	}
	if err := decodeOptional(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !slices.Contains(rebootTypes, request.Type) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("type must be one of %v, got %q", rebootTypes, request.Type))
		return
	}
	h.logger.Info("reboot job requested", "type", request.Type)
	jobID, err := h.backend.System().CreateRebootJob(r.Context(), request.Type)
	if err != nil {
		h.capabilityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"job_id": jobID})
}

func (h *handler) scheduleRebootJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	h.logger.Info("reboot job scheduling requested", "job", jobID)
	status, err := h.backend.System().ScheduleRebootJob(r.Context(), jobID)
	if err != nil {
		h.capabilityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"http_code": status})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	health := h.backend.Health()
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func (h *handler) capabilityError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, system.ErrUnsupported):
		status = http.StatusNotImplemented
	case errors.Is(err, system.ErrUnknownDevice):
		status = http.StatusNotFound
	case errors.Is(err, redfish.ErrShuttingDown):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusBadGateway {
		h.logger.Error("capability request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err)
}

// decodeLEDState reads {"state": "on"|"off"}.
func decodeLEDState(r *http.Request) (bool, error) {
	var request struct {
		State string `json:"state"`
	}
	if err := decodeOptional(r, &request); err != nil {
		return false, err
	}
	switch strings.ToLower(request.State) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf(`state must be "on" or "off", got %q`, request.State)
}

// decodeOptional decodes a JSON body into v; an empty body leaves v
// unchanged.
func decodeOptional(r *http.Request, v any) error {
	body, err := netutil.ReadBody(r.Body)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

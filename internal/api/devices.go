package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/keyline-core/internal/device"
)

// deviceResponse is the list representation of a device, identity plus
// whatever snapshot exists.
type deviceResponse struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	HouseID string        `json:"house_id"`
	Kind    device.Kind   `json:"kind"`
	Detail  device.Detail `json:"detail,omitempty"`
}

// handleListDevices returns every registered device with its latest snapshot.
//
// Query parameters:
//   - kind: filter to "lock" or "doorbell"
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")

	var devices []device.Device
	switch kind {
	case "":
		devices = append(s.registry.Locks(), s.registry.Doorbells()...)
	case string(device.KindLock):
		devices = s.registry.Locks()
	case string(device.KindDoorbell):
		devices = s.registry.Doorbells()
	default:
		writeBadRequest(w, "unknown kind: "+kind)
		return
	}

	resp := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		entry := deviceResponse{
			ID:      d.ID,
			Name:    d.Name,
			HouseID: d.HouseID,
			Kind:    d.Kind,
		}
		if detail, err := s.registry.Detail(d.ID); err == nil {
			entry.Detail = detail
		}
		resp = append(resp, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": resp,
		"count":   len(resp),
	})
}

// handleGetDevice returns one device's identity and snapshot.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, ok := s.registry.Device(id)
	if !ok {
		// Keypads have no top-level identity but do have snapshots.
		detail, err := s.registry.Detail(id)
		if err != nil {
			writeNotFound(w, "unknown device")
			return
		}
		writeJSON(w, http.StatusOK, deviceResponse{
			ID:      detail.DeviceID(),
			Name:    detail.DeviceName(),
			HouseID: detail.HouseID(),
			Kind:    device.KindKeypad,
			Detail:  detail,
		})
		return
	}

	entry := deviceResponse{
		ID:      d.ID,
		Name:    d.Name,
		HouseID: d.HouseID,
		Kind:    d.Kind,
	}
	if detail, err := s.registry.Detail(id); err == nil {
		entry.Detail = detail
	}

	writeJSON(w, http.StatusOK, entry)
}

// handleDeviceActivities returns recent activity history for a device.
//
// Query parameters:
//   - limit: maximum entries (default 50)
func (s *Server) handleDeviceActivities(w http.ResponseWriter, r *http.Request) {
	if s.activities == nil {
		writeNotFound(w, "activity history is not enabled")
		return
	}

	id := chi.URLParam(r, "id")
	if _, ok := s.registry.Device(id); !ok {
		writeNotFound(w, "unknown device")
		return
	}

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	activities, err := s.activities.RecentByDevice(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("activity query failed", "device_id", id, "error", err)
		writeInternalError(w, "activity query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"activities": activities,
		"count":      len(activities),
	})
}

// handleRefreshDevice forces an immediate detail refresh.
func (s *Server) handleRefreshDevice(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeInternalError(w, "sync engine is not running")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.refresher.RefreshOne(r.Context(), id); err != nil {
		writeOperationError(w, err)
		return
	}

	detail, err := s.registry.Detail(id)
	if err != nil {
		writeInternalError(w, "refresh succeeded but snapshot is missing")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// commandRequest selects between the confirmed and fire-and-forget paths.
type commandRequest struct {
	// Async fires the command without waiting for the outcome; confirmation
	// arrives over the push channel. Defaults to false: block until the
	// backend confirms.
	Async bool `json:"async"`
}

// handleLock issues a lock command.
func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	s.handleCommand(w, r, "lock")
}

// handleUnlock issues an unlock command.
func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	s.handleCommand(w, r, "unlock")
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request, op string) {
	if s.dispatcher == nil {
		writeInternalError(w, "sync engine is not running")
		return
	}

	id := chi.URLParam(r, "id")

	var req commandRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
	}

	var err error
	switch {
	case op == "lock" && req.Async:
		err = s.dispatcher.LockAsync(r.Context(), id)
	case op == "lock":
		err = s.dispatcher.Lock(r.Context(), id)
	case req.Async:
		err = s.dispatcher.UnlockAsync(r.Context(), id)
	default:
		err = s.dispatcher.Unlock(r.Context(), id)
	}
	if err != nil {
		writeOperationError(w, err)
		return
	}

	status := http.StatusOK
	if req.Async {
		status = http.StatusAccepted
	}

	resp := map[string]any{"device_id": id, "operation": op, "async": req.Async}
	if detail, derr := s.registry.Detail(id); derr == nil && !req.Async {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}

// handleStatusWake asks a lock to report fresh status over the push channel.
func (s *Server) handleStatusWake(w http.ResponseWriter, r *http.Request) {
	if s.dispatcher == nil {
		writeInternalError(w, "sync engine is not running")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.dispatcher.StatusAsync(r.Context(), id); err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"device_id": id, "operation": "status"})
}

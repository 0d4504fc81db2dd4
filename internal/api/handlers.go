package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"cell-arena/internal/game"
	"cell-arena/internal/input"
	"cell-arena/internal/render"
)

// maxBodyBytes bounds request bodies; every accepted payload is tiny
const maxBodyBytes = 4 << 10

// maxFrameScale bounds ?scale on frame.png
const maxFrameScale = 2.0

func (h *routerHandlers) handleStartRound(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	info, err := h.engine.StartRound(req.Role, req.Mode)
	if err != nil {
		writeError(w, err.Error(), statusForError(err))
		return
	}

	writeJSONStatus(w, http.StatusCreated, info)
}

func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	var msg input.Message
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&msg); err != nil {
		RecordInputRejected("invalid")
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	cmd, err := msg.Command()
	if err != nil {
		RecordInputRejected("invalid")
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.engine.Submit(cmd); err != nil {
		RecordInputRejected(inputRejectReason(err))
		writeError(w, err.Error(), statusForError(err))
		return
	}

	writeJSONStatus(w, http.StatusAccepted, map[string]string{"queued": cmd.Type.String()})
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	if snap == nil {
		writeError(w, game.ErrNoRound.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func (h *routerHandlers) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.engine.LastSummary()
	if !ok {
		writeError(w, "No round has ended yet", http.StatusNotFound)
		return
	}
	writeJSON(w, summary)
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	if snap == nil {
		writeError(w, game.ErrNoRound.Error(), http.StatusNotFound)
		return
	}

	scale := 1.0
	if s := r.URL.Query().Get("scale"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 || v > maxFrameScale {
			writeError(w, "scale must be in (0, 2]", http.StatusBadRequest)
			return
		}
		scale = v
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := render.PNG(&buf, snap, render.Options{Scale: scale}); err != nil {
		log.Printf("⚠️ Frame render failed: %v", err)
		writeError(w, "Render failed", http.StatusInternalServerError)
		return
	}
	RecordRender(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handleGetRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, game.AllRoles())
}

func (h *routerHandlers) handleGetModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, game.AllModes())
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(v, h.maxLeaderboard)
	}
	writeJSON(w, h.board.GetTop(limit))
}

// statusForError maps engine and selection errors to HTTP codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, game.ErrMissingRole),
		errors.Is(err, game.ErrMissingMode),
		errors.Is(err, game.ErrUnknownRole),
		errors.Is(err, game.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNoRound):
		return http.StatusConflict
	case errors.Is(err, game.ErrInboxFull):
		return http.StatusTooManyRequests
	case errors.Is(err, game.ErrEngineStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func inputRejectReason(err error) string {
	switch {
	case errors.Is(err, game.ErrInboxFull):
		return "queue_full"
	case errors.Is(err, game.ErrNoRound):
		return "no_round"
	default:
		return "invalid"
	}
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSONStatus(w, code, map[string]string{"error": message})
}

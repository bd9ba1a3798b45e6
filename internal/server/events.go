package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cryo_booking_bot/internal/notify"
	"cryo_booking_bot/pkg/logger"
)

const eventsKeepAlive = 25 * time.Second

// handleEvents отдает события перерисовки как Server-Sent Events.
// Параметр client оставляет только события этого клиента и общие.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var clientID int64
	if raw := r.URL.Query().Get("client"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody(errInvalidBody))
			return
		}
		clientID = id
	}

	rc := http.NewResponseController(w)
	// поток живет дольше WriteTimeout сервера
	_ = rc.SetWriteDeadline(time.Time{})

	events, cancel := s.hub.Subscribe(16)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.log.Warn("Event stream is not flushable", logger.Error(err))
		return
	}

	ticker := time.NewTicker(eventsKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !visibleTo(ev, clientID) {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.log.Error("Failed to encode event", logger.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: render\ndata: %s\n\n", data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func visibleTo(ev notify.Event, clientID int64) bool {
	return clientID == 0 || ev.ClientID == 0 || ev.ClientID == clientID
}

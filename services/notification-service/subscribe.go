package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/logger"
	"cybercrime-portal/pkg/middleware"
	"cybercrime-portal/pkg/response"
)

// SettingsSource looks up a user's delivery preferences. *directory.Store
// satisfies it.
type SettingsSource interface {
	NotificationSettings(ctx context.Context, userID string) (catalog.NotificationSettings, error)
}

// subscribeHandler streams notifications to one authenticated client over
// server-sent events. EventSource cannot set headers, so the token may also
// come from the query string.
type subscribeHandler struct {
	hub       *Hub
	settings  SettingsSource
	heartbeat time.Duration
	log       *logger.Logger
}

func bearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func (s *subscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		response.Error(w, http.StatusUnauthorized, "Missing token", "")
		return
	}
	claims, err := middleware.ParseToken(token)
	if err != nil {
		s.log.WithTraceID(middleware.GetTraceID(r)).WithError(err).Warn("Rejected subscription token")
		response.Error(w, http.StatusUnauthorized, "Invalid or expired token", "")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "Streaming unsupported", "")
		return
	}

	settings := catalog.DefaultNotificationSettings()
	if s.settings != nil {
		stored, err := s.settings.NotificationSettings(r.Context(), claims.UserID)
		if err != nil {
			s.log.WithError(err).WithField("user_id", claims.UserID).Warn("Using default notification settings")
		} else {
			settings = stored
		}
	}

	client := NewClient(claims.UserID, claims.Role, settings)
	if !s.hub.Subscribe(r.Context(), client) {
		response.Error(w, http.StatusServiceUnavailable, "Notification hub is shutting down", "")
		return
	}
	defer s.hub.Unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", `{"type":"connected","message":"Connection established"}`)
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case n, ok := <-client.Send:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				s.log.WithError(err).Error("Failed to encode notification")
				continue
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

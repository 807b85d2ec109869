package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dperea/storefront-backend/api/middleware"
	"github.com/dperea/storefront-backend/api/responses"
	pkgerrors "github.com/dperea/storefront-backend/pkg/errors"
	"github.com/dperea/storefront-backend/internal/notifications"
	"github.com/dperea/storefront-backend/pkg/logger"
)

// StreamOrderEvents streams order lifecycle events to the caller over SSE.
// Privileged roles see every order; everyone else only sees their own.
func StreamOrderEvents(hub *notifications.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming is not supported"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		role := middleware.RoleFromContext(ctx)

		sub := hub.Subscribe(userID, role)
		defer hub.Unsubscribe(sub)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ctx = logg.WithFields(ctx, map[string]any{
			"user_id": userID.String(),
			"role":    string(role),
		})
		logg.Info(ctx, "events.stream.open")

		for {
			select {
			case <-ctx.Done():
				logg.Info(ctx, "events.stream.closed")
				return
			case event, open := <-sub.Events():
				if !open {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					logg.Error(ctx, "events.stream.encode_failed", err)
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, payload)
				flusher.Flush()
			}
		}
	}
}

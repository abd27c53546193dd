package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dopeevents/dopeevents-backend/internal/analytics"
	"github.com/dopeevents/dopeevents-backend/pkg/enums"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
)

const sessionKeyHeader = "X-Session-Key"

// skipTrackingPrefixes lists paths that would drown the visit table in noise.
var skipTrackingPrefixes = []string{
	"/health",
	"/metrics",
	"/api/v1/webhooks",
	"/api/v1/analytics",
}

type visitRecorder interface {
	Record(ctx context.Context, input analytics.VisitInput) error
}

// VisitorTracking records one visit row per tracked request. Recording is
// best-effort: failures are logged and the request proceeds.
func VisitorTracking(svc visitRecorder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if svc == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if r.Method != http.MethodGet || skipTracking(path) {
				next.ServeHTTP(w, r)
				return
			}

			sessionKey := strings.TrimSpace(r.Header.Get(sessionKeyHeader))
			if sessionKey == "" {
				sessionKey = uuid.NewString()
				w.Header().Set(sessionKeyHeader, sessionKey)
			}

			input := analytics.VisitInput{
				SessionKey: sessionKey,
				Path:       path,
				Type:       classifyVisit(path),
				IPAddress:  clientIP(r),
				UserAgent:  r.UserAgent(),
				Referrer:   r.Referer(),
			}
			if eventID := eventIDFromPath(path); eventID != nil {
				input.EventID = eventID
			}

			if err := svc.Record(r.Context(), input); err != nil && logg != nil {
				logg.Warn(logg.WithField(r.Context(), "path", path), "visit tracking failed")
			}

			next.ServeHTTP(w, r)
		})
	}
}

func skipTracking(path string) bool {
	for _, prefix := range skipTrackingPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func classifyVisit(path string) enums.VisitType {
	switch {
	case eventIDFromPath(path) != nil:
		return enums.VisitTypeEventView
	case strings.HasPrefix(path, "/api/v1/tickets/"):
		return enums.VisitTypeTicketPurchase
	default:
		return enums.VisitTypePageView
	}
}

// eventIDFromPath extracts the event id from /api/v1/events/{id} paths.
func eventIDFromPath(path string) *uuid.UUID {
	const prefix = "/api/v1/events/"
	if !strings.HasPrefix(path, prefix) {
		return nil
	}
	rest := strings.TrimPrefix(path, prefix)
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return nil
	}
	return &id
}

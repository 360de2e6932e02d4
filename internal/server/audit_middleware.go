package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/audit"
)

// auditLogMiddleware records every mutating request. GET traffic is not
// audited; neither is the metrics scrape.
func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		entry := audit.Entry{
			Timestamp: time.Now().UTC(),
			Method:    r.Method,
			Path:      r.URL.Path,
			Handler:   handlerName(r),
			OrderID:   orderIDFromPath(r.URL.Path),
		}

		var requestBody []byte
		if r.Body != nil {
			requestBody, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
			entry.Request = string(requestBody)
		}

		if entry.OrderID != "" && strings.HasSuffix(r.URL.Path, "/status") {
			var statusRequest struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(requestBody, &statusRequest); err == nil {
				if order, err := s.orders.Get(entry.OrderID); err == nil {
					entry.OldStatus = string(order.Status)
					entry.NewStatus = statusRequest.Status
				}
			}
		}

		capture := captureResponse(w)
		next.ServeHTTP(capture, r)

		entry.StatusCode = capture.status
		entry.Response = capture.body.String()

		s.auditManager.Record(entry)
	})
}

// auditResponse tees the handler's status and payload so the middleware can
// record them after the handler returns.
type auditResponse struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func captureResponse(w http.ResponseWriter) *auditResponse {
	return &auditResponse{ResponseWriter: w, status: http.StatusOK}
}

func (w *auditResponse) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *auditResponse) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func handlerName(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unknown"
	}
	template, err := route.GetPathTemplate()
	if err != nil {
		return "unknown"
	}
	return r.Method + " " + template
}

func orderIDFromPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if (part == "orders" || part == "schedule") && i+1 < len(parts) {
			candidate := parts[i+1]
			switch candidate {
			case "", "status", "view", "span", "unscheduled", "export.csv":
				return ""
			}
			return candidate
		}
	}
	return ""
}

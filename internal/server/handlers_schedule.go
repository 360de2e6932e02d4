package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/schedule"
)

// handleSchedule is the drop-onto-calendar action. An occupied target slot
// rejects the drop with 409 and leaves the calendar untouched.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var scheduleRequest struct {
		OrderID string `json:"order_id"`
		Date    string `json:"date"`
		Slot    string `json:"slot"`
	}
	if err := decodeJSON(r, &scheduleRequest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := s.scheduler.Schedule(scheduleRequest.OrderID, scheduleRequest.Date, scheduleRequest.Slot)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrSlotOccupied):
			respondError(w, http.StatusConflict, "Slot is already occupied")
		case errors.Is(err, schedule.ErrUnknownOrder):
			respondError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, schedule.ErrUnknownSlot), errors.Is(err, schedule.ErrInvalidDate):
			respondError(w, http.StatusBadRequest, "Error: "+err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Failed to schedule order")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Order scheduled",
		"date":    scheduleRequest.Date,
		"slot":    scheduleRequest.Slot,
	})
}

// handleUnschedule is the drag-back-to-sidebar action; unscheduling an order
// with no placement succeeds as a no-op.
func (s *Server) handleUnschedule(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.Unschedule(mux.Vars(r)["orderID"]); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to unschedule order")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order unscheduled"})
}

// handleScheduleLookup answers cell queries: with date and slot it resolves
// the cell's occupancy, otherwise it returns the full entry list.
func (s *Server) handleScheduleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, slot := q.Get("date"), q.Get("slot")

	if date == "" && slot == "" {
		respondJSON(w, http.StatusOK, s.scheduler.Entries())
		return
	}

	orderID, ok := s.scheduler.Lookup(date, slot)
	if !ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{"occupied": false})
		return
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		// The order vanished between operations; show the bare placement.
		respondJSON(w, http.StatusOK, map[string]interface{}{"occupied": true, "order_id": orderID})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"occupied": true, "order": order})
}

// handleScheduleSpan computes the days the calendar shows for an anchor
// date: the Sunday-anchored week or the single day.
func (s *Server) handleScheduleSpan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	anchor := time.Now()
	if a := q.Get("anchor"); a != "" {
		parsed, err := time.Parse(schedule.DateLayout, a)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid anchor date, use YYYY-MM-DD")
			return
		}
		anchor = parsed
	}

	mode := schedule.ViewMode(q.Get("mode"))
	if mode == "" {
		mode = schedule.ModeWeek
	}
	if mode != schedule.ModeWeek && mode != schedule.ModeDay {
		respondError(w, http.StatusBadRequest, "Invalid mode, use week or day")
		return
	}

	span := schedule.Span(anchor, mode)
	days := make([]string, len(span))
	for i, d := range span {
		days[i] = d.Format(schedule.DateLayout)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":  days,
		"slots": schedule.Slots(),
	})
}

// handleUnscheduled lists the sidebar pool in insertion order.
func (s *Server) handleUnscheduled(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.scheduler.Unscheduled(s.orders.List()))
}

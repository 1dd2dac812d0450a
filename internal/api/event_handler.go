package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/taskline/taskline-api/internal/api/middleware"
	"github.com/taskline/taskline-api/internal/api/shared"
	"github.com/taskline/taskline-api/internal/consumer"
	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/events"
	"github.com/taskline/taskline-api/internal/store"
)

// Consumer is one topic's delivery handler.
type Consumer interface {
	Handle(ctx context.Context, envelope *events.Envelope) consumer.Outcome
}

// OutcomeResponse is the consumer endpoint reply the broker inspects to
// decide whether to acknowledge or redeliver.
type OutcomeResponse struct {
	Status consumer.Outcome `json:"status"`
}

// EventHandler exposes the broker-facing surface: the subscription
// registry, one consumer endpoint per topic, and the audit trail listing.
type EventHandler struct {
	pubsubName string
	audit      Consumer
	reminders  Consumer
	recurrence Consumer
	auditStore store.AuditStore
	logger     *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(
	pubsubName string,
	audit Consumer,
	reminders Consumer,
	recurrence Consumer,
	auditStore store.AuditStore,
	log *slog.Logger,
) *EventHandler {
	return &EventHandler{
		pubsubName: pubsubName,
		audit:      audit,
		reminders:  reminders,
		recurrence: recurrence,
		auditStore: auditStore,
		logger:     log.With(slog.String("component", "event_handler")),
	}
}

// Subscriptions handles GET /subscribe requests. The broker calls this once
// at startup to learn which topics to deliver where.
func (h *EventHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, events.Subscriptions(h.pubsubName))
}

// TaskEvents handles POST /events/task-events deliveries.
func (h *EventHandler) TaskEvents(w http.ResponseWriter, r *http.Request) {
	h.consume(w, r, h.audit)
}

// Reminders handles POST /events/reminders deliveries.
func (h *EventHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	h.consume(w, r, h.reminders)
}

// TaskUpdates handles POST /events/task-updates deliveries.
func (h *EventHandler) TaskUpdates(w http.ResponseWriter, r *http.Request) {
	h.consume(w, r, h.recurrence)
}

// consume decodes one delivery and runs it through the topic's consumer.
// The response is always 200: the broker reads the outcome from the body,
// and a non-2xx status would trigger its own retry on top of ours.
func (h *EventHandler) consume(w http.ResponseWriter, r *http.Request, c Consumer) {
	envelope, ok := h.decodeDelivery(r)
	if !ok {
		// A body that cannot be decoded will never decode on redelivery.
		shared.RespondWithJSON(w, r, http.StatusOK, OutcomeResponse{Status: consumer.OutcomeDrop})
		return
	}

	outcome := c.Handle(r.Context(), envelope)

	h.logger.Info("delivery processed",
		slog.String("event_id", envelope.EventID),
		slog.String("event_type", string(envelope.EventType)),
		slog.String("outcome", string(outcome)),
		slog.Bool("acknowledged", outcome.Acknowledged()),
		slog.String("path", r.URL.Path))

	shared.RespondWithJSON(w, r, http.StatusOK, OutcomeResponse{Status: outcome})
}

// decodeDelivery extracts the event envelope from a delivery body. The
// broker wraps published events in a CloudEvents envelope whose data field
// holds the payload; deliveries from other producers may carry the envelope
// inline, so both shapes are accepted.
func (h *EventHandler) decodeDelivery(r *http.Request) (*events.Envelope, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		h.logger.Warn("unreadable delivery body", slog.Any("error", err))
		return nil, false
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	raw := body
	if err := json.Unmarshal(body, &wrapper); err == nil && len(wrapper.Data) > 0 {
		raw = wrapper.Data
	}

	var envelope events.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		h.logger.Warn("undecodable delivery, dropping",
			slog.String("error", err.Error()))
		return nil, false
	}
	if envelope.EventID == "" || !envelope.EventType.Valid() {
		h.logger.Warn("delivery missing event identity, dropping",
			slog.String("event_id", envelope.EventID),
			slog.String("event_type", string(envelope.EventType)))
		return nil, false
	}

	return &envelope, true
}

// AuditTrail handles GET /api/events/audit requests.
func (h *EventHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	q := r.URL.Query()
	filter := store.AuditFilter{
		TaskID:    q.Get("task_id"),
		EventType: q.Get("event_type"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid query parameter: limit")
			return
		}
		filter.Limit = n
	}

	records, err := h.auditStore.ListForUser(r.Context(), userID.String(), filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if records == nil {
		records = []*domain.AuditRecord{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, records)
}

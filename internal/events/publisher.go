package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskline/taskline-api/internal/domain"
)

// Topic names for lifecycle events. Completion events fan out: they always
// go to TopicTaskEvents for auditing, and additionally to TopicTaskUpdates
// when the task recurs, so the audit and recurrence consumers observe the
// same logical event through independent subscriptions.
const (
	TopicTaskEvents  = "task-events"
	TopicReminders   = "reminders"
	TopicTaskUpdates = "task-updates"
)

// Transport abstracts the broker client's publish primitive. Implementations
// absorb every transport fault and report plain success or failure; a false
// return means the event was not delivered and will not be retried here.
type Transport interface {
	Publish(ctx context.Context, topic string, data any) bool
}

// Publisher builds envelopes for task lifecycle transitions and routes them
// to the correct topics.
//
// Every Publish method is best-effort: a false return tells the caller the
// event went nowhere, and the caller decides whether that is worth more
// than a log line. Publish failures must never fail or roll back the task
// mutation they describe.
type Publisher struct {
	transport Transport
	logger    *slog.Logger
}

// NewPublisher creates a Publisher using the given transport.
func NewPublisher(transport Transport, logger *slog.Logger) *Publisher {
	if transport == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("transport cannot be nil for Publisher")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for Publisher")
	}

	return &Publisher{
		transport: transport,
		logger:    logger.With(slog.String("component", "event_publisher")),
	}
}

// PublishTaskCreated publishes a task.created event to the task-events topic.
func (p *Publisher) PublishTaskCreated(ctx context.Context, userID string, task *domain.Task) bool {
	payload := TaskCreatedPayload{
		Title:             task.Title,
		Description:       task.Description,
		Priority:          string(task.Priority),
		Tags:              tagsOrEmpty(task.Tags),
		DueDate:           task.DueDate,
		RecurrencePattern: string(task.RecurrencePattern),
	}
	return p.publish(ctx, TopicTaskEvents, EventTaskCreated, userID, task.ID.String(), payload)
}

// PublishTaskUpdated publishes a task.updated event to the task-events topic.
func (p *Publisher) PublishTaskUpdated(ctx context.Context, userID string, task *domain.Task) bool {
	payload := TaskUpdatedPayload{
		Title:     task.Title,
		Priority:  string(task.Priority),
		Tags:      tagsOrEmpty(task.Tags),
		DueDate:   task.DueDate,
		Completed: task.Completed,
	}
	return p.publish(ctx, TopicTaskEvents, EventTaskUpdated, userID, task.ID.String(), payload)
}

// PublishTaskCompleted publishes a task.completed event to the task-events
// topic, and re-publishes the same logical event to the task-updates topic
// when the task recurs. The fan-out is intentional: one logical event, two
// topic destinations, two independent subscriptions.
//
// The return value reflects the audit-topic publish; a failed fan-out to
// the recurrence topic is logged but does not change it.
func (p *Publisher) PublishTaskCompleted(ctx context.Context, userID string, task *domain.Task) bool {
	completedAt := task.UpdatedAt
	payload := TaskCompletedPayload{
		CompletedAt:       &completedAt,
		WasOverdue:        task.DueDate != nil && task.DueDate.Before(completedAt),
		RecurrenceEnabled: task.RecurrenceEnabled,
		RecurrencePattern: string(task.RecurrencePattern),
	}

	envelope, err := NewEnvelope(EventTaskCompleted, userID, task.ID.String(), payload)
	if err != nil {
		p.logger.Error("failed to build task.completed envelope",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return false
	}

	ok := p.transport.Publish(ctx, TopicTaskEvents, envelope)
	if !ok {
		p.logger.Warn("task.completed event not delivered",
			slog.String("topic", TopicTaskEvents),
			slog.String("event_id", envelope.EventID))
	}

	if task.RecurrenceEnabled {
		if !p.transport.Publish(ctx, TopicTaskUpdates, envelope) {
			p.logger.Warn("task.completed event not delivered to recurrence topic",
				slog.String("topic", TopicTaskUpdates),
				slog.String("event_id", envelope.EventID))
		}
	}

	return ok
}

// PublishTaskDeleted publishes a task.deleted event to the task-events topic.
func (p *Publisher) PublishTaskDeleted(ctx context.Context, userID string, task *domain.Task) bool {
	payload := TaskDeletedPayload{Reason: "user_initiated"}
	return p.publish(ctx, TopicTaskEvents, EventTaskDeleted, userID, task.ID.String(), payload)
}

// PublishReminderTrigger publishes a reminder.trigger event to the
// reminders topic, carrying how many minutes remain before the task is due
// (zero when already due or the task has no due date).
func (p *Publisher) PublishReminderTrigger(ctx context.Context, userID string, task *domain.Task) bool {
	minutesUntilDue := 0
	if task.DueDate != nil {
		if remaining := time.Until(*task.DueDate); remaining > 0 {
			minutesUntilDue = int(remaining.Minutes())
		}
	}

	payload := ReminderPayload{
		TaskTitle:       task.Title,
		DueDate:         task.DueDate,
		MinutesUntilDue: minutesUntilDue,
	}
	return p.publish(ctx, TopicReminders, EventReminderTrigger, userID, task.ID.String(), payload)
}

// publish builds the envelope and hands it to the transport, logging
// non-delivery at warn level.
func (p *Publisher) publish(ctx context.Context, topic string, eventType EventType, userID, taskID string, payload any) bool {
	envelope, err := NewEnvelope(eventType, userID, taskID, payload)
	if err != nil {
		p.logger.Error("failed to build event envelope",
			slog.String("event_type", string(eventType)),
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return false
	}

	if !p.transport.Publish(ctx, topic, envelope) {
		p.logger.Warn("event not delivered",
			slog.String("topic", topic),
			slog.String("event_type", string(eventType)),
			slog.String("event_id", envelope.EventID))
		return false
	}

	p.logger.Debug("event published",
		slog.String("topic", topic),
		slog.String("event_type", string(eventType)),
		slog.String("event_id", envelope.EventID))
	return true
}

// tagsOrEmpty keeps payload tags as an empty array rather than JSON null.
func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

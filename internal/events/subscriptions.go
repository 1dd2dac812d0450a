package events

// Subscription declares one topic-to-route binding for the broker sidecar.
// The broker fetches the full list once at startup and thereafter POSTs
// every delivery for a topic to its bound route.
type Subscription struct {
	PubsubName string `json:"pubsubname"`
	Topic      string `json:"topic"`
	Route      string `json:"route"`
}

// Consumer endpoint routes. These must stay in lockstep with the routes
// mounted by the API router; the broker only knows what Subscriptions
// tells it.
const (
	RouteTaskEvents  = "/events/task-events"
	RouteReminders   = "/events/reminders"
	RouteTaskUpdates = "/events/task-updates"
)

// Subscriptions returns the static topic-to-route bindings for the given
// pub/sub component name.
func Subscriptions(pubsubName string) []Subscription {
	return []Subscription{
		{PubsubName: pubsubName, Topic: TopicTaskEvents, Route: RouteTaskEvents},
		{PubsubName: pubsubName, Topic: TopicReminders, Route: RouteReminders},
		{PubsubName: pubsubName, Topic: TopicTaskUpdates, Route: RouteTaskUpdates},
	}
}

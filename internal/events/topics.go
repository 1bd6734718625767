package events

// Topic constants for cart notifications.
const (
	TopicCartAdding   = "cart.adding"
	TopicCartAdded    = "cart.added"
	TopicCartUpdating = "cart.updating"
	TopicCartUpdated  = "cart.updated"
	TopicCartRemoving = "cart.removing"
	TopicCartRemoved  = "cart.removed"
)

// DefaultTopics returns every cart topic.
func DefaultTopics() []string {
	return []string{
		TopicCartAdding,
		TopicCartAdded,
		TopicCartUpdating,
		TopicCartUpdated,
		TopicCartRemoving,
		TopicCartRemoved,
	}
}

// CommittedTopics returns the topics emitted after a change was persisted.
func CommittedTopics() []string {
	return []string{TopicCartAdded, TopicCartUpdated, TopicCartRemoved}
}

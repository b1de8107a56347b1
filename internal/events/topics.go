package events

// Topic constants for domain events emitted by the POS.
const (
	TopicSessionStarted      = "session.started"
	TopicSessionItemAdded    = "session.item_added"
	TopicSessionItemsUpdated = "session.items_updated"
	TopicSessionCheckedOut   = "session.checked_out"
	TopicSessionCancelled    = "session.cancelled"
	TopicItemCreated         = "item.created"
	TopicItemUpdated         = "item.updated"
	TopicItemDeleted         = "item.deleted"
	TopicSettingsUpdated     = "settings.updated"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicSessionStarted,
		TopicSessionItemAdded,
		TopicSessionItemsUpdated,
		TopicSessionCheckedOut,
		TopicSessionCancelled,
		TopicItemCreated,
		TopicItemUpdated,
		TopicItemDeleted,
		TopicSettingsUpdated,
	}
}

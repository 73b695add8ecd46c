package pubsub

// Event types.
const (
	EventPostCreated    = "post.created"
	EventPostDeleted    = "post.deleted"
	EventLikeCreated    = "like.created"
	EventLikeDeleted    = "like.deleted"
	EventCommentCreated = "comment.created"
	EventCommentDeleted = "comment.deleted"
	EventFollowCreated  = "follow.created"
	EventFollowDeleted  = "follow.deleted"
)

const (
	// DefaultKafkaTopic carries every event type; consumers filter on Type.
	DefaultKafkaTopic = "feed-events"

	// redisChannelPrefix is followed by the event type.
	redisChannelPrefix = "feed:events:"
)

// RedisChannel returns the Redis channel an event type is published on.
func RedisChannel(eventType string) string {
	return redisChannelPrefix + eventType
}

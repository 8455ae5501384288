package mq

// LikeEvent records one successful reaction state change.
type LikeEvent struct {
	UserID     string `json:"user_id"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	ActionType string `json:"action_type"` // "like" or "unlike"
	Timestamp  int64  `json:"timestamp"`
	EventID    string `json:"event_id"`
}

// ConsistencyEvent reports a cascade whose cleanup could not finish after
// the parent document was already gone. Consumers drive the retry; the
// request that triggered the cascade has already been answered.
type ConsistencyEvent struct {
	ParentType string `json:"parent_type"`
	ParentID   string `json:"parent_id"`
	Step       string `json:"step"`
	Detail     string `json:"detail"`
	Timestamp  int64  `json:"timestamp"`
	EventID    string `json:"event_id"`
}

const (
	LikeEventExchange        = "like_events"
	ConsistencyEventExchange = "consistency_events"

	LikeEventQueue        = "like_event_queue"
	ConsistencyEventQueue = "consistency_event_queue"
)

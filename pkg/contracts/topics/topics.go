package topics

const (
	// Cascata de pontuação
	MatchUpdates  = "match_updates"
	PointsChanges = "points_changes"

	// DLQs
	MatchUpdatesDLQ  = "match_updates_dlq"
	PointsChangesDLQ = "points_changes_dlq"
)

package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const ChannelScoreBroadcast = "score_updates_broadcast"

// Payload enviado no canal de broadcast de placares
type ScoreUpdate struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
}

type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = ChannelScoreBroadcast
	}
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) PublishScoreUpdate(ctx context.Context, userID string, score int) error {
	payload, err := json.Marshal(ScoreUpdate{UserID: userID, Score: score})
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}

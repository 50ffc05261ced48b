package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mExArb/sharpshooter/pkg/types"
)

// DefaultRedisChannel is where opportunities land unless configured
// otherwise.
const DefaultRedisChannel = "sharpshooter.opportunities"

// RedisOptions configures the redis sink.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Channel is the pub/sub channel to publish on. Empty takes the
	// default.
	Channel string
}

// RedisSink publishes opportunities as JSON on a redis pub/sub channel, for
// dashboards and notifier bots that already sit on redis.
type RedisSink struct {
	client  *redis.Client
	channel string
	logger  *logrus.Entry
}

// NewRedisSink connects and verifies the server is reachable.
func NewRedisSink(opts RedisOptions) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	channel := opts.Channel
	if channel == "" {
		channel = DefaultRedisChannel
	}

	return &RedisSink{
		client:  client,
		channel: channel,
		logger:  logrus.WithField("component", "redis-sink"),
	}, nil
}

func (s *RedisSink) Publish(ctx context.Context, opp types.Opportunity) error {
	data, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("failed to marshal opportunity: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.channel, err)
	}
	s.logger.Debugf("published opportunity %s", opp.ID)
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}

package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/mExArb/sharpshooter/pkg/types"
)

// Client wraps the NATS connection for the detector's publish side.
type Client struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
	config *Config
}

// Config holds NATS configuration.
type Config struct {
	URL      string
	ClientID string
	Streams  []StreamConfig
}

// StreamConfig defines a JetStream stream.
type StreamConfig struct {
	Name      string
	Subjects  []string
	Retention nats.RetentionPolicy
	MaxAge    time.Duration
	MaxMsgs   int64
}

// DefaultConfig returns a config with the ARBS stream capturing every
// detector subject.
func DefaultConfig(url string) *Config {
	return &Config{
		URL:      url,
		ClientID: "sharpshooter",
		Streams: []StreamConfig{
			{
				Name:      StreamArbs,
				Subjects:  []string{SubjectAll},
				Retention: nats.LimitsPolicy,
				MaxAge:    24 * time.Hour,
				MaxMsgs:   100_000,
			},
		},
	}
}

// NewClient connects and ensures the configured streams exist.
func NewClient(config *Config) (*Client, error) {
	logger := logrus.WithField("component", "nats-client")

	opts := []nats.Option{
		nats.Name(config.ClientID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Errorf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Errorf("NATS error: %v", err)
		}),
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &Client{
		conn:   conn,
		js:     js,
		logger: logger,
		config: config,
	}

	if err := client.initializeStreams(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize streams: %w", err)
	}

	return client, nil
}

// initializeStreams creates or updates the configured JetStream streams.
func (c *Client) initializeStreams() error {
	for _, streamConfig := range c.config.Streams {
		config := &nats.StreamConfig{
			Name:      streamConfig.Name,
			Subjects:  streamConfig.Subjects,
			Retention: streamConfig.Retention,
			MaxAge:    streamConfig.MaxAge,
			MaxMsgs:   streamConfig.MaxMsgs,
			Storage:   nats.FileStorage,
			Replicas:  1,
		}

		_, err := c.js.StreamInfo(streamConfig.Name)
		if err == nil {
			if _, err = c.js.UpdateStream(config); err != nil {
				return fmt.Errorf("failed to update stream %s: %w", streamConfig.Name, err)
			}
			c.logger.Infof("Updated stream: %s", streamConfig.Name)
		} else {
			if _, err = c.js.AddStream(config); err != nil {
				return fmt.Errorf("failed to create stream %s: %w", streamConfig.Name, err)
			}
			c.logger.Infof("Created stream: %s", streamConfig.Name)
		}
	}

	return nil
}

// Close closes the NATS connection.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// PublishOpportunity publishes a detected roundtrip under the start currency
// subject.
func (c *Client) PublishOpportunity(currency string, opp types.Opportunity) error {
	return c.publish(RoundtripSubject(currency), opp)
}

func (c *Client) publish(subject string, data interface{}) error {
	msg, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, err = c.js.Publish(subject, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	c.logger.Debugf("Published to %s", subject)
	return nil
}

// MessageHandler processes incoming messages.
type MessageHandler func(subject string, data []byte) error

// SubscribeOpportunities delivers roundtrips for one start currency, or for
// all of them when currency is empty.
func (c *Client) SubscribeOpportunities(currency string, handler MessageHandler) (*Subscription, error) {
	subject := SubjectRoundtrips
	if currency != "" {
		subject = RoundtripSubject(currency)
	}
	return c.subscribe(subject, handler)
}

func (c *Client) subscribe(subject string, handler MessageHandler) (*Subscription, error) {
	sub, err := c.js.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(msg.Subject, msg.Data); err != nil {
			c.logger.Errorf("Handler error for %s: %v", msg.Subject, err)
		}
		msg.Ack()
	}, nats.Durable(durableName(subject)))

	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	c.logger.Infof("Subscribed to %s", subject)

	return &Subscription{
		sub:    sub,
		logger: c.logger,
	}, nil
}

// Subscription wraps a NATS subscription.
type Subscription struct {
	sub    *nats.Subscription
	logger *logrus.Entry
}

// Unsubscribe removes the subscription.
func (s *Subscription) Unsubscribe() error {
	if err := s.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	s.logger.Info("Unsubscribed")
	return nil
}

package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/tasks"
	"github.com/vmihailenco/msgpack/v5"
)

// New connects to Google Cloud Pub/Sub and publishes to topicID.
func New(ctx context.Context, projectID, topicID string) (PubSubClient, error) {
	if topicID == "" {
		topicID = DefaultTopic
	}
	pubSubC, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	topic := pubSubC.Topic(topicID)
	teardown := func() {
		topic.Stop()
		pubSubC.Close()
	}

	return &client{
		client:   pubSubC,
		topic:    topic,
		teardown: teardown,
	}, nil
}

func (c *client) SendMessage(ctx context.Context, t tasks.Task) (string, error) {
	data, err := Encode(t)
	if err != nil {
		return "", err
	}
	result := c.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"kind": string(t.Kind)},
	})
	serverID, err := result.Get(ctx)
	if err != nil {
		log.Error("Failed to publish message", "error", err, "topic", c.topic.ID(), "task", t.String())
		return "", fmt.Errorf("failed to publish %s: %w", t.Kind, err)
	}
	log.Debug("SendMessage", "serverID", serverID, "task", t.String())
	return serverID, nil
}

func (c *client) ProcessMessage(data []byte) (tasks.Task, error) {
	return Decode(data)
}

func (c *client) Close() {
	c.teardown()
}

// Encode serialises a task with MessagePack.
func Encode(t tasks.Task) ([]byte, error) {
	data, err := msgpack.Marshal(t)
	if err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return nil, fmt.Errorf("failed to encode task: %w", err)
	}
	return data, nil
}

// Decode reverses Encode.
func Decode(data []byte) (tasks.Task, error) {
	var t tasks.Task
	if err := msgpack.Unmarshal(data, &t); err != nil {
		log.Error("MessagePack unmarshal error", "error", err)
		return tasks.Task{}, fmt.Errorf("failed to decode task: %w", err)
	}
	if t.Kind == "" {
		return tasks.Task{}, fmt.Errorf("failed to decode task: missing kind")
	}
	return t, nil
}

// pushEnvelope is the body of a Pub/Sub push delivery.
type pushEnvelope struct {
	Subscription string `json:"subscription"`
	Message      struct {
		ID   string `json:"messageId"`
		Data string `json:"data"`
	} `json:"message"`
}

// DecodePush parses a push delivery and decodes the task it carries.
func DecodePush(body []byte) (tasks.Task, error) {
	var env pushEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return tasks.Task{}, fmt.Errorf("invalid push envelope: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("invalid base64 data: %w", err)
	}
	return Decode(raw)
}

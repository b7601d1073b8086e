package pubsub

import (
	"context"

	"github.com/mauv0809/padel-weekly/internal/tasks"
)

type PubSubClient interface {
	SendMessage(ctx context.Context, t tasks.Task) (string, error)
	ProcessMessage(data []byte) (tasks.Task, error)
	Close()
}

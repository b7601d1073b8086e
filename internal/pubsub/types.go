package pubsub

import "cloud.google.com/go/pubsub"

// DefaultTopic carries every side effect task.
const DefaultTopic = "padel-side-effects"

type client struct {
	client   *pubsub.Client
	topic    *pubsub.Topic
	teardown func()
}

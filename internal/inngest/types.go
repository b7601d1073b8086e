package inngest

import (
	"github.com/inngest/inngestgo"
	"github.com/mauv0809/padel-weekly/internal/processor"
)

// EventSideEffect is the event that carries one task.
const EventSideEffect = "padel/side-effect.requested"

type client struct {
	inngestClient inngestgo.Client
	runner        processor.Runner
}

package conversation

import "github.com/koscakluka/vocablive/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

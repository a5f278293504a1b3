package driver

import (
	"github.com/olebedev/emitter"
)

const (
	TopicNodeAdded       = "node added"
	TopicNodeReady       = "node ready"
	TopicNodeRemoved     = "node removed"
	TopicValueUpdated    = "value updated"
	TopicValueAdded      = "value added"
	TopicMetadataUpdated = "metadata updated"
)

// ValueTopics are the topics which carry a ValueEvent.
var ValueTopics = []string{TopicValueUpdated, TopicValueAdded, TopicMetadataUpdated}

// Bus carries driver notifications to the bridge. Listeners are invoked synchronously from the
// emitting goroutine, so notifications are delivered one at a time in emission order.
type Bus struct {
	emitter.Emitter
}

func NewBus() *Bus {
	b := &Bus{Emitter: emitter.Emitter{}}
	b.Use("*", emitter.Void)
	return b
}

func (b *Bus) NodeAdded(n Node) {
	<-b.Emit(TopicNodeAdded, n)
}

func (b *Bus) NodeReady(n Node) {
	<-b.Emit(TopicNodeReady, n)
}

func (b *Bus) NodeRemoved(n Node) {
	<-b.Emit(TopicNodeRemoved, n)
}

func (b *Bus) Value(topic string, n Node, e ValueEvent) {
	<-b.Emit(topic, n, e)
}

// OnNode subscribes to a node lifecycle topic.
func (b *Bus) OnNode(topic string, fn func(Node)) {
	b.On(topic, func(e *emitter.Event) {
		if len(e.Args) < 1 {
			return
		}

		if n, ok := e.Args[0].(Node); ok {
			fn(n)
		}
	})
}

// OnValue subscribes to a value topic.
func (b *Bus) OnValue(topic string, fn func(Node, ValueEvent)) {
	b.On(topic, func(e *emitter.Event) {
		if len(e.Args) < 2 {
			return
		}

		n, ok := e.Args[0].(Node)
		if !ok {
			return
		}

		if ve, ok := e.Args[1].(ValueEvent); ok {
			fn(n, ve)
		}
	})
}

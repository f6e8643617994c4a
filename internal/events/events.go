package events

// TopicAdmin is the alert topic reserved for administrative observers.
const TopicAdmin = "admin"

// Message is one published event. Key is used for partitioning by relays that support it.
type Message struct {
	Topic   string
	Key     string
	Payload []byte
}

// Publisher delivers messages without blocking the caller. Delivery is at-most-once.
type Publisher interface {
	Publish(msg Message)
}

// Fanout forwards every message to each publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(msg Message) {
	for _, p := range f {
		if p != nil {
			p.Publish(msg)
		}
	}
}

// Discard drops every message.
type Discard struct{}

func (Discard) Publish(Message) {}

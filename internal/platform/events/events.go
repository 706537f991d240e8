package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Topics published by the services.
const (
	TopicAttendanceMarked  = "attendance.marked"
	TopicMemberExhausted   = "members.exhausted"
	TopicMemberReactivated = "members.reactivated"
	TopicPaymentRecorded   = "payments.recorded"
	TopicCreditsReset      = "members.credits_reset"
)

type Publisher interface {
	Publish(topic string, data []byte) error
}

type Bus struct {
	nc *nats.Conn
}

func NewBus(nc *nats.Conn) *Bus {
	return &Bus{nc: nc}
}

func (b *Bus) Publish(topic string, data []byte) error {
	return b.nc.Publish(topic, data)
}

// Connect returns a NATS-backed publisher, or Noop when url is empty.
func Connect(url string) (Publisher, func(), error) {
	if url == "" {
		return Noop{}, func() {}, nil
	}
	nc, err := nats.Connect(url,
		nats.Name("tiffin-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, err
	}
	return NewBus(nc), func() { _ = nc.Drain() }, nil
}

type Noop struct{}

func (Noop) Publish(string, []byte) error { return nil }

// Emit marshals payload and publishes it. Failures are logged, never returned:
// events are notifications after the state change has committed.
func Emit(p Publisher, topic string, payload any) {
	if p == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("events: marshal failed", "topic", topic, "error", err)
		return
	}
	if err := p.Publish(topic, data); err != nil {
		slog.Warn("events: publish failed", "topic", topic, "error", err)
	}
}

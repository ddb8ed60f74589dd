package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/DreamFlyCoder/plugin/internal/infra"
)

// DefaultTopic carries UI events.
const DefaultTopic = "ui-events"

const actionMetadataKey = "action"

// PubSub is an in-process listener backed by a watermill go channel. Every
// connected UI surface subscribes to the same topic; events published while
// nobody is subscribed are dropped.
type PubSub struct {
	channel *gochannel.GoChannel
	topic   string
	logger  infra.Logger
}

// NewPubSub creates the channel. Close it on shutdown.
func NewPubSub(topic string, logger *infra.Logger) *PubSub {
	if topic == "" {
		topic = DefaultTopic
	}
	l := infra.LoggerOrDiscard(logger)
	return &PubSub{
		channel: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, newWatermillLogger(l)),
		topic:   topic,
		logger:  l,
	}
}

func (p *PubSub) Name() string { return "pubsub:" + p.topic }

// Deliver publishes ev as JSON.
func (p *PubSub) Deliver(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := message.NewMessage(ev.ID, payload)
	msg.Metadata.Set(actionMetadataKey, ev.Action)
	msg.SetContext(ctx)
	return p.channel.Publish(p.topic, msg)
}

// Subscribe streams decoded events until ctx ends. The returned channel is
// closed afterwards.
func (p *PubSub) Subscribe(ctx context.Context) (<-chan Event, error) {
	messages, err := p.channel.Subscribe(ctx, p.topic)
	if err != nil {
		return nil, err
	}
	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range messages {
			var ev Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				p.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("broadcast: drop undecodable event")
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close stops the channel and every subscription.
func (p *PubSub) Close() error {
	return p.channel.Close()
}

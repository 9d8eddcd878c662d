package testutil

import (
	"context"
	"sync"
)

type Published struct {
	Topic string
	Key   string
	Value interface{}
}

// RecordingPublisher keeps every message in memory.
type RecordingPublisher struct {
	mu       sync.Mutex
	Messages []Published
}

func (p *RecordingPublisher) Publish(_ context.Context, topic, key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Messages = append(p.Messages, Published{Topic: topic, Key: key, Value: value})
	return nil
}

// Topics returns the topics published so far, in order.
func (p *RecordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Messages))
	for _, m := range p.Messages {
		out = append(out, m.Topic)
	}
	return out
}

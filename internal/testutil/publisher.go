package testutil

import (
	"context"
	"encoding/json"
	"sync"
)

// Published is one event captured by Recorder, re-decoded from its JSON form.
type Published struct {
	Topic string
	Key   string
	Event map[string]any
}

// Recorder is an in-memory event publisher.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Topic: topic, Key: key, Event: m})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types lists the "type" field of every captured event in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		t, _ := e.Event["type"].(string)
		out = append(out, t)
	}
	return out
}

func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}

package service

import (
	"context"
	"strconv"
	"time"

	"github.com/Skotchmaster/museum/internal/logging"
	"github.com/Skotchmaster/museum/internal/models"
	"github.com/Skotchmaster/museum/internal/mykafka"
)

const (
	EventUserRegistered       = "user_registered"
	EventUserLoggedIn         = "user_logged_in"
	EventUserLoggedOut        = "user_logged_out"
	EventRefreshReuseDetected = "refresh_reuse_detected"
	EventRoleChanged          = "role_changed"
	EventMuseumCreated        = "museum_created"
	EventMuseumUpdated        = "museum_updated"
	EventMuseumDeleted        = "museum_deleted"
)

type Event struct {
	Type     string      `json:"type"`
	UserID   uint        `json:"user_id,omitempty"`
	Email    string      `json:"email,omitempty"`
	Role     models.Role `json:"role,omitempty"`
	MuseumID uint        `json:"museum_id,omitempty"`
	Revoked  int64       `json:"revoked,omitempty"`
	At       time.Time   `json:"at"`
}

// Events publishes to a single topic. Delivery is best effort: a failed
// publish is logged and never fails the request that caused it.
type Events struct {
	Publisher mykafka.Publisher
	Topic     string
}

func (e Events) emit(ctx context.Context, ev Event) {
	if e.Publisher == nil {
		return
	}
	ev.At = time.Now().UTC()

	key := ev.Type
	switch {
	case ev.UserID != 0:
		key = strconv.FormatUint(uint64(ev.UserID), 10)
	case ev.MuseumID != 0:
		key = "museum-" + strconv.FormatUint(uint64(ev.MuseumID), 10)
	}
	if err := e.Publisher.PublishEvent(ctx, e.Topic, key, ev); err != nil {
		logging.FromContext(ctx).Warnw("publish_event_failed", "type", ev.Type, "topic", e.Topic, "error", err)
	}
}

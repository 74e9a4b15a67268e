// Package notify pushes appointment updates to connected patient sessions
// over Redis pub/sub. Delivery is at-most-once and best-effort: a session
// that is not subscribed simply misses the event, and a publish failure is
// reported to the caller for logging but must never roll back the lifecycle
// transition that triggered it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medibook/clinic-scheduler/internal/booking"
)

const publishTimeout = 2 * time.Second

type RedisNotifier struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisNotifier(client *redis.Client, log zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, log: log}
}

// PatientChannel is the pub/sub channel a patient session subscribes to.
func PatientChannel(patientID string) string {
	return "notify:patient:" + patientID
}

func (n *RedisNotifier) AppointmentUpdated(ctx context.Context, update booking.AppointmentUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode appointment update: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	channel := PatientChannel(update.PatientID.String())
	if err := n.client.Publish(pubCtx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}

	n.log.Debug().
		Str("channel", channel).
		Str("appointment_id", update.AppointmentID.String()).
		Msg("appointment update published")
	return nil
}

package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ms-campus/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	progressPrefix = "event_progress:"
	updatedField   = "updated_at"
	// ProgressTTL is refreshed on every write so abandoned drafts age out.
	ProgressTTL = 30 * 24 * time.Hour
)

// ProgressStore keeps wizard progress in a Redis hash per event.
type ProgressStore struct {
	Client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{Client: client}
}

func progressKey(eventID string) string {
	return progressPrefix + eventID
}

// Load returns the completed flag per step. Missing steps are false.
func (s *ProgressStore) Load(ctx context.Context, eventID string) (map[models.WizardStep]bool, time.Time, error) {
	vals, err := s.Client.HGetAll(ctx, progressKey(eventID)).Result()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load progress for %s: %w", eventID, err)
	}

	steps := make(map[models.WizardStep]bool, len(models.WizardSteps))
	for _, step := range models.WizardSteps {
		steps[step] = vals[string(step)] == "1"
	}

	var updated time.Time
	if unix, err := strconv.ParseInt(vals[updatedField], 10, 64); err == nil {
		updated = time.Unix(unix, 0).UTC()
	}
	return steps, updated, nil
}

// Save writes the given step flags and refreshes the TTL.
func (s *ProgressStore) Save(ctx context.Context, eventID string, steps map[models.WizardStep]bool, at time.Time) error {
	key := progressKey(eventID)
	fields := make(map[string]interface{}, len(steps)+1)
	for step, done := range steps {
		if done {
			fields[string(step)] = "1"
		} else {
			fields[string(step)] = "0"
		}
	}
	fields[updatedField] = strconv.FormatInt(at.Unix(), 10)

	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ProgressTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save progress for %s: %w", eventID, err)
	}
	return nil
}

func (s *ProgressStore) Delete(ctx context.Context, eventID string) error {
	return s.Client.Del(ctx, progressKey(eventID)).Err()
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"supplyguard/internal/common/database"
	"supplyguard/internal/common/errors"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/models"
)

const threadKeyPrefix = "thread:"

// ThreadArchive persists sealed conversation threads to Redis for
// audit. Threads are written once, after sealing, and read back by id.
type ThreadArchive struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewThreadArchive(client *database.RedisClient, ttl time.Duration, log logger.Logger) *ThreadArchive {
	return &ThreadArchive{redis: client, ttl: ttl, logger: log}
}

// Save stores a sealed thread. Unsealed threads are rejected so the
// archive only ever holds final records.
func (a *ThreadArchive) Save(ctx context.Context, thread *models.ConversationThread) error {
	if thread.State != models.ThreadClosed && thread.State != models.ThreadFailed {
		return errors.NewArchiveFailedError(thread.ID, fmt.Errorf("thread in state %s is not sealed", thread.State))
	}

	payload, err := json.Marshal(thread)
	if err != nil {
		return errors.NewArchiveFailedError(thread.ID, err)
	}

	if err := a.redis.Set(ctx, threadKeyPrefix+thread.ID, string(payload), a.ttl); err != nil {
		return errors.NewArchiveFailedError(thread.ID, err)
	}

	a.logger.Debug("thread archived", map[string]interface{}{
		"threadId": thread.ID,
		"state":    string(thread.State),
	})
	return nil
}

// Get loads an archived thread by id.
func (a *ThreadArchive) Get(ctx context.Context, threadID string) (*models.ConversationThread, error) {
	raw, err := a.redis.Get(ctx, threadKeyPrefix+threadID)
	if err != nil {
		return nil, errors.NewArchiveFailedError(threadID, err)
	}

	var thread models.ConversationThread
	if err := json.Unmarshal([]byte(raw), &thread); err != nil {
		return nil, errors.NewArchiveFailedError(threadID, err)
	}
	return &thread, nil
}

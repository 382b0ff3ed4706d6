package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freshdesk/jaya-lib/internal/constants"
)

// Claimer is an atomic create-if-absent guard on job identity. Claiming a
// jobID before queueing its schedule closes the check-then-create window
// two concurrent triggers for the same conversation would otherwise race
// through.
type Claimer interface {
	Claim(ctx context.Context, jobID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, jobIDs ...string) error
}

type RedisClaimer struct {
	client *redis.Client
}

func NewRedisClaimer(client *redis.Client) *RedisClaimer {
	return &RedisClaimer{client: client}
}

// Claim reports true when the caller now holds the claim for jobID. A
// false return means another invocation already scheduled this job.
func (c *RedisClaimer) Claim(ctx context.Context, jobID string, ttl time.Duration) (bool, error) {
	key := constants.JobClaimKeyPrefix + jobID
	ok, err := c.client.SetNX(ctx, key, time.Now().Unix(), ttl+constants.JobClaimTTLSlack).Result()
	if err != nil {
		return false, fmt.Errorf("redis SetNX failed: %w", err)
	}
	return ok, nil
}

// Release drops the claims so the jobIDs can be scheduled again.
func (c *RedisClaimer) Release(ctx context.Context, jobIDs ...string) error {
	if len(jobIDs) == 0 {
		return nil
	}
	keys := make([]string, len(jobIDs))
	for i, id := range jobIDs {
		keys[i] = constants.JobClaimKeyPrefix + id
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis Del failed: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/loan-engine/internal/domain"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/utils"
)

type scheduleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScheduleCache caches schedule views in redis. Keys carry the loan version, so a
// write to the loan makes older entries unreachable until they expire.
func NewScheduleCache(client *redis.Client, ttl time.Duration) ScheduleCache {
	return &scheduleCache{client: client, ttl: ttl}
}

func scheduleKey(loanID string, version int64, businessDate time.Time) string {
	return fmt.Sprintf("loan:%s:v%d:schedule:%s", loanID, version, utils.FormatDate(businessDate))
}

// Get returns nil without error on a cache miss.
func (c *scheduleCache) Get(ctx context.Context, loanID string, version int64, businessDate time.Time) (*domain.RepaymentSchedule, error) {
	data, err := c.client.Get(ctx, scheduleKey(loanID, version, businessDate)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.WrapCacheError(err)
	}

	var schedule domain.RepaymentSchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, pkgerrors.WrapCacheError(err)
	}
	return &schedule, nil
}

func (c *scheduleCache) Set(ctx context.Context, schedule *domain.RepaymentSchedule, version int64, businessDate time.Time) error {
	data, err := json.Marshal(schedule)
	if err != nil {
		return pkgerrors.WrapCacheError(err)
	}
	if err := c.client.Set(ctx, scheduleKey(schedule.LoanID, version, businessDate), data, c.ttl).Err(); err != nil {
		return pkgerrors.WrapCacheError(err)
	}
	return nil
}

// releaseScript deletes the lock only when it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type loanLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLoanLocker(client *redis.Client, ttl time.Duration) LoanLocker {
	return &loanLocker{client: client, ttl: ttl}
}

func (l *loanLocker) Lock(ctx context.Context, loanID string) (func(ctx context.Context) error, error) {
	key := "loan:" + loanID + ":lock"
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, pkgerrors.WrapCacheError(err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrLoanLocked, loanID)
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return pkgerrors.WrapCacheError(err)
		}
		return nil
	}, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const sequenceKeyPrefix = "invoice_seq:"

// reserveScript advances a counter to max(current+1, floor) atomically.
var reserveScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
local nextValue = current + 1
if nextValue < floor then
  nextValue = floor
end
redis.call('SET', KEYS[1], nextValue)
return nextValue
`)

// SequenceRepository hands out invoice sequence numbers from Redis counters.
type SequenceRepository struct {
	client redis.Scripter
}

// NewSequenceRepository constructs a sequence repository.
func NewSequenceRepository(client redis.Scripter) *SequenceRepository {
	return &SequenceRepository{client: client}
}

// Reserve returns the next number for prefix, never lower than floor.
func (r *SequenceRepository) Reserve(ctx context.Context, prefix string, floor int64) (int64, error) {
	key := sequenceKeyPrefix + prefix
	next, err := reserveScript.Run(ctx, r.client, []string{key}, floor).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis reserve %s: %w", key, err)
	}
	return next, nil
}

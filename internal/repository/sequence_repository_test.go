package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScripter struct {
	redis.Scripter
	counters map[string]int64
	err      error
}

func (f *fakeScripter) EvalSha(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	if f.err != nil {
		return redis.NewCmdResult(nil, f.err)
	}
	floor := args[0].(int64)
	next := f.counters[keys[0]] + 1
	if next < floor {
		next = floor
	}
	f.counters[keys[0]] = next
	return redis.NewCmdResult(next, nil)
}

func TestSequenceRepositoryReserve(t *testing.T) {
	scripter := &fakeScripter{counters: map[string]int64{}}
	repo := NewSequenceRepository(scripter)
	ctx := context.Background()

	n, err := repo.Reserve(ctx, "APSUK", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	n, err = repo.Reserve(ctx, "APSUK", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = repo.Reserve(ctx, "APSPR", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(5), scripter.counters["invoice_seq:APSUK"])
}

func TestSequenceRepositoryReserveError(t *testing.T) {
	repo := NewSequenceRepository(&fakeScripter{err: errors.New("connection refused")})

	_, err := repo.Reserve(context.Background(), "APSC1", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoice_seq:APSC1")
}

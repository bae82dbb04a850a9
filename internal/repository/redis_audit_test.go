package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/GoPolymarket/opa/internal/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &RedisClient{Client: rdb}, s
}

func entry(orderID int64, status model.Status, msg string) model.NewAuditLogEntry {
	return model.NewAuditLogEntry{
		OrderID:    orderID,
		ProductSKU: "WIDGET-1",
		Quantity:   3,
		Status:     status,
		Message:    msg,
	}
}

func TestRedisAuditRepo_AppendAssignsIDsAndTime(t *testing.T) {
	client, s := newTestRedis(t)
	at := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	s.SetTime(at)
	repo := NewRedisAuditRepo(client, "test:logs", 100)
	ctx := context.Background()

	id1, err := repo.Append(ctx, entry(12, model.StatusSuccess, model.MessageProductAdded))
	require.NoError(t, err)
	id2, err := repo.Append(ctx, entry(99999, model.StatusError, model.MessageOrderNotFound))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	logs, err := repo.Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	// same timestamp, newest id first
	assert.Equal(t, id2, logs[0].ID)
	assert.Equal(t, id1, logs[1].ID)
	assert.True(t, logs[0].CreatedAt.Equal(at))
	assert.Equal(t, model.MessageOrderNotFound, logs[0].Message)
	assert.Equal(t, "WIDGET-1", logs[1].ProductSKU)
}

func TestRedisAuditRepo_RecentNewestFirstAndLimited(t *testing.T) {
	client, s := newTestRedis(t)
	repo := NewRedisAuditRepo(client, "test:logs", 1000)
	ctx := context.Background()

	base := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		s.SetTime(base.Add(time.Duration(i) * time.Second))
		_, err := repo.Append(ctx, entry(int64(i+1), model.StatusSuccess, model.MessageProductAdded))
		require.NoError(t, err)
	}

	logs, err := repo.Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, logs, 50)
	assert.Equal(t, int64(60), logs[0].OrderID)
	for i := 1; i < len(logs); i++ {
		assert.True(t, logs[i-1].Less(logs[i]), fmt.Sprintf("entry %d out of order", i))
	}

	again, err := repo.Recent(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, logs, again)
}

func TestRedisAuditRepo_ListIsCapped(t *testing.T) {
	client, s := newTestRedis(t)
	repo := NewRedisAuditRepo(client, "test:logs", 5)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := repo.Append(ctx, entry(int64(i+1), model.StatusSuccess, model.MessageProductAdded))
		require.NoError(t, err)
	}

	items, err := s.List("test:logs")
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestRedisAuditRepo_Drop(t *testing.T) {
	client, s := newTestRedis(t)
	repo := NewRedisAuditRepo(client, "test:logs", 10)
	ctx := context.Background()

	_, err := repo.Append(ctx, entry(1, model.StatusSuccess, model.MessageProductAdded))
	require.NoError(t, err)
	require.NoError(t, repo.Drop(ctx))

	assert.False(t, s.Exists("test:logs"))
	assert.False(t, s.Exists("test:logs:seq"))
	logs, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestRedisAuditRepo_AppendFailsWhenServerDown(t *testing.T) {
	client, s := newTestRedis(t)
	repo := NewRedisAuditRepo(client, "test:logs", 10)
	s.Close()

	_, err := repo.Append(context.Background(), entry(1, model.StatusSuccess, model.MessageProductAdded))
	assert.Error(t, err)
}

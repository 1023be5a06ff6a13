package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCache_GetHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()
	cache := NewEventCache(db, 30*time.Second)

	ev := generalEvent("ev1", 3)
	data, _ := json.Marshal(ev)
	mock.ExpectGet("event:cache:ev1").SetVal(string(data))

	got, ok := cache.Get(context.Background(), "ev1")
	require.True(t, ok)
	assert.Equal(t, "ev1", got.ID)
	assert.Equal(t, 3, got.Roster.Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCache_GetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()
	cache := NewEventCache(db, 30*time.Second)

	mock.ExpectGet("event:cache:ev1").RedisNil()

	_, ok := cache.Get(context.Background(), "ev1")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCache_GetCorruptEntry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()
	cache := NewEventCache(db, 30*time.Second)

	mock.ExpectGet("event:cache:ev1").SetVal("{not json")

	_, ok := cache.Get(context.Background(), "ev1")
	assert.False(t, ok, "a corrupt entry reads as a miss")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCache_SetAndInvalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()
	cache := NewEventCache(db, 30*time.Second)
	ctx := context.Background()

	ev := generalEvent("ev1", 3)
	data, _ := json.Marshal(ev)
	mock.ExpectSet("event:cache:ev1", data, 30*time.Second).SetVal("OK")
	cache.Set(ctx, ev)

	mock.ExpectDel("event:cache:ev1").SetVal(1)
	cache.Invalidate(ctx, "ev1")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresenceService_Heartbeat(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()
	svc := NewPresenceService(db, time.Minute)

	mock.Regexp().ExpectSet("presence:online:20231234", `\d+`, time.Minute).SetVal("OK")

	err := svc.Heartbeat(context.Background(), "20231234")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresenceService_Offline(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()
	svc := NewPresenceService(db, time.Minute)

	mock.ExpectDel("presence:online:20231234").SetVal(1)

	err := svc.Offline(context.Background(), "20231234")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresenceService_Online(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()
	svc := NewPresenceService(db, time.Minute)

	mock.ExpectKeys("presence:online:*").SetVal([]string{
		"presence:online:20231234",
		"presence:online:20219876",
	})

	ids, err := svc.Online(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"20231234", "20219876"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

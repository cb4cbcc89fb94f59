package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blogcloud/internal/domain"
	"blogcloud/internal/store"
)

func newTagServiceWithCache(t *testing.T) (*TagService, *fakeTagsRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &fakeTagsRepo{
		active: []*domain.Tag{
			{ID: 1, Name: "Go", Count: 60, Size: domain.TagSizeLarge, Color: "#f7df1e", Category: "programming", IsActive: true},
			{ID: 2, Name: "Redis", Count: 12, Size: domain.TagSizeSmall, Color: "#4479a1", Category: "database", IsActive: true},
		},
	}
	svc := NewTagService(repo, store.NewRedisKV(client), zap.NewNop())
	return svc, repo, mr
}

func TestActiveTagCloud_CacheMissThenHit(t *testing.T) {
	svc, repo, mr := newTagServiceWithCache(t)
	ctx := context.Background()

	// miss：回源数据库并写缓存
	tags, err := svc.ActiveTagCloud(ctx, 100)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, 1, repo.listActiveCalls)
	assert.True(t, mr.Exists("blogcloud:tagcloud:active"))

	// hit：不再访问数据库
	tags, err = svc.ActiveTagCloud(ctx, 100)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Go", tags[0].Name)
	assert.Equal(t, 1, repo.listActiveCalls)
}

func TestActiveTagCloud_CorruptCacheFallsBack(t *testing.T) {
	svc, repo, mr := newTagServiceWithCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("blogcloud:tagcloud:active", "not json"))

	tags, err := svc.ActiveTagCloud(ctx, 100)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, 1, repo.listActiveCalls)
}

func TestActiveTagCloud_CacheExpires(t *testing.T) {
	svc, repo, mr := newTagServiceWithCache(t)
	ctx := context.Background()

	_, err := svc.ActiveTagCloud(ctx, 100)
	require.NoError(t, err)

	mr.FastForward(activeTagCloudCacheTTL + time.Second)

	_, err = svc.ActiveTagCloud(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listActiveCalls)
}

func TestCreateTag_InvalidatesCache(t *testing.T) {
	svc, _, mr := newTagServiceWithCache(t)
	ctx := context.Background()

	_, err := svc.ActiveTagCloud(ctx, 100)
	require.NoError(t, err)
	require.True(t, mr.Exists("blogcloud:tagcloud:active"))

	_, err = svc.CreateTag(ctx, CreateTagRequest{Name: "Kafka", Count: 5, Category: "tools"})
	require.NoError(t, err)

	assert.False(t, mr.Exists("blogcloud:tagcloud:active"))
}

func TestCreateTag_Validation(t *testing.T) {
	svc, _, _ := newTagServiceWithCache(t)
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, CreateTagRequest{Name: ""})
	assert.True(t, IsValidationError(err))

	_, err = svc.CreateTag(ctx, CreateTagRequest{Name: "x", Count: -1})
	assert.True(t, IsValidationError(err))

	// count为0取1，category为空取general
	tag, err := svc.CreateTag(ctx, CreateTagRequest{Name: "Zig"})
	require.NoError(t, err)
	assert.Equal(t, 1, tag.Count)
	assert.Equal(t, "general", tag.Category)
}

func TestUpdateTag_Validation(t *testing.T) {
	svc, _, _ := newTagServiceWithCache(t)
	ctx := context.Background()

	blank := " "
	_, err := svc.UpdateTag(ctx, 1, UpdateTagRequest{Name: &blank})
	assert.True(t, IsValidationError(err))

	negative := -5
	_, err = svc.UpdateTag(ctx, 1, UpdateTagRequest{Count: &negative})
	assert.True(t, IsValidationError(err))
}

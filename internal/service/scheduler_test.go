package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blogcloud/internal/config"
	"blogcloud/internal/domain"
)

func newSchedulerFixture(t *testing.T, handler http.HandlerFunc) (*SchedulerLoop, *ScheduleService, *fakeTagsRepo) {
	t.Helper()

	svc, repo, _ := newTestService(t, handler)
	scheduler := NewSchedulerLoop(svc, svc.schedule, zap.NewNop())
	return scheduler, svc.schedule, repo
}

func TestSchedulerTick_NotDueYet(t *testing.T) {
	scheduler, schedule, repo := newSchedulerFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("AI should not be called before next_run_time")
	})

	ctx := context.Background()
	require.NoError(t, schedule.Seed(ctx))

	cfg, err := schedule.Get(ctx)
	require.NoError(t, err)

	scheduler.tick(ctx, cfg.NextRunTime.Add(-time.Minute))

	_, _, history := repo.snapshot()
	assert.Empty(t, history)
}

func TestSchedulerTick_RunsWhenDueAndAdvances(t *testing.T) {
	scheduler, schedule, repo := newSchedulerFixture(t, func(w http.ResponseWriter, r *http.Request) {
		serveChat(w, `[{"name":"Go","count":30,"category":"programming"}]`)
	})

	ctx := context.Background()
	require.NoError(t, schedule.Seed(ctx))

	cfg, err := schedule.Get(ctx)
	require.NoError(t, err)

	now := cfg.NextRunTime.Add(time.Second)
	scheduler.tick(ctx, now)

	merge, _, history := repo.snapshot()
	assert.Equal(t, 1, merge)
	require.Len(t, history, 1)
	assert.Equal(t, "ai_scheduled", history[0].Source)
	assert.Equal(t, domain.FetchStatusSuccess, history[0].Status)

	// next_run_time必须推进到now之后
	after, err := schedule.Get(ctx)
	require.NoError(t, err)
	assert.True(t, after.NextRunTime.After(now))
}

func TestSchedulerTick_FetchErrorStillAdvances(t *testing.T) {
	scheduler, schedule, repo := newSchedulerFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx := context.Background()
	require.NoError(t, schedule.Seed(ctx))

	cfg, err := schedule.Get(ctx)
	require.NoError(t, err)

	now := cfg.NextRunTime.Add(time.Second)
	scheduler.tick(ctx, now)

	// 失败记入历史，next_run_time照常推进（避免每分钟重试）
	_, _, history := repo.snapshot()
	require.Len(t, history, 1)
	assert.Equal(t, domain.FetchStatusFailed, history[0].Status)

	after, err := schedule.Get(ctx)
	require.NoError(t, err)
	assert.True(t, after.NextRunTime.After(now))
}

func TestSchedulerStop_AllowsInFlightFetchToComplete(t *testing.T) {
	release := make(chan struct{})
	scheduler, schedule, repo := newSchedulerFixture(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		serveChat(w, `[{"name":"Go","count":30,"category":"programming"}]`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, schedule.Seed(ctx))

	cfg, err := schedule.Get(ctx)
	require.NoError(t, err)

	tickDone := make(chan struct{})
	go func() {
		scheduler.tick(ctx, cfg.NextRunTime.Add(time.Second))
		close(tickDone)
	}()

	require.Eventually(t, scheduler.tagCloud.Running, time.Second, 5*time.Millisecond)

	// 循环context被取消（Stop路径），进行中的获取照常跑完
	cancel()
	close(release)
	<-tickDone

	merge, _, history := repo.snapshot()
	assert.Equal(t, 1, merge)
	require.Len(t, history, 1)
	assert.Equal(t, domain.FetchStatusSuccess, history[0].Status)
}

func TestSchedulerStartStop(t *testing.T) {
	scheduler, _, _ := newSchedulerFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	ctx := context.Background()
	assert.False(t, scheduler.Running())

	scheduler.Start(ctx)
	assert.True(t, scheduler.Running())

	// 重复Start只告警，不重启
	scheduler.Start(ctx)
	assert.True(t, scheduler.Running())

	scheduler.Stop()
	assert.False(t, scheduler.Running())

	// Stop后可重新Start
	scheduler.Start(ctx)
	assert.True(t, scheduler.Running())
	scheduler.Stop()
}

func TestScheduleService_UpdatePersistsAndRecomputes(t *testing.T) {
	logger := zap.NewNop()
	settings := newFakeSettingsRepo()
	svc := NewScheduleService(settings, config.ScheduleDefaults{
		Frequency: "daily", Time: "02:00", Day: "monday",
	}, logger)

	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx))

	freq := "weekly"
	day := "friday"
	tod := "08:30"
	cfg, err := svc.Update(ctx, UpdateScheduleRequest{Frequency: &freq, Day: &day, Time: &tod})
	require.NoError(t, err)
	assert.Equal(t, domain.FrequencyWeekly, cfg.Frequency)
	assert.Equal(t, "friday", cfg.Day)
	assert.Equal(t, time.Friday, cfg.NextRunTime.Weekday())
	assert.True(t, cfg.NextRunTime.After(time.Now()))

	// 重新读取：配置已持久化
	reloaded, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.Frequency, reloaded.Frequency)
	assert.Equal(t, cfg.Time, reloaded.Time)
	assert.Equal(t, cfg.Day, reloaded.Day)
}

func TestScheduleService_ResolvedRecomputesLapsedNextRun(t *testing.T) {
	settings := newFakeSettingsRepo()
	svc := NewScheduleService(settings, config.ScheduleDefaults{
		Frequency: "daily", Time: "02:00", Day: "monday",
	}, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx))

	stale := time.Now().Add(-48 * time.Hour).Format(time.RFC3339)
	require.NoError(t, settings.Upsert(ctx, settingCategorySchedule, keyNextRunTime, stale, domain.SettingTypeString))

	// Get保留过期原值：tick据此判定到期
	raw, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, raw.NextRunTime.Before(time.Now()))

	// Resolved面向展示：重算到未来，但不回写
	resolved, err := svc.Resolved(ctx)
	require.NoError(t, err)
	assert.True(t, resolved.NextRunTime.After(time.Now()))

	rawAgain, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, raw.NextRunTime, rawAgain.NextRunTime)
}

func TestScheduleService_UpdateRejectsInvalid(t *testing.T) {
	logger := zap.NewNop()
	svc := NewScheduleService(newFakeSettingsRepo(), config.ScheduleDefaults{
		Frequency: "daily", Time: "02:00", Day: "monday",
	}, logger)

	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx))

	bad := "monthly"
	_, err := svc.Update(ctx, UpdateScheduleRequest{Frequency: &bad})
	assert.True(t, IsValidationError(err))

	badTime := "7am"
	_, err = svc.Update(ctx, UpdateScheduleRequest{Time: &badTime})
	assert.True(t, IsValidationError(err))

	badDay := "funday"
	_, err = svc.Update(ctx, UpdateScheduleRequest{Day: &badDay})
	assert.True(t, IsValidationError(err))
}

func TestScheduleService_UpdateAI(t *testing.T) {
	logger := zap.NewNop()
	svc := NewScheduleService(newFakeSettingsRepo(), config.ScheduleDefaults{
		Frequency: "daily", Time: "02:00", Day: "monday",
	}, logger)

	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx))

	template := "List tags about %s as a JSON array."
	cfg, err := svc.UpdateAI(ctx, UpdateAIRequest{
		SearchKeywords: []string{"go", "redis"},
		PromptTemplate: &template,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "redis"}, cfg.SearchKeywords)
	assert.Equal(t, template, cfg.PromptTemplate)

	reloaded, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "redis"}, reloaded.SearchKeywords)

	// 11个关键词拒绝
	many := make([]string, 11)
	for i := range many {
		many[i] = "kw"
	}
	_, err = svc.UpdateAI(ctx, UpdateAIRequest{SearchKeywords: many})
	assert.True(t, IsValidationError(err))
}

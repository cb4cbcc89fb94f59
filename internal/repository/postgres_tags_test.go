package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogcloud/internal/domain"
)

func setupMockTagsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresTagsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresTagsRepository(db)
	return db, mock, repo
}

func tagRow(id int64, name string, count int, category, source string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "count", "size", "color", "category", "source",
		"is_active", "last_fetched_at", "created_at", "updated_at",
	}).AddRow(
		id, name, count, domain.SizeForCount(count), domain.ColorForCategory(category),
		category, source, active, nil, now, now,
	)
}

// ============================================
// 查询
// ============================================

func TestGetTagByName_Success(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("Go").
		WillReturnRows(tagRow(1, "Go", 60, "programming", domain.TagSourceAuto, true))

	tag, err := repo.GetTagByName(context.Background(), "Go")

	require.NoError(t, err)
	assert.Equal(t, int64(1), tag.ID)
	assert.Equal(t, "Go", tag.Name)
	assert.Equal(t, domain.TagSizeLarge, tag.Size)
	assert.Equal(t, "#f7df1e", tag.Color)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTagByName_NotFound(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("Nope").
		WillReturnError(sql.ErrNoRows)

	tag, err := repo.GetTagByName(context.Background(), "Nope")

	assert.Error(t, err)
	assert.Nil(t, tag)
	assert.Contains(t, err.Error(), "not found")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTags_WithFilter(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	active := true
	filter := TagsFilter{Category: "database", IsActive: &active}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tag_cloud`).
		WithArgs("database", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(`SELECT .+ FROM tag_cloud .+ ORDER BY count DESC`).
		WithArgs("database", true, 20, 0).
		WillReturnRows(tagRow(3, "Redis", 12, "database", domain.TagSourceAuto, true))

	tags, total, err := repo.ListTags(context.Background(), filter, 1, 20)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, tags, 1)
	assert.Equal(t, "Redis", tags[0].Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 手动维护
// ============================================

func TestCreateManualTag_DerivesSizeColorSource(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	// size/color由count/category派生，source强制manual
	mock.ExpectQuery(`INSERT INTO tag_cloud`).
		WithArgs("Postgres", 25, domain.TagSizeMedium, "#4479a1", "database",
			domain.TagSourceManual, true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	tag, err := repo.CreateManualTag(context.Background(), &domain.Tag{
		Name:     "Postgres",
		Count:    25,
		Category: "database",
		IsActive: true,
		// 调用方传入的派生字段会被覆盖
		Size:   "large",
		Color:  "#000000",
		Source: "auto",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), tag.ID)
	assert.Equal(t, domain.TagSizeMedium, tag.Size)
	assert.Equal(t, "#4479a1", tag.Color)
	assert.Equal(t, domain.TagSourceManual, tag.Source)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateManualTag_Validation(t *testing.T) {
	db, _, repo := setupMockTagsDB(t)
	defer db.Close()

	_, err := repo.CreateManualTag(context.Background(), &domain.Tag{Name: ""})
	assert.Error(t, err)

	_, err = repo.CreateManualTag(context.Background(), &domain.Tag{Name: "x", Count: -1})
	assert.Error(t, err)
}

func TestUpdateManualTag_CountRederivesSize(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	count := 55
	mock.ExpectQuery(`UPDATE tag_cloud SET`).
		WithArgs(55, domain.TagSizeLarge, sqlmock.AnyArg(), int64(3)).
		WillReturnRows(tagRow(3, "Redis", 55, "database", domain.TagSourceManual, true))

	tag, err := repo.UpdateManualTag(context.Background(), 3, TagPatch{Count: &count})

	require.NoError(t, err)
	assert.Equal(t, 55, tag.Count)
	assert.Equal(t, domain.TagSizeLarge, tag.Size)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTag_NotFound(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM tag_cloud`).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteTag(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleTagActive(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE tag_cloud SET is_active = NOT is_active`).
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnRows(tagRow(3, "Redis", 12, "database", domain.TagSourceAuto, false))

	tag, err := repo.ToggleTagActive(context.Background(), 3)

	require.NoError(t, err)
	assert.False(t, tag.IsActive)

	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 管道reconcile
// ============================================

func TestUpsertMerge_InsertAndUpdate(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	now := time.Now().UTC()
	entries := []TagEntry{
		{Name: "Go", Count: 60, Category: "programming"},
		{Name: "Redis", Count: 10, Category: "database"},
	}

	mock.ExpectBegin()

	// Go不存在：插入auto标签
	mock.ExpectQuery(`SELECT count FROM tag_cloud`).
		WithArgs("Go").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO tag_cloud`).
		WithArgs("Go", 60, domain.TagSizeLarge, "#f7df1e", "programming", domain.TagSourceAuto, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Redis已存在count=30：合并取max(30,10)=30
	mock.ExpectQuery(`SELECT count FROM tag_cloud`).
		WithArgs("Redis").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(30))
	mock.ExpectExec(`UPDATE tag_cloud`).
		WithArgs("Redis", 30, domain.TagSizeMedium, "#4479a1", domain.TagSourceAuto, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	created, updated, err := repo.UpsertMerge(context.Background(), entries, now)

	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, updated)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertMerge_RollsBackOnError(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count FROM tag_cloud`).
		WithArgs("Go").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, _, err := repo.UpsertMerge(context.Background(), []TagEntry{{Name: "Go", Count: 5}}, now)
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAuto_ClearsThenInserts(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	now := time.Now().UTC()
	entries := []TagEntry{{Name: "Vue", Count: 25, Category: "frontend"}}

	mock.ExpectBegin()
	// manual行不触碰：只删auto/trending
	mock.ExpectExec(`DELETE FROM tag_cloud WHERE source IN`).
		WithArgs(domain.TagSourceAuto, domain.TagSourceTrending).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectQuery(`SELECT count FROM tag_cloud WHERE name`).
		WithArgs("Vue").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO tag_cloud`).
		WithArgs("Vue", 25, domain.TagSizeMedium, "#4fc08d", "frontend", domain.TagSourceAuto, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	created, updated, err := repo.ReplaceAuto(context.Background(), entries, now)

	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, updated)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAuto_ManualNameCollisionUpdatesInPlace(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	now := time.Now().UTC()
	// "Go"与存活的manual行重名，批内"Vue"出现两次
	entries := []TagEntry{
		{Name: "Go", Count: 40, Category: "programming"},
		{Name: "Vue", Count: 25, Category: "frontend"},
		{Name: "Vue", Count: 30, Category: "frontend"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tag_cloud WHERE source IN`).
		WithArgs(domain.TagSourceAuto, domain.TagSourceTrending).
		WillReturnResult(sqlmock.NewResult(0, 2))

	// manual存活行：name唯一约束下不插入，原地更新count=max(旧,新)
	mock.ExpectQuery(`SELECT count FROM tag_cloud WHERE name`).
		WithArgs("Go").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(70))
	mock.ExpectExec(`UPDATE tag_cloud`).
		WithArgs("Go", 70, domain.TagSizeLarge, "#f7df1e", domain.TagSourceAuto, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// 批内首次出现：插入
	mock.ExpectQuery(`SELECT count FROM tag_cloud WHERE name`).
		WithArgs("Vue").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO tag_cloud`).
		WithArgs("Vue", 25, domain.TagSizeMedium, "#4fc08d", "frontend", domain.TagSourceAuto, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// 批内重复出现：命中刚插入的行，走更新
	mock.ExpectQuery(`SELECT count FROM tag_cloud WHERE name`).
		WithArgs("Vue").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectExec(`UPDATE tag_cloud`).
		WithArgs("Vue", 30, domain.TagSizeMedium, "#4fc08d", domain.TagSourceAuto, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	created, updated, err := repo.ReplaceAuto(context.Background(), entries, now)

	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 2, updated)

	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 获取历史
// ============================================

func TestAppendFetchHistory(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	rec := &domain.FetchHistory{
		FetchDate:   time.Now().UTC(),
		Source:      "ai_manual",
		TotalTags:   10,
		NewTags:     4,
		UpdatedTags: 6,
		Status:      domain.FetchStatusSuccess,
	}

	mock.ExpectQuery(`INSERT INTO tag_cloud_fetch_history`).
		WithArgs(rec.FetchDate, rec.Source, 10, 4, 6, rec.Status, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	err := repo.AppendFetchHistory(context.Background(), rec)

	require.NoError(t, err)
	assert.Equal(t, int64(42), rec.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendFetchHistory_RequiresStatus(t *testing.T) {
	db, _, repo := setupMockTagsDB(t)
	defer db.Close()

	err := repo.AppendFetchHistory(context.Background(), &domain.FetchHistory{Source: "ai_manual"})
	assert.Error(t, err)
}

func TestListFetchHistory(t *testing.T) {
	db, mock, repo := setupMockTagsDB(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "fetch_date", "source", "total_tags", "new_tags", "updated_tags",
		"status", "error_message", "created_at",
	}).
		AddRow(2, now, "ai_scheduled", 8, 2, 6, domain.FetchStatusSuccess, nil, now).
		AddRow(1, now.Add(-time.Hour), "ai_manual", 0, 0, 0, domain.FetchStatusFailed, "upstream error", now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT .+ FROM tag_cloud_fetch_history`).
		WithArgs(30).
		WillReturnRows(rows)

	records, err := repo.ListFetchHistory(context.Background(), 30)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), records[0].ID)
	assert.Equal(t, domain.FetchStatusFailed, records[1].Status)
	require.NotNil(t, records[1].ErrorMessage)

	require.NoError(t, mock.ExpectationsWereMet())
}

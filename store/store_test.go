package store

import (
	"context"
	"testing"
	"time"

	"github.com/communitykit/scrub/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestDiscussionStoreVerdictRoundtrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	db := testDB(t)
	require.NoError(db.Create(&Discussion{
		DiscussionID: "d1",
		Data:         `{"createdBy":"u1","communityId":"c1","title":"hello"}`,
		IsActive:     true,
		CreatedOn:    time.Now(),
	}).Error)

	var stats moderation.OpStats
	s := NewDiscussionStore(db, &stats)

	raw := []byte(`{"response_data":{"response":{"isProfane":true}}}`)
	require.NoError(s.UpdateVerdict(ctx, "d1", raw, true))

	rec, err := s.Get(ctx, "d1")
	require.NoError(err)
	assert.Equal("d1", rec.ID)
	assert.True(rec.IsActive)
	assert.True(rec.IsProfane)
	assert.Equal("u1", rec.CreatedBy())
	assert.Equal("c1", rec.CommunityID())

	var row Discussion
	require.NoError(db.First(&row, "discussion_id = ?", "d1").Error)
	assert.JSONEq(string(raw), row.ModerationVerdict)

	count, _ := stats.Snapshot()
	assert.Equal(int64(2), count)
}

func TestDiscussionStoreMarkCheckStatus(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	db := testDB(t)
	require.NoError(db.Create(&Discussion{
		DiscussionID: "d2",
		Data:         `{"createdBy":"u1","communityId":"c1"}`,
		IsActive:     true,
		IsProfane:    true,
	}).Error)

	s := NewDiscussionStore(db, nil)
	require.NoError(s.MarkCheckStatus(ctx, "d2", moderation.CheckStatusLanguageNotDetected, false))

	var row Discussion
	require.NoError(db.First(&row, "discussion_id = ?", "d2").Error)
	assert.Equal(moderation.CheckStatusLanguageNotDetected, row.CheckStatus)
	assert.False(row.IsProfane)
}

func TestStoresAreIndependent(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	db := testDB(t)
	require.NoError(db.Create(&Discussion{DiscussionID: "same-id", Data: `{}`, IsActive: true}).Error)
	require.NoError(db.Create(&AnswerPostReply{DiscussionID: "same-id", Data: `{}`, IsActive: true}).Error)

	replies := NewReplyStore(db, nil)
	require.NoError(replies.UpdateVerdict(ctx, "same-id", []byte(`{"v":1}`), true))

	var disc Discussion
	require.NoError(db.First(&disc, "discussion_id = ?", "same-id").Error)
	assert.False(disc.IsProfane)
	assert.Empty(disc.ModerationVerdict)

	var reply AnswerPostReply
	require.NoError(db.First(&reply, "discussion_id = ?", "same-id").Error)
	assert.True(reply.IsProfane)
}

func TestGetNotFound(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	db := testDB(t)
	s := NewReplyStore(db, nil)
	rec, err := s.Get(ctx, "missing")
	assert.Nil(rec)
	assert.ErrorIs(err, moderation.ErrNotFound)
}

func TestUpdateVerdictLastWriteWins(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	db := testDB(t)
	require.NoError(db.Create(&Discussion{DiscussionID: "d3", Data: `{}`, IsActive: true}).Error)

	s := NewDiscussionStore(db, nil)
	require.NoError(s.UpdateVerdict(ctx, "d3", []byte(`{"v":1}`), true))
	require.NoError(s.UpdateVerdict(ctx, "d3", []byte(`{"v":2}`), false))

	var row Discussion
	require.NoError(db.First(&row, "discussion_id = ?", "d3").Error)
	assert.JSONEq(`{"v":2}`, row.ModerationVerdict)
	assert.False(row.IsProfane)
}

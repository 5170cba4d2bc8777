// Package store persists the two content-shaped records: top-level
// discussions (questions and answer posts) and answer-post replies. The two
// tables have the same columns but are physically separate; each gets its
// own RecordStore adapter.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/communitykit/scrub/moderation"

	"gorm.io/gorm"
)

type Discussion struct {
	DiscussionID      string `gorm:"column:discussion_id;primaryKey"`
	Data              string `gorm:"type:text"`
	IsActive          bool   `gorm:"column:is_active;default:true"`
	IsProfane         bool   `gorm:"column:is_profane"`
	ModerationVerdict string `gorm:"column:moderation_verdict;type:text"`
	CheckStatus       string `gorm:"column:check_status"`
	CreatedOn         time.Time
	UpdatedOn         time.Time `gorm:"autoUpdateTime"`
}

func (Discussion) TableName() string { return "discussions" }

type AnswerPostReply struct {
	DiscussionID      string `gorm:"column:discussion_id;primaryKey"`
	Data              string `gorm:"type:text"`
	IsActive          bool   `gorm:"column:is_active;default:true"`
	IsProfane         bool   `gorm:"column:is_profane"`
	ModerationVerdict string `gorm:"column:moderation_verdict;type:text"`
	CheckStatus       string `gorm:"column:check_status"`
	CreatedOn         time.Time
	UpdatedOn         time.Time `gorm:"autoUpdateTime"`
}

func (AnswerPostReply) TableName() string { return "discussion_answer_post_replies" }

// Migrate creates or updates both content tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Discussion{}, &AnswerPostReply{})
}

// DiscussionStore is the discussion-shaped record store.
type DiscussionStore struct {
	db    *gorm.DB
	stats *moderation.OpStats
}

var _ moderation.RecordStore = (*DiscussionStore)(nil)

func NewDiscussionStore(db *gorm.DB, stats *moderation.OpStats) *DiscussionStore {
	return &DiscussionStore{db: db, stats: stats}
}

func (s *DiscussionStore) UpdateVerdict(ctx context.Context, id string, rawVerdict []byte, isProfane bool) error {
	defer track(s.stats)()
	return s.db.WithContext(ctx).Model(&Discussion{}).
		Where("discussion_id = ?", id).
		Updates(map[string]any{"moderation_verdict": string(rawVerdict), "is_profane": isProfane}).Error
}

func (s *DiscussionStore) MarkCheckStatus(ctx context.Context, id, status string, isProfane bool) error {
	defer track(s.stats)()
	return s.db.WithContext(ctx).Model(&Discussion{}).
		Where("discussion_id = ?", id).
		Updates(map[string]any{"check_status": status, "is_profane": isProfane}).Error
}

func (s *DiscussionStore) Get(ctx context.Context, id string) (*moderation.ContentRecord, error) {
	defer track(s.stats)()
	var row Discussion
	err := s.db.WithContext(ctx).First(&row, "discussion_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, moderation.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toRecord(row.DiscussionID, row.Data, row.IsActive, row.IsProfane)
}

// ReplyStore is the reply-shaped record store.
type ReplyStore struct {
	db    *gorm.DB
	stats *moderation.OpStats
}

var _ moderation.RecordStore = (*ReplyStore)(nil)

func NewReplyStore(db *gorm.DB, stats *moderation.OpStats) *ReplyStore {
	return &ReplyStore{db: db, stats: stats}
}

func (s *ReplyStore) UpdateVerdict(ctx context.Context, id string, rawVerdict []byte, isProfane bool) error {
	defer track(s.stats)()
	return s.db.WithContext(ctx).Model(&AnswerPostReply{}).
		Where("discussion_id = ?", id).
		Updates(map[string]any{"moderation_verdict": string(rawVerdict), "is_profane": isProfane}).Error
}

func (s *ReplyStore) MarkCheckStatus(ctx context.Context, id, status string, isProfane bool) error {
	defer track(s.stats)()
	return s.db.WithContext(ctx).Model(&AnswerPostReply{}).
		Where("discussion_id = ?", id).
		Updates(map[string]any{"check_status": status, "is_profane": isProfane}).Error
}

func (s *ReplyStore) Get(ctx context.Context, id string) (*moderation.ContentRecord, error) {
	defer track(s.stats)()
	var row AnswerPostReply
	err := s.db.WithContext(ctx).First(&row, "discussion_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, moderation.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toRecord(row.DiscussionID, row.Data, row.IsActive, row.IsProfane)
}

func toRecord(id, data string, isActive, isProfane bool) (*moderation.ContentRecord, error) {
	doc := map[string]any{}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, err
		}
	}
	return &moderation.ContentRecord{
		ID:        id,
		IsActive:  isActive,
		IsProfane: isProfane,
		Data:      doc,
	}, nil
}

func track(stats *moderation.OpStats) func() {
	if stats == nil {
		return func() {}
	}
	start := time.Now()
	return func() { stats.Record(time.Since(start)) }
}

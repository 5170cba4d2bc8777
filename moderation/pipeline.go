package moderation

import (
	"log/slog"
	"os"
)

// Notification constants for the profanity alert.
const (
	AlertTypeProfanityCheck = "profanity_check"
	SeverityAlert           = "alert"
	NotificationTitle       = "Your post was flagged by content moderation"
)

// Feed cache key prefixes. A community's discussion list is cached under
// discussionListCachePrefix+communityID; a user's posts within a community
// under userPostsCachePrefix+communityID+"_"+userID.
const (
	discussionListCachePrefix = "discussion_community_"
	userPostsCachePrefix      = "discussion_user_posts_"
)

// Pipeline wires the two stage handlers to their collaborators. Fields are
// set at construction and not mutated afterwards, so a single Pipeline is
// safe for concurrent use by any number of consumer goroutines.
type Pipeline struct {
	Logger *slog.Logger

	Discussions RecordStore
	Replies     RecordStore
	Search      SearchSync
	Cache       FeedCache
	Users       UserDirectory
	Notifier    Notifier
	Detector    LanguageDetector
	Dispatcher  ProfanityDispatcher
	Fanout      TaskRunner

	// SearchIndex is the index the denormalized documents are upserted into.
	SearchIndex string
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

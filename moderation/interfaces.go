package moderation

import (
	"context"
)

// RecordStore is the contract for one of the two content-shaped persistence
// stores. Updates are single-row, last-write-wins; there is no optimistic
// locking across concurrent verdicts for the same id.
type RecordStore interface {
	// UpdateVerdict persists the raw verdict payload and the profane flag.
	UpdateVerdict(ctx context.Context, id string, rawVerdict []byte, isProfane bool) error
	// MarkCheckStatus records a terminal moderation check status.
	MarkCheckStatus(ctx context.Context, id string, status string, isProfane bool) error
	// Get fetches the record, or ErrNotFound.
	Get(ctx context.Context, id string) (*ContentRecord, error)
}

// SearchSync upserts the denormalized search copy of a content record.
type SearchSync interface {
	Upsert(ctx context.Context, index, id string, fields map[string]any) error
}

// FeedCache evicts cached feed pages and recomputes the first pages of a
// community feed.
type FeedCache interface {
	PurgePrefix(ctx context.Context, prefix string) error
	// RecomputeFirstPages rebuilds the first pages of the community feed.
	// When refreshOnly is true, only pages already cached are rebuilt.
	RecomputeFirstPages(ctx context.Context, communityID string, refreshOnly bool) error
}

// UserDirectory resolves display details for a user id.
type UserDirectory interface {
	FirstName(ctx context.Context, userID string) (string, error)
}

// NotificationRequest is the payload for one user-facing alert.
type NotificationRequest struct {
	AlertType  string         `json:"alertType"`
	Severity   string         `json:"severity"`
	Recipients []string       `json:"recipients"`
	Title      string         `json:"title"`
	TitleParam string         `json:"titleParam"`
	Data       map[string]any `json:"data"`
}

// Notifier delivers alerts to users. Delivery mechanics are external; the
// pipeline only triggers.
type Notifier interface {
	Trigger(ctx context.Context, req NotificationRequest) error
}

// LanguageDetector is the language-detection side of the moderation API. An
// empty language with a nil error means the service answered but could not
// detect a language; both that and a non-nil error take the failure path.
type LanguageDetector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// ProfanityDispatcher sends an annotated content event to the external
// moderation service. Fire-and-forget: the verdict arrives later as an
// independent inbound message.
type ProfanityDispatcher interface {
	DispatchCheck(ctx context.Context, ev *ContentEvent) error
}

// TaskRunner is the detached execution context for verdict side effects.
// Submit may block for backpressure but must not run fn inline on the
// calling goroutine in production implementations.
type TaskRunner interface {
	Submit(ctx context.Context, key string, fn func(context.Context)) error
}

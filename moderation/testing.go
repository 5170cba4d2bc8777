package moderation

import (
	"context"
	"log/slog"
	"sync"
)

// In-memory collaborator fakes for pipeline tests. They record every call so
// tests can assert on exact fan-out behavior.

type VerdictUpdate struct {
	ID        string
	Raw       []byte
	IsProfane bool
}

type StatusUpdate struct {
	ID        string
	Status    string
	IsProfane bool
}

type MemRecordStore struct {
	mu             sync.Mutex
	Records        map[string]*ContentRecord
	VerdictUpdates []VerdictUpdate
	StatusUpdates  []StatusUpdate
	FailUpdates    bool
}

var _ RecordStore = (*MemRecordStore)(nil)

func NewMemRecordStore() *MemRecordStore {
	return &MemRecordStore{Records: make(map[string]*ContentRecord)}
}

func (s *MemRecordStore) UpdateVerdict(ctx context.Context, id string, raw []byte, isProfane bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdates {
		return context.DeadlineExceeded
	}
	s.VerdictUpdates = append(s.VerdictUpdates, VerdictUpdate{ID: id, Raw: raw, IsProfane: isProfane})
	if rec, ok := s.Records[id]; ok {
		rec.IsProfane = isProfane
	}
	return nil
}

func (s *MemRecordStore) MarkCheckStatus(ctx context.Context, id, status string, isProfane bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StatusUpdates = append(s.StatusUpdates, StatusUpdate{ID: id, Status: status, IsProfane: isProfane})
	return nil
}

func (s *MemRecordStore) Get(ctx context.Context, id string) (*ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.Records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

type SearchUpsert struct {
	Index  string
	ID     string
	Fields map[string]any
}

type MemSearchSync struct {
	mu      sync.Mutex
	Upserts []SearchUpsert
}

var _ SearchSync = (*MemSearchSync)(nil)

func (s *MemSearchSync) Upsert(ctx context.Context, index, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Upserts = append(s.Upserts, SearchUpsert{Index: index, ID: id, Fields: fields})
	return nil
}

type RecomputeCall struct {
	CommunityID string
	RefreshOnly bool
}

type MemFeedCache struct {
	mu         sync.Mutex
	Purged     []string
	Recomputed []RecomputeCall
}

var _ FeedCache = (*MemFeedCache)(nil)

func (c *MemFeedCache) PurgePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Purged = append(c.Purged, prefix)
	return nil
}

func (c *MemFeedCache) RecomputeFirstPages(ctx context.Context, communityID string, refreshOnly bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Recomputed = append(c.Recomputed, RecomputeCall{CommunityID: communityID, RefreshOnly: refreshOnly})
	return nil
}

type MemUserDirectory struct {
	Names map[string]string
}

var _ UserDirectory = (*MemUserDirectory)(nil)

func (d *MemUserDirectory) FirstName(ctx context.Context, userID string) (string, error) {
	return d.Names[userID], nil
}

type MemNotifier struct {
	mu        sync.Mutex
	Triggered []NotificationRequest
}

var _ Notifier = (*MemNotifier)(nil)

func (n *MemNotifier) Trigger(ctx context.Context, req NotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Triggered = append(n.Triggered, req)
	return nil
}

// MemDetector returns a scripted language (or error) and records the texts
// it was asked about.
type MemDetector struct {
	Language string
	Err      error
	Texts    []string
}

var _ LanguageDetector = (*MemDetector)(nil)

func (d *MemDetector) DetectLanguage(ctx context.Context, text string) (string, error) {
	d.Texts = append(d.Texts, text)
	return d.Language, d.Err
}

type MemDispatcher struct {
	Dispatched []ContentEvent
}

var _ ProfanityDispatcher = (*MemDispatcher)(nil)

func (d *MemDispatcher) DispatchCheck(ctx context.Context, ev *ContentEvent) error {
	d.Dispatched = append(d.Dispatched, *ev)
	return nil
}

// syncRunner executes tasks inline so tests observe side effects without
// coordination.
type syncRunner struct{}

func (syncRunner) Submit(ctx context.Context, key string, fn func(context.Context)) error {
	fn(ctx)
	return nil
}

// PipelineTestFixture returns a Pipeline with all in-memory collaborators and
// an inline task runner.
func PipelineTestFixture() *Pipeline {
	return &Pipeline{
		Logger:      slog.Default(),
		Discussions: NewMemRecordStore(),
		Replies:     NewMemRecordStore(),
		Search:      &MemSearchSync{},
		Cache:       &MemFeedCache{},
		Users:       &MemUserDirectory{Names: map[string]string{}},
		Notifier:    &MemNotifier{},
		Detector:    &MemDetector{},
		Dispatcher:  &MemDispatcher{},
		Fanout:      syncRunner{},
		SearchIndex: "discussions",
	}
}

package moderation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
)

// HandleVerdict processes one message from the moderation-verdict topic. The
// store update and downstream fan-out run on the detached task pool, so this
// returns (and the broker offset advances) before any of that work happens.
// Like HandleContentEvent, it always returns nil.
func (p *Pipeline) HandleVerdict(ctx context.Context, raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	v, err := ParseVerdict(raw)
	if err != nil {
		p.logger().Error("failed to parse verdict event", "err", err, "payload", string(raw))
		verdictsMalformed.Inc()
		return nil
	}
	verdictsReceived.Inc()

	if err := p.Fanout.Submit(ctx, v.ContentID, func(taskCtx context.Context) {
		p.applyVerdict(taskCtx, v)
	}); err != nil {
		p.logger().Error("failed to submit verdict task", "err", err, "contentId", v.ContentID)
	}
	return nil
}

// applyVerdict persists the verdict to the kind-appropriate store and, on
// success, propagates it outward. Failures here are logged and swallowed;
// the message was already acknowledged.
func (p *Pipeline) applyVerdict(ctx context.Context, v *Verdict) {
	log := p.logger().With("contentId", v.ContentID, "contentType", v.Kind.String(), "isProfane", v.IsProfane)

	switch v.Kind {
	case KindQuestion, KindAnswerPost:
		if err := p.Discussions.UpdateVerdict(ctx, v.ContentID, v.Raw, v.IsProfane); err != nil {
			log.Error("failed to update verdict for discussion", "err", err)
			verdictsFailed.Inc()
			return
		}
		verdictsApplied.Inc()
		log.Info("updated moderation verdict for discussion")
		p.propagateVerdict(ctx, log, p.Discussions, v, true)
	case KindAnswerPostReply:
		if err := p.Replies.UpdateVerdict(ctx, v.ContentID, v.Raw, v.IsProfane); err != nil {
			log.Error("failed to update verdict for answer post reply", "err", err)
			verdictsFailed.Inc()
			return
		}
		verdictsApplied.Inc()
		log.Info("updated moderation verdict for answer post reply")
		p.propagateVerdict(ctx, log, p.Replies, v, false)
	case KindUnknown:
		unknownContentKind.Inc()
		log.Warn("skipping verdict for unknown content type")
	}
}

// propagateVerdict re-fetches the just-updated record and runs the outward
// side effects: search upsert, and for profane content a notification plus
// (discussion-shaped only) feed cache invalidation. The side effects are
// independent; a failure in one is logged and does not stop the others.
func (p *Pipeline) propagateVerdict(ctx context.Context, log *slog.Logger, store RecordStore, v *Verdict, invalidateCaches bool) {
	rec, err := store.Get(ctx, v.ContentID)
	if errors.Is(err, ErrNotFound) {
		log.Warn("record not found for verdict")
		return
	}
	if err != nil {
		log.Error("failed to fetch record for verdict propagation", "err", err)
		return
	}
	if !rec.IsActive {
		log.Info("record inactive, skipping verdict propagation")
		return
	}

	doc := make(map[string]any, len(rec.Data)+1)
	for k, val := range rec.Data {
		doc[k] = val
	}
	doc["isProfane"] = v.IsProfane
	if err := p.Search.Upsert(ctx, p.SearchIndex, rec.ID, doc); err != nil {
		log.Error("search upsert failed", "err", err)
	}

	if !v.IsProfane {
		return
	}

	userID := rec.CreatedBy()
	communityID := rec.CommunityID()

	firstName, err := p.Users.FirstName(ctx, userID)
	if err != nil {
		log.Warn("failed to resolve author first name", "err", err, "userId", userID)
	}
	req := NotificationRequest{
		AlertType:  AlertTypeProfanityCheck,
		Severity:   SeverityAlert,
		Recipients: []string{userID},
		Title:      NotificationTitle,
		TitleParam: firstName,
		Data: map[string]any{
			"communityId":  communityID,
			"discussionId": rec.ID,
			"isProfane":    true,
		},
	}
	if err := p.Notifier.Trigger(ctx, req); err != nil {
		log.Error("notification trigger failed", "err", err, "userId", userID)
	} else {
		notificationsTriggered.Inc()
	}

	if !invalidateCaches {
		return
	}
	if err := p.Cache.PurgePrefix(ctx, discussionListCachePrefix+communityID); err != nil {
		log.Error("failed to purge community discussion cache", "err", err, "communityId", communityID)
	}
	if err := p.Cache.PurgePrefix(ctx, userPostsCachePrefix+communityID+"_"+userID); err != nil {
		log.Error("failed to purge user posts cache", "err", err, "communityId", communityID, "userId", userID)
	}
	if err := p.Cache.RecomputeFirstPages(ctx, communityID, false); err != nil {
		log.Error("failed to recompute feed pages", "err", err, "communityId", communityID)
	}
}

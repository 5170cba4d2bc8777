package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
)

// HandleContentEvent processes one message from the language-detection topic.
// It always returns nil: malformed or empty payloads are dropped and the
// message is considered consumed either way.
//
// The moderation API calls happen synchronously on the calling goroutine;
// throughput scales by consumer concurrency, not by making these calls
// non-blocking.
func (p *Pipeline) HandleContentEvent(ctx context.Context, raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var ev ContentEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		p.logger().Error("failed to parse content event", "err", err, "payload", string(raw))
		contentEventsMalformed.Inc()
		return nil
	}
	contentEventsReceived.Inc()
	log := p.logger().With("contentId", ev.ContentID, "contentType", ev.Type)

	lang, err := p.Detector.DetectLanguage(ctx, ev.Text)
	if err != nil {
		log.Warn("language detection call failed", "err", err)
		lang = ""
	}
	if strings.TrimSpace(lang) == "" {
		log.Warn("no usable language detected")
		languageDetectionFailed.Inc()
		p.markLanguageDetectionFailure(ctx, &ev)
		return nil
	}

	ev.Language = lang
	if err := p.Dispatcher.DispatchCheck(ctx, &ev); err != nil {
		// fire-and-forget: the record stays pending, which is an accepted
		// terminal state
		log.Error("profanity check dispatch failed", "err", err)
		return nil
	}
	profanityChecksDispatched.Inc()
	log.Debug("dispatched content for profanity check", "language", lang)
	return nil
}

func (p *Pipeline) markLanguageDetectionFailure(ctx context.Context, ev *ContentEvent) {
	log := p.logger().With("contentId", ev.ContentID, "contentType", ev.Type)
	switch ev.Kind() {
	case KindQuestion, KindAnswerPost:
		if err := p.Discussions.MarkCheckStatus(ctx, ev.ContentID, CheckStatusLanguageNotDetected, false); err != nil {
			log.Error("failed to mark language detection failure", "err", err)
		}
	case KindAnswerPostReply:
		if err := p.Replies.MarkCheckStatus(ctx, ev.ContentID, CheckStatusLanguageNotDetected, false); err != nil {
			log.Error("failed to mark language detection failure", "err", err)
		}
	case KindUnknown:
		unknownContentKind.Inc()
		log.Warn("skipping language failure update for unknown content type")
	}
}

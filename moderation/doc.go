// Package moderation implements the discussion content moderation pipeline:
// a language-detection stage that annotates inbound content events and
// dispatches them to an external profanity-check service, and a verdict stage
// that applies moderation results to the persisted record and fans out to the
// search index, feed caches, and user notifications.
//
// The two stages are driven by inbound queue messages. Handlers never return
// errors for content-level problems (malformed payloads, unknown content
// types, missing fields); those are logged, counted, and dropped, so the
// message is always considered consumed. Downstream side effects of a verdict
// run on a detached worker pool and are not allowed to delay or fail message
// acknowledgment.
package moderation

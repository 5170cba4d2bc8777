package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageDetectionSuccess(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	p := PipelineTestFixture()
	p.Detector.(*MemDetector).Language = "en"
	dispatcher := p.Dispatcher.(*MemDispatcher)

	msg := []byte(`{"discussionId":"d1","description":"hello there","type":"QUESTION"}`)
	require.NoError(p.HandleContentEvent(ctx, msg))

	require.Len(dispatcher.Dispatched, 1)
	ev := dispatcher.Dispatched[0]
	assert.Equal("d1", ev.ContentID)
	assert.Equal("hello there", ev.Text)
	assert.Equal("en", ev.Language)
	assert.Empty(p.Discussions.(*MemRecordStore).StatusUpdates)
}

func TestLanguageDetectionFailureQuestion(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	p := PipelineTestFixture()
	// detector answers but has no usable language
	p.Detector.(*MemDetector).Language = ""

	msg := []byte(`{"discussionId":"d1","description":"texto","type":"QUESTION"}`)
	require.NoError(p.HandleContentEvent(ctx, msg))

	discussions := p.Discussions.(*MemRecordStore)
	require.Len(discussions.StatusUpdates, 1)
	assert.Equal(StatusUpdate{ID: "d1", Status: CheckStatusLanguageNotDetected, IsProfane: false}, discussions.StatusUpdates[0])
	assert.Empty(p.Replies.(*MemRecordStore).StatusUpdates)
	assert.Empty(p.Dispatcher.(*MemDispatcher).Dispatched)
}

func TestLanguageDetectionFailureReply(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	p := PipelineTestFixture()
	p.Detector.(*MemDetector).Err = context.DeadlineExceeded

	msg := []byte(`{"discussionId":"r9","description":"texto","type":"answerPostReply"}`)
	require.NoError(p.HandleContentEvent(ctx, msg))

	replies := p.Replies.(*MemRecordStore)
	require.Len(replies.StatusUpdates, 1)
	assert.Equal("r9", replies.StatusUpdates[0].ID)
	assert.Equal(CheckStatusLanguageNotDetected, replies.StatusUpdates[0].Status)
	assert.Empty(p.Discussions.(*MemRecordStore).StatusUpdates)
	assert.Empty(p.Dispatcher.(*MemDispatcher).Dispatched)
}

func TestLanguageDetectionFailureUnknownType(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	p := PipelineTestFixture()
	p.Detector.(*MemDetector).Language = ""

	msg := []byte(`{"discussionId":"x1","description":"texto","type":"POLL"}`)
	assert.NoError(p.HandleContentEvent(ctx, msg))

	assert.Empty(p.Discussions.(*MemRecordStore).StatusUpdates)
	assert.Empty(p.Replies.(*MemRecordStore).StatusUpdates)
}

func TestContentEventDropPolicy(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	p := PipelineTestFixture()
	detector := p.Detector.(*MemDetector)

	assert.NoError(p.HandleContentEvent(ctx, nil))
	assert.NoError(p.HandleContentEvent(ctx, []byte("  \t ")))
	assert.NoError(p.HandleContentEvent(ctx, []byte("{{{{")))

	assert.Empty(detector.Texts)
	assert.Empty(p.Dispatcher.(*MemDispatcher).Dispatched)
	assert.Empty(p.Discussions.(*MemRecordStore).StatusUpdates)
}

func TestParseContentKind(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(KindQuestion, ParseContentKind("QUESTION"))
	assert.Equal(KindQuestion, ParseContentKind("question"))
	assert.Equal(KindAnswerPost, ParseContentKind("ANSWER_POST"))
	assert.Equal(KindAnswerPost, ParseContentKind("answerPost"))
	assert.Equal(KindAnswerPostReply, ParseContentKind("ANSWER_POST_REPLY"))
	assert.Equal(KindAnswerPostReply, ParseContentKind("answerPostReply"))
	assert.Equal(KindUnknown, ParseContentKind(""))
	assert.Equal(KindUnknown, ParseContentKind("poll"))
}

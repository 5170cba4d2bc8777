package moderation

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNotFound is returned by RecordStore implementations when no record
// exists for the requested id.
var ErrNotFound = errors.New("record not found")

// ContentKind identifies which of the persisted content shapes an event or
// verdict refers to. Unrecognized type strings map to KindUnknown, which
// every branch site handles as an explicit case.
type ContentKind int

const (
	KindUnknown ContentKind = iota
	KindQuestion
	KindAnswerPost
	KindAnswerPostReply
)

// ParseContentKind matches type strings case-insensitively, with or without
// underscore separators ("ANSWER_POST" and "answerPost" are the same kind).
func ParseContentKind(raw string) ContentKind {
	switch strings.ToLower(strings.ReplaceAll(raw, "_", "")) {
	case "question":
		return KindQuestion
	case "answerpost":
		return KindAnswerPost
	case "answerpostreply":
		return KindAnswerPostReply
	default:
		return KindUnknown
	}
}

func (k ContentKind) String() string {
	switch k {
	case KindQuestion:
		return "question"
	case KindAnswerPost:
		return "answerPost"
	case KindAnswerPostReply:
		return "answerPostReply"
	default:
		return "unknown"
	}
}

// ContentEvent is one inbound message on the language-detection topic. The
// JSON field names are fixed by the upstream submission flow.
type ContentEvent struct {
	ContentID string `json:"discussionId"`
	Text      string `json:"description"`
	Type      string `json:"type"`
	Language  string `json:"language,omitempty"`
}

func (ev *ContentEvent) Kind() ContentKind {
	return ParseContentKind(ev.Type)
}

// Verdict is the parsed form of one inbound moderation-verdict message. Raw
// holds the entire message body verbatim; it is persisted unmodified as the
// audit record.
type Verdict struct {
	ContentID string
	Kind      ContentKind
	IsProfane bool
	Raw       json.RawMessage
}

type verdictEnvelope struct {
	RequestData struct {
		Metadata struct {
			PostID string `json:"post_id"`
			Type   string `json:"type"`
		} `json:"metadata"`
	} `json:"request_data"`
	ResponseData struct {
		Response struct {
			IsProfane json.RawMessage `json:"isProfane"`
		} `json:"response"`
	} `json:"response_data"`
}

// ParseVerdict extracts the fields the pipeline branches on. A missing or
// non-boolean isProfane defaults to false rather than failing the message;
// only an unparseable envelope is an error.
func ParseVerdict(raw []byte) (*Verdict, error) {
	var env verdictEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	isProfane := false
	if len(env.ResponseData.Response.IsProfane) > 0 {
		if err := json.Unmarshal(env.ResponseData.Response.IsProfane, &isProfane); err != nil {
			isProfane = false
		}
	}
	v := &Verdict{
		ContentID: env.RequestData.Metadata.PostID,
		Kind:      ParseContentKind(env.RequestData.Metadata.Type),
		IsProfane: isProfane,
		Raw:       append(json.RawMessage(nil), raw...),
	}
	return v, nil
}

// ContentRecord is the store-agnostic view of a persisted content row that
// the verdict propagation step works with. Data is the record's
// semi-structured document; for active records it contains at least
// createdBy and communityId.
type ContentRecord struct {
	ID        string
	IsActive  bool
	IsProfane bool
	Data      map[string]any
}

// CreatedBy returns the author user id from the record document.
func (r *ContentRecord) CreatedBy() string {
	s, _ := r.Data["createdBy"].(string)
	return s
}

// CommunityID returns the community id from the record document.
func (r *ContentRecord) CommunityID() string {
	s, _ := r.Data["communityId"].(string)
	return s
}

// CheckStatusLanguageNotDetected is the terminal check status written when
// the language-detection call yields no usable language.
const CheckStatusLanguageNotDetected = "LANGUAGE_NOT_DETECTED"

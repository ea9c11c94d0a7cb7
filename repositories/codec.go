package repositories

import (
	"fmt"
	"practice-lab/domain"
	"practice-lab/errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"google.golang.org/protobuf/encoding/protowire"
)

// Stored values use the protobuf wire format so they stay readable by any
// protobuf tooling. Field numbers:
//
//	HistoryRecord { 1 id, 2 practice_id, 3 title, 4 started_at (unix nano),
//	                5 duration (nano), 6 message_count, 7 user_turns,
//	                8 score (absent when unset), 9 lang,
//	                repeated 10 flag }
//	Message       { 1 id, 2 sender, 3 content, 4 created_at (unix nano) }
//	Transcript    { repeated 1 message }
const (
	fieldID protowire.Number = iota + 1
	fieldPracticeID
	fieldTitle
	fieldStartedAt
	fieldDuration
	fieldMessageCount
	fieldUserTurns
	fieldScore
	fieldLang
	fieldFlag
)

const (
	fieldMessageID protowire.Number = iota + 1
	fieldMessageSender
	fieldMessageContent
	fieldMessageCreatedAt
)

const fieldTranscriptMessage protowire.Number = 1

func encodeRecord(r domain.HistoryRecord) []byte {
	var b []byte
	b = appendString(b, fieldID, r.ID.String())
	b = appendString(b, fieldPracticeID, r.PracticeID)
	b = appendString(b, fieldTitle, r.Title)
	b = appendVarint(b, fieldStartedAt, uint64(r.StartedAt.UnixNano()))
	b = appendVarint(b, fieldDuration, uint64(r.Duration))
	b = appendVarint(b, fieldMessageCount, uint64(r.MessageCount))
	b = appendVarint(b, fieldUserTurns, uint64(r.UserTurns))
	if r.Score != nil {
		b = appendVarint(b, fieldScore, uint64(*r.Score))
	}
	b = appendString(b, fieldLang, r.Lang)
	for _, flag := range r.Flags {
		b = appendString(b, fieldFlag, flag)
	}
	return b
}

func decodeRecord(b []byte) (domain.HistoryRecord, error) {
	var r domain.HistoryRecord
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return n, nil
			}
			id, err := uuid.Parse(v)
			if err != nil {
				return 0, err
			}
			r.ID = id
			return n, nil
		case num == fieldPracticeID && typ == protowire.BytesType:
			return consumeString(b, &r.PracticeID)
		case num == fieldTitle && typ == protowire.BytesType:
			return consumeString(b, &r.Title)
		case num == fieldLang && typ == protowire.BytesType:
			return consumeString(b, &r.Lang)
		case num == fieldFlag && typ == protowire.BytesType:
			var flag string
			n, err := consumeString(b, &flag)
			if n >= 0 {
				r.Flags = append(r.Flags, flag)
			}
			return n, err
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return n, nil
			}
			switch num {
			case fieldStartedAt:
				r.StartedAt = time.Unix(0, int64(v)).UTC()
			case fieldDuration:
				r.Duration = time.Duration(v)
			case fieldMessageCount:
				r.MessageCount = int(v)
			case fieldUserTurns:
				r.UserTurns = int(v)
			case fieldScore:
				r.Score = lo.ToPtr(int(v))
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return r, err
}

func encodeTranscript(messages []domain.Message) []byte {
	var b []byte
	for _, m := range messages {
		var mb []byte
		mb = appendString(mb, fieldMessageID, m.ID.String())
		mb = appendVarint(mb, fieldMessageSender, uint64(m.Sender))
		mb = appendString(mb, fieldMessageContent, m.Content)
		mb = appendVarint(mb, fieldMessageCreatedAt, uint64(m.CreatedAt.UnixNano()))
		b = protowire.AppendTag(b, fieldTranscriptMessage, protowire.BytesType)
		b = protowire.AppendBytes(b, mb)
	}
	return b
}

func decodeTranscript(b []byte) ([]domain.Message, error) {
	var messages []domain.Message
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldTranscriptMessage || typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		m, err := decodeMessage(raw)
		if err != nil {
			return 0, err
		}
		messages = append(messages, m)
		return n, nil
	})
	return messages, err
}

func decodeMessage(b []byte) (domain.Message, error) {
	var m domain.Message
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldMessageID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return n, nil
			}
			id, err := uuid.Parse(v)
			if err != nil {
				return 0, err
			}
			m.ID = id
			return n, nil
		case num == fieldMessageContent && typ == protowire.BytesType:
			return consumeString(b, &m.Content)
		case num == fieldMessageSender && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Sender = domain.Sender(v)
			return n, nil
		case num == fieldMessageCreatedAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.CreatedAt = time.Unix(0, int64(v)).UTC()
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return m, err
}

// consumeFields walks every field of b. The visitor returns how many bytes
// of the value it consumed, negative for a wire error.
func consumeFields(b []byte, visit func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", errors.ErrMalformedRecord, protowire.ParseError(n))
		}
		b = b[n:]
		n, err := visit(num, typ, b)
		if err != nil {
			return fmt.Errorf("%w: field %d: %v", errors.ErrMalformedRecord, num, err)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", errors.ErrMalformedRecord, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func consumeString(b []byte, dst *string) (int, error) {
	v, n := protowire.ConsumeString(b)
	if n >= 0 {
		*dst = v
	}
	return n, nil
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

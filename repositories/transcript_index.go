package repositories

import (
	"context"
	"log/slog"
	"practice-lab/domain"
	"strings"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const (
	fieldIndexTitle    = "title"
	fieldIndexContent  = "content"
	fieldIndexPractice = "practice"
)

// TranscriptIndex makes archived conversations searchable by their text.
type TranscriptIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewTranscriptIndex(writer *bluge.Writer, log *slog.Logger) *TranscriptIndex {
	return &TranscriptIndex{writer: writer, log: log}
}

// Index adds or replaces the document of one archived session.
func (t *TranscriptIndex) Index(_ context.Context, record domain.HistoryRecord, transcript []domain.Message) error {
	var content strings.Builder
	content.WriteString(record.Title)
	for _, m := range transcript {
		content.WriteString("\n")
		content.WriteString(m.Content)
	}

	doc := bluge.NewDocument(record.ID.String()).
		AddField(bluge.NewTextField(fieldIndexTitle, record.Title).StoreValue()).
		AddField(bluge.NewTextField(fieldIndexContent, content.String())).
		AddField(bluge.NewKeywordField(fieldIndexPractice, record.PracticeID).StoreValue())

	return t.writer.Update(doc.ID(), doc)
}

// Search returns the best matching sessions, best first.
func (t *TranscriptIndex) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	reader, err := t.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			t.log.Warn("Closing index reader failed", "error", err)
		}
	}()

	request := bluge.NewTopNSearch(limit, bluge.NewMatchQuery(query).SetField(fieldIndexContent))
	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []domain.SearchHit
	match, err := matches.Next()
	for err == nil && match != nil {
		hit := domain.SearchHit{Score: match.Score}
		var parseErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.RecordID, parseErr = uuid.ParseBytes(value)
			case fieldIndexTitle:
				hit.Title = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if parseErr != nil {
			t.log.Warn("Skipping index entry with invalid id", "error", parseErr)
		} else {
			hits = append(hits, hit)
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

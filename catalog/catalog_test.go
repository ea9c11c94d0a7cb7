package catalog

import (
	"practice-lab/domain"
	"practice-lab/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCatalog_Default_Cards(t *testing.T) {
	req := require.New(t)
	cards := Default().Cards()

	req.Len(cards, 2)
	req.Equal("1", cards[0].ID)
	req.Equal(domain.PracticeFast, cards[0].Type)
	req.Equal("AI患者-焦虑症（极速版）", cards[0].Title)
	req.Equal(domain.PracticeDeep, cards[1].Type)
	req.Equal("AI患者-焦虑症（深度思考版）", cards[1].Title)
}

func TestCatalog_Find(t *testing.T) {
	req := require.New(t)
	c := Default()

	practice, err := c.Find("2")
	req.NoError(err)
	req.Equal(practice.Card.Title, practice.Info.Title)
	req.NotEmpty(practice.Info.Goals)

	_, err = c.Find("42")
	req.ErrorIs(err, errors.ErrPracticeNotFound)
}

func TestPractice_Opening_Is_Relative_To_Start(t *testing.T) {
	req := require.New(t)
	practice, err := Default().Find("1")
	req.NoError(err)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	opening := practice.Opening(now)
	again := practice.Opening(now)

	req.Len(opening, 3)
	req.Equal([]domain.Sender{domain.SenderCounterpart, domain.SenderUser, domain.SenderCounterpart},
		[]domain.Sender{opening[0].Sender, opening[1].Sender, opening[2].Sender})
	req.Equal(now.Add(-time.Minute), opening[0].CreatedAt)
	req.Equal(now, opening[2].CreatedAt)
	// Fresh identifiers on every call
	req.NotEqual(opening[0].ID, again[0].ID)
}

func TestSeedHistory_Is_Stable(t *testing.T) {
	req := require.New(t)
	first, second := SeedHistory(), SeedHistory()

	req.Len(first, 3)
	req.Equal(first[0].ID, second[0].ID)
	req.Equal(12, first[0].Minutes())
	req.Equal(88, *first[0].Score)
}

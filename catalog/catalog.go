// Package catalog holds the practices offered by the practice center:
// the cards shown in the list, their briefing and opening conversation.
package catalog

import (
	"practice-lab/domain"
	"practice-lab/errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Practice struct {
	Card    domain.PracticeCard
	Info    domain.SessionInfo
	opening []openingLine
}

type openingLine struct {
	sender  domain.Sender
	content string
	ago     time.Duration
}

// Opening builds the first messages of a session started at now.
// Each call returns fresh message IDs.
func (p Practice) Opening(now time.Time) []domain.Message {
	return lo.Map(p.opening, func(line openingLine, _ int) domain.Message {
		return domain.NewMessage(line.sender, line.content, now.Add(-line.ago))
	})
}

type Catalog struct {
	practices []Practice
}

func New(practices ...Practice) *Catalog {
	return &Catalog{practices: practices}
}

// Default is the catalog shipped with the practice center.
func Default() *Catalog {
	return New(anxietyPractice("1", domain.PracticeFast), anxietyPractice("2", domain.PracticeDeep))
}

func (c *Catalog) Cards() []domain.PracticeCard {
	return lo.Map(c.practices, func(p Practice, _ int) domain.PracticeCard { return p.Card })
}

func (c *Catalog) Find(id string) (Practice, error) {
	p, ok := lo.Find(c.practices, func(p Practice) bool { return p.Card.ID == id })
	if !ok {
		return Practice{}, errors.ErrPracticeNotFound
	}
	return p, nil
}

func anxietyPractice(id string, kind domain.PracticeType) Practice {
	title := "AI患者-焦虑症（" + kind.Label() + "）"
	description := "一位患有焦虑症的AI患者，用于心理咨询师角色扮演练习"
	return Practice{
		Card: domain.PracticeCard{
			ID:          id,
			Title:       title,
			Description: description,
			Type:        kind,
		},
		Info: domain.SessionInfo{
			Title:       title,
			Description: description,
			Background:  "来访者是一位职场新人，最近工作压力较大，感到持续焦虑，希望通过对话了解自己的情绪状态",
			Context:     "职场环境压力较大，每天工作时间较长，对工作任务感到不确定和担忧，晚上难以入睡，影响日常状态，希望学习情绪管理技巧",
			Goals:       "识别焦虑情绪的具体表现，学习有效的情绪调节方法，建立更好的工作和生活平衡",
		},
		opening: []openingLine{
			{domain.SenderCounterpart, "你好，我是木木，我最近感觉自己快被工作压得喘不过气来了，我真的不知道该怎么办了。", time.Minute},
			{domain.SenderUser, "你好，不着急慢慢说", 30 * time.Second},
			{domain.SenderCounterpart, "我是一名小学老师，我一直都很努力地工作，想要做到最好。但是最近我发现，我好像陷入了一个完美主义的漩涡里，怎么也出不来了。", 0},
		},
	}
}

// DeepScript is the reply rotation of the deep-thinking practice.
var DeepScript = []string{
	"嗯……我想了想，其实我最怕的是让学生和家长失望。",
	"每次备课我都会改很多遍，总觉得还不够好，改到半夜也停不下来。",
	"你这么问，我才发现我好像从来没有允许自己犯错。",
	"我不知道该从哪里开始改变，你觉得我可以先试着做些什么？",
}

// RiskTerms are flagged in archived transcripts for supervisor review.
var RiskTerms = []string{
	"自杀",
	"轻生",
	"不想活",
	"伤害自己",
	"结束生命",
	"suicide",
	"self harm",
}

type seedRecord struct {
	title   string
	date    string
	minutes int
	score   int
}

var seedHistory = []seedRecord{
	{"与焦虑症患者对话练习", "2023-10-15", 12, 88},
	{"深度思考版练习记录", "2023-10-10", 25, 92},
	{"首次焦虑症咨询练习", "2023-10-05", 18, 85},
}

// SeedHistory returns the sample records shown before any practice was archived.
// IDs are derived from the content so seeding twice stores nothing new.
func SeedHistory() []domain.HistoryRecord {
	return lo.Map(seedHistory, func(s seedRecord, _ int) domain.HistoryRecord {
		startedAt, _ := time.Parse(time.DateOnly, s.date)
		return domain.HistoryRecord{
			ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(s.date+s.title)),
			Title:     s.title,
			StartedAt: startedAt,
			Duration:  time.Duration(s.minutes) * time.Minute,
			Score:     lo.ToPtr(s.score),
			Lang:      "zh",
		}
	})
}

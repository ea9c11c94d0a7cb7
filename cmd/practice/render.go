package main

import (
	"fmt"
	"io"
	"practice-lab/domain"
	"strconv"
	"sync"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// renderer prints the practice center and the chat to a terminal.
// As a StateSink it only prints what changed since the previous snapshot.
type renderer struct {
	mu      sync.Mutex
	out     io.Writer
	info    domain.SessionInfo
	printed int
	drawer  bool
	waiting bool
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

func (r *renderer) OnStateChange(state domain.SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range state.Messages[min(r.printed, len(state.Messages)):] {
		r.bubble(msg)
	}
	r.printed = max(r.printed, len(state.Messages))

	if state.InfoVisible && !r.drawer {
		r.drawerContent()
	}
	r.drawer = state.InfoVisible

	waiting := state.Phase == domain.PhaseAwaitingReply
	if waiting && !r.waiting {
		fmt.Fprintln(r.out, color.Gray.Sprint("  对方正在输入..."))
	}
	r.waiting = waiting

	if state.Ended {
		fmt.Fprintln(r.out, color.Yellow.Sprint("练习已结束"))
	}
}

func (r *renderer) bubble(msg domain.Message) {
	at := msg.CreatedAt.Local().Format("15:04")
	if msg.FromUser() {
		fmt.Fprintf(r.out, "%s %s\n", color.Gray.Sprint(at), color.Green.Sprintf("我: %s", msg.Content))
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", color.Gray.Sprint(at), color.Cyan.Sprintf("对方: %s", msg.Content))
}

func (r *renderer) drawerContent() {
	fmt.Fprintln(r.out, color.Bold.Sprint("来访者信息"))
	fmt.Fprintln(r.out, r.info.Background)
	fmt.Fprintln(r.out, color.Bold.Sprint("背景资料"))
	fmt.Fprintln(r.out, r.info.Context)
	fmt.Fprintln(r.out, color.Bold.Sprint("咨询目标"))
	fmt.Fprintln(r.out, r.info.Goals)
}

func (r *renderer) header(card domain.PracticeCard, info domain.SessionInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.info = info
	fmt.Fprintln(r.out, color.Bold.Sprint(card.Title))
	fmt.Fprintln(r.out, color.Gray.Sprint(info.Description))
	fmt.Fprintln(r.out, color.Gray.Sprint("/info 查看信息  /close 收起  /history 历史  /search <词> 搜索  /end 结束"))
}

func (r *renderer) center(cards []domain.PracticeCard, records []domain.HistoryRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, color.Bold.Sprint("练习中心"))
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"ID", "Title", "Type", "Description"})
	for _, card := range cards {
		table.Append([]string{card.ID, card.Title, card.Type.Label(), card.Description})
	}
	table.Render()
	r.historyTable(records)
}

func (r *renderer) history(records []domain.HistoryRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.historyTable(records)
}

func (r *renderer) historyTable(records []domain.HistoryRecord) {
	fmt.Fprintln(r.out, color.Bold.Sprint("练习历史"))
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Title", "Date", "Minutes", "Score"})
	for _, rec := range records {
		score := "-"
		if rec.Score != nil {
			score = strconv.Itoa(lo.FromPtr(rec.Score))
		}
		table.Append([]string{rec.Title, rec.StartedAt.Local().Format("2006-01-02"), strconv.Itoa(rec.Minutes()), score})
	}
	table.Render()
}

func (r *renderer) hits(hits []domain.SearchHit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(hits) == 0 {
		fmt.Fprintln(r.out, color.Gray.Sprint("没有找到相关记录"))
		return
	}
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Record", "Title", "Score"})
	for _, hit := range hits {
		table.Append([]string{hit.RecordID.String(), hit.Title, strconv.FormatFloat(hit.Score, 'f', 2, 64)})
	}
	table.Render()
}

func (r *renderer) summary(record domain.HistoryRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %s, %d 条消息, %d 分钟\n",
		color.Yellow.Sprint("已保存"), record.Title, record.MessageCount, record.Minutes())
}

func (r *renderer) failure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, color.Red.Sprintf("error: %v", err))
}

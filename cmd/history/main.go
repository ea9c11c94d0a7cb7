package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"practice-lab/domain"
	"practice-lab/repositories"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer) error {
	transcriptID := flag.String("transcript", "", "print the transcript of this record id")
	flag.Parse()

	// 1. Load config
	_ = godotenv.Load()
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	color.Enable = config.Colours

	// 2. Open Badger in Read-Only mode
	// BypassLockGuard allows opening while a practice session holds the lock
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := repositories.NewHistoryRepository(db, logs.GetLoggerFromString("WARN"))

	if *transcriptID != "" {
		id, err := uuid.Parse(*transcriptID)
		if err != nil {
			return fmt.Errorf("invalid record id %q: %w", *transcriptID, err)
		}
		transcript, err := repo.Transcript(id)
		if err != nil {
			return err
		}
		printTranscript(out, transcript)
		return nil
	}

	records, err := repo.List(config.Limit)
	if err != nil {
		return err
	}
	printRecords(out, records)
	return nil
}

func printRecords(out io.Writer, records []domain.HistoryRecord) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Practice", "Title", "Started", "Min", "Msgs", "Turns", "Score", "Lang", "Flags"})
	for _, r := range records {
		score := "-"
		if r.Score != nil {
			score = strconv.Itoa(*r.Score)
		}
		table.Append([]string{
			r.ID.String(),
			r.PracticeID,
			r.Title,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(r.Minutes()),
			strconv.Itoa(r.MessageCount),
			strconv.Itoa(r.UserTurns),
			score,
			r.Lang,
			strings.Join(r.Flags, ", "),
		})
	}
	table.Render()
	fmt.Fprintf(out, "%d record(s)\n", len(records))
}

func printTranscript(out io.Writer, transcript []domain.Message) {
	for _, msg := range transcript {
		style := color.Cyan
		if msg.FromUser() {
			style = color.Green
		}
		fmt.Fprintf(out, "%s %-11s %s\n",
			color.Gray.Sprint(msg.CreatedAt.Local().Format("15:04:05")),
			style.Sprint(msg.Sender.String()),
			msg.Content)
	}
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"practice-lab/catalog"
	"practice-lab/clock"
	"practice-lab/internal"
	"practice-lab/moderation"
	"practice-lab/repositories"
	"practice-lab/runtime/workers"
	"practice-lab/services"
	"strings"
	"syscall"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, drives one practice session from stdin and
// reports errors to main, so deferred cleanup always happens.
func run() error {
	practiceID := flag.String("practice", "", "id of the practice to start; lists the practice center when empty")
	flag.Parse()

	// 1. Configuration & Logger
	_ = godotenv.Load()
	config, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB archive + Bluge transcript index)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Debug("Closing BadgerDB...")
		_ = db.Close()
	}()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("index opening failed: %w", err)
	}
	defer func() {
		log.Debug("Closing Bluge index...")
		_ = writer.Close()
	}()

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Practice service
	detector, err := moderation.NewDetector(catalog.RiskTerms)
	if err != nil {
		return fmt.Errorf("risk term detector: %w", err)
	}
	service := services.NewPracticeService(
		log,
		clock.NewSystem(),
		catalog.Default(),
		repositories.NewHistoryRepository(db, log),
		repositories.NewTranscriptIndex(writer, log),
		workers.NewSupervisor(log, config.RestartInterval),
		services.Settings{
			ReplyDelay:     config.ReplyDelay,
			CannedReply:    config.CannedReply,
			LoopBufferSize: config.LoopBufferSize,
			Detector:       detector,
		},
	)
	defer service.Close()

	if config.SeedHistory {
		if err := service.SeedHistory(ctx); err != nil {
			return fmt.Errorf("seeding history: %w", err)
		}
	}

	out := newRenderer(os.Stdout)
	history, err := service.History(config.HistoryLimit)
	if err != nil {
		return err
	}
	if *practiceID == "" {
		out.center(service.Practices(), history)
		return nil
	}

	// 5. Session
	session, err := service.Start(ctx, *practiceID, out)
	if err != nil {
		return err
	}
	out.header(session.Card, session.Info())
	state, err := session.State(ctx)
	if err != nil {
		return err
	}
	out.OnStateChange(state)

	lines := readLines(ctx, os.Stdin)
	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
		case line, ok := <-lines:
			if !ok {
				done = true
				break
			}
			done, err = handle(ctx, service, session, out, line, config.HistoryLimit, config.SearchLimit)
			if err != nil {
				out.failure(err)
			}
		}
	}

	// The signal context may already be cancelled here
	record, err := session.End(context.Background())
	if err != nil {
		transcript, _ := session.Transcript()
		return fmt.Errorf("ending practice, %d messages not archived: %w", len(transcript), err)
	}
	out.summary(record)
	return nil
}

// handle applies one input line. It reports true when the session should end.
func handle(ctx context.Context, service *services.PracticeService, session *services.PracticeSession,
	out *renderer, line string, historyLimit, searchLimit int) (bool, error) {
	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch command {
	case "/end":
		return true, nil
	case "/info":
		return false, session.OpenInfo(ctx)
	case "/close":
		return false, session.CloseInfo(ctx)
	case "/keyboard":
		return false, session.ReportKeyboardVisibility(ctx, arg == "on")
	case "/history":
		records, err := service.History(historyLimit)
		if err != nil {
			return false, err
		}
		out.history(records)
		return false, nil
	case "/search":
		hits, err := service.Search(ctx, arg, searchLimit)
		if err != nil {
			return false, err
		}
		out.hits(hits)
		return false, nil
	default:
		return false, session.Send(ctx, line)
	}
}

func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

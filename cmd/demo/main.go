package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"voice-lab/auth"
	"voice-lab/domain"
	apperrors "voice-lab/errors"
	"voice-lab/growth"
	"voice-lab/internal"
	"voice-lab/ledger"
	"voice-lab/observability"
	"voice-lab/repositories"
	"voice-lab/runtime"
	"voice-lab/services"
	"voice-lab/sink"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, walks through a full voice room scenario,
// and centralizes error reporting. This pattern is preferred over calling
// os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Setup Orchestration
	monitor := observability.NewMonitor(log)
	ledgerSim := ledger.NewMemory(log, db, config.GrowthMaxSize())
	orchestrator := runtime.NewOrchestrator(log, ledgerSim, monitor,
		config.BufferSize, config.SinkTimeout, config.MetricInterval)

	archive := repositories.NewMessageArchive(db, log, config.LimitMessages)
	timeline := sink.NewTimeline()
	orchestrator.AddSinks(sink.NewArchiveSink(archive, log), timeline)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator.Start(ctx)
	defer orchestrator.Stop()

	voice := services.NewVoiceService(orchestrator)

	// 5. Accounts
	users := repositories.NewUserRepository(db, log)
	issuer := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(users, issuer, log)

	banner("Accounts")
	if _, err := authService.Register("alice@example.com", "Correct-Horse-42!"); err != nil &&
		!errors.Is(err, apperrors.ErrUserAlreadyExists) {
		return err
	}
	token, err := authService.Login("alice@example.com", "Correct-Horse-42!")
	if err != nil {
		return err
	}
	fmt.Printf("alice logged in, token %s...\n", token[:24])

	// 6. Room lifecycle
	banner("Room lifecycle")
	alice := voice.RegisterUser("alice")
	bob := voice.RegisterUser("bob")
	charlie := voice.RegisterUser("charlie")

	roomID, err := voice.CreateRoom(alice, "standup")
	if err != nil {
		return err
	}
	for _, id := range []domain.UserID{bob, charlie} {
		if err := voice.JoinRoom(id, roomID); err != nil {
			return err
		}
	}
	info, err := voice.RoomInfo(roomID)
	if err != nil {
		return err
	}
	fmt.Printf("room %q: %d participants %v\n", info.Name, info.ParticipantCount, info.ParticipantNames)

	// 7. Messages
	banner("Messages")
	for i, sender := range []domain.UserID{alice, bob, charlie} {
		payload := []byte(fmt.Sprintf("voice frame %d", i+1))
		msgID, err := voice.Send(ctx, sender, roomID, payload, 0)
		if err != nil {
			return err
		}
		msg, err := voice.Message(msgID)
		if err != nil {
			return err
		}
		fmt.Printf("stored message seq=%d slot=%d codec=%s\n", msg.Sequence, msg.SlotIndex, msg.Codec)
	}

	// 8. Broadcast with one saturated target
	banner("Broadcast")
	filler := bytes.Repeat([]byte{0xAB}, domain.MaxPayloadSize)
	if _, err := voice.Send(ctx, alice, roomID, filler, 1); err != nil {
		return err
	}
	results, err := voice.Broadcast(ctx, alice, roomID, bytes.Repeat([]byte("x"), 2048), []int{0, 1, 2})
	if err != nil {
		return err
	}
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Printf("slot %d: rejected (%v)\n", r.Slot, r.Err)
		default:
			fmt.Printf("slot %d: ok, message %s\n", r.Slot, r.MessageID)
		}
	}

	// 9. Incremental growth
	banner("Growth")
	unit, err := ledgerSim.CreateUnit(alice, 200)
	if err != nil {
		return err
	}
	controller := growth.NewController(log, ledgerSim, config.GrowthMaxSize(), orchestrator.Telemetry())
	target := domain.NewGrowthTarget(unit, 64*1024)
	steps, err := controller.Plan(target.TargetSize)
	if err != nil {
		return err
	}
	fmt.Printf("unit %s needs %d steps to reach %d bytes\n", unit, steps, target.TargetSize)
	size, err := controller.Grow(ctx, target)
	if err != nil {
		return err
	}
	fmt.Printf("unit %s grown to %d bytes, state %s\n", unit, size, target.State)

	// Let the fan-out drain before reading the archive.
	time.Sleep(200 * time.Millisecond)

	// 10. Archive & stats
	banner("Archive")
	records, _, err := archive.ByRoom(roomID.String(), nil)
	if err != nil {
		return err
	}
	renderArchive(records)

	banner("Stats")
	stats := monitor.Snapshot()
	fmt.Printf("messages=%d bytes=%d broadcasts=%d failures=%d rejections=%d growth_steps=%d rooms=%d\n",
		stats.MessagesStored, stats.BytesStored, stats.Broadcasts,
		stats.BroadcastFailures, stats.SlotRejections, stats.GrowthSteps, stats.RoomsCreated)
	fmt.Printf("timeline holds %d events for the room\n", len(timeline.Messages(roomID)))

	return nil
}

func banner(title string) {
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render("== " + title + " =="))
}

func renderArchive(records []repositories.ArchivedMessage) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Seq", "Slot", "Sender", "Bytes", "Codec", "At"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, r := range records {
		displaySender := r.Sender
		if len(displaySender) > 8 {
			displaySender = displaySender[:8]
		}
		table.Append([]string{
			fmt.Sprintf("%d", r.Sequence),
			fmt.Sprintf("%d", r.Slot),
			displaySender,
			fmt.Sprintf("%d", r.PayloadLen),
			r.Codec,
			r.At.Format("15:04:05"),
		})
	}
	table.Render()
}

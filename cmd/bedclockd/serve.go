package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"
	"github.com/urfave/cli"

	"bedclock/config"
	"bedclock/internal/alarm"
	"bedclock/internal/api"
	"bedclock/internal/button"
	"bedclock/internal/clock"
	"bedclock/internal/db"
	"bedclock/internal/display"
	"bedclock/internal/loop"
	"bedclock/internal/notification"
	"bedclock/internal/parse"
	"bedclock/internal/playback"
	"bedclock/internal/scheduler"
	"bedclock/internal/store"
	"bedclock/internal/tone"
	"bedclock/internal/tone/otoplayer"
	"bedclock/internal/weather"
)

func serve(_ *cli.Context) error {
	logger := log.New(os.Stdout, "bedclock ", log.LstdFlags)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Println("database initialized successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appStore := store.NewGormStore(gormDB)
	alarms, err := loadAlarms(ctx, appStore)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(cfg.Clock.Timezone)
	if err != nil {
		return fmt.Errorf("invalid clock.timezone %q: %w", cfg.Clock.Timezone, err)
	}
	rtc := clock.NewRTC(loc, cfg.Clock.AssumeSynced)
	if !rtc.Synced() {
		logger.Println("clock not synchronized; alarms stay silent until the time is set")
	}

	pb := playback.New(newPlayer(cfg.Playback), cfg.Playback.Pause)
	go pb.Run(ctx)

	var webpushOptions *webpush.Options
	var pool *notification.WorkerPool
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		pool.Start(ctx)
	} else {
		logger.Println("VAPID keys not configured; push notifications disabled")
	}

	cacheStore := cache.New(time.Duration(cfg.Server.CacheTTLSeconds)*time.Second, 2*time.Duration(cfg.Server.CacheTTLSeconds)*time.Second)

	sched := scheduler.New(rtc, alarms, pb)
	// Both hooks change fired flags underneath any cached alarm list.
	sched.OnReset = cacheStore.Flush
	sched.OnFire = func(ev scheduler.Event) {
		cacheStore.Flush()
		if pool == nil {
			return
		}
		if !pool.Dispatch(notification.Alert{
			Index:       ev.Index,
			Description: ev.Record.Describe(),
			Track:       ev.Track,
			At:          ev.At,
		}) {
			logger.Printf("notification queue full; alert for alarm %d dropped", ev.Index)
		}
	}

	weatherSvc := weather.NewService(&cfg.Weather, appStore)
	go weatherSvc.Run(ctx)

	disp := display.NewMachine(pb, display.LogRenderer{Weather: weatherSvc})
	if settings, err := store.LoadSettings(ctx, appStore); err != nil {
		logger.Printf("failed to load settings, keeping full brightness: %v", err)
	} else {
		disp.SetBrightness(settings.Brightness)
	}
	btn := button.NewDebouncer(cfg.Button.Debounce)
	go loop.NewService(cfg, sched, disp, btn).Run(ctx)

	handler := api.NewHandler(api.Deps{
		Store:    appStore,
		Alarms:   alarms,
		Playback: pb,
		Clock:    rtc,
		Display:  disp,
		Button:   btn,
		Webpush:  webpushOptions,
	})
	router := api.NewRouter(ctx, handler, cfg.Server, cacheStore)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("Shutdown signal received, stopping services...")
	pb.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}

	logger.Println("Server gracefully stopped")
	return nil
}

// loadAlarms restores the alarm list. Corrupt data is logged and replaced by
// an empty list; only a storage failure is fatal.
func loadAlarms(ctx context.Context, s store.Store) (*alarm.Store, error) {
	blob, ok, err := s.Read(ctx, alarm.PersistKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read alarms: %w", err)
	}
	if !ok {
		log.Println("No alarms persisted yet")
		return alarm.NewStore(s), nil
	}
	alarms, err := alarm.Load(blob, s)
	if errors.Is(err, alarm.ErrCorruptPersistence) {
		log.Printf("Ignoring persisted alarms: %v", err)
		return alarms, nil
	}
	return alarms, err
}

func newPlayer(cfg config.PlaybackConfig) playback.Player {
	if cfg.Backend == "silent" {
		log.Println("Using silent playback backend")
		return &tone.TimedPlayer{}
	}
	p, err := otoplayer.New(cfg.SampleRate)
	if err != nil {
		log.Printf("Audio device unavailable, falling back to silent playback: %v", err)
		return &tone.TimedPlayer{}
	}
	return p
}

func play(c *cli.Context) error {
	n := 1
	if arg := c.Args().First(); arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid melody %q: %w", arg, err)
		}
		n = v
	}
	track, err := parse.Song(n)
	if err != nil {
		return err
	}
	if track == alarm.TrackRandom {
		return fmt.Errorf("pick a melody between 1 and %d", len(alarm.Tracks))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	song, err := tone.Lookup(track)
	if err != nil {
		return err
	}
	log.Printf("Playing %q (%s)", song.Name, song.Duration().Round(time.Second))
	err = newPlayer(cfg.Playback).Play(ctx, track)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

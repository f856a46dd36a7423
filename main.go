package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/api"
	"github.com/harrisonrobin/taskflow/pkg/auth"
	"github.com/harrisonrobin/taskflow/pkg/config"
	"github.com/harrisonrobin/taskflow/pkg/controller"
	"github.com/harrisonrobin/taskflow/pkg/google"
	"github.com/harrisonrobin/taskflow/pkg/index"
	"github.com/harrisonrobin/taskflow/pkg/mockserver"
	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/harrisonrobin/taskflow/pkg/photos"
	"github.com/harrisonrobin/taskflow/pkg/session"
	"github.com/harrisonrobin/taskflow/pkg/shell"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logoutTimeout bounds the best-effort logout on exit.
const logoutTimeout = 5 * time.Second

func main() {
	apiURL := flag.String("api", "", "Task service base URL (overrides config)")
	calendarName := flag.String("calendar", "", "Google Calendar to mirror tasks into (overrides config)")
	setAPI := flag.String("set-api", "", "Set the default task service base URL")
	setCalendar := flag.String("set-calendar", "", "Set the default Google Calendar name")
	doAuth := flag.Bool("auth", false, "Authenticate with Google Calendar")
	mockAddr := flag.String("mock-server", "", "Serve an in-memory task service on this address instead of running the client")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	// Persisting defaults only touches the file, never env overrides.
	if *setAPI != "" || *setCalendar != "" {
		path, err := config.GetConfigPath()
		if err != nil {
			log.Fatal().Err(err).Msg("could not find config path")
		}
		cfg, err := config.LoadFile(path)
		if err != nil {
			log.Fatal().Err(err).Msg("could not read config")
		}
		if *setAPI != "" {
			cfg.APIURL = *setAPI
		}
		if *setCalendar != "" {
			cfg.Calendar = *setCalendar
		}
		if err := config.SaveFile(path, cfg); err != nil {
			log.Fatal().Err(err).Msg("error saving config")
		}
		fmt.Printf("Saved configuration to %s\n", path)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}
	if *calendarName != "" {
		cfg.Calendar = *calendarName
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using warn")
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	if *mockAddr != "" {
		serveMock(*mockAddr)
		return
	}

	dir, err := config.Dir()
	if err != nil {
		log.Fatal().Err(err).Msg("could not find configuration directory")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *doAuth {
		if err := auth.ResetToken(dir); err != nil {
			log.Fatal().Err(err).Msg("could not delete cached token, please delete it manually")
		}
		if _, err := auth.CalendarService(ctx, dir); err != nil {
			log.Fatal().Err(err).Msg("authentication failed")
		}
		fmt.Println("Authentication successful!")
		return
	}

	client, err := api.NewClient(cfg.APIURL, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid API configuration")
	}
	ctrl := controller.New(client, session.NewStore(), controller.WithErrorFunc(func(msg string) {
		fmt.Printf("error: %s\n", msg)
	}))
	mgr := photos.NewManager(func(task model.Task) { ctrl.ApplyLocal(task) })
	store := photos.NewStore(cfg.PhotoDir)

	openMirror := func(ctx context.Context) (shell.Mirror, error) {
		idx, err := index.Open(dir)
		if err != nil {
			log.Warn().Err(err).Msg("event index unreadable, mirroring without it")
			idx = nil
		}
		gc, err := google.NewClient(ctx, dir, cfg.Calendar, idx)
		if err != nil {
			return nil, err
		}
		return gc, nil
	}

	fmt.Printf("taskflow connected to %s, type help for commands\n", cfg.APIURL)
	sh := shell.New(ctrl, mgr, store, openMirror, os.Stdout)
	if err := sh.Run(ctx, os.Stdin); err != nil {
		log.Error().Err(err).Msg("reading commands")
	}
	logoutCtx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
	defer cancel()
	ctrl.Logout(logoutCtx)
}

func serveMock(addr string) {
	srv, err := mockserver.New(mockserver.User{
		Username: "alice",
		Password: "secret",
		Name:     "Alice",
		Email:    "alice@example.com",
		Role:     "technician",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("could not create mock server")
	}
	srv.Seed("alice", mockserver.SampleTasks...)
	log.Info().Str("addr", addr).Msg("mock task service listening, login alice/secret")
	if err := srv.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("mock server stopped")
	}
}

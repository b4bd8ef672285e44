package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/victoralves475/Sleepwellwell/assets"
	"github.com/victoralves475/Sleepwellwell/internal/alarm"
	"github.com/victoralves475/Sleepwellwell/internal/config"
	"github.com/victoralves475/Sleepwellwell/internal/domain"
	"github.com/victoralves475/Sleepwellwell/internal/reminder"
	"github.com/victoralves475/Sleepwellwell/internal/scheduler"
	"github.com/victoralves475/Sleepwellwell/internal/service"
	"github.com/victoralves475/Sleepwellwell/internal/store"
	"github.com/victoralves475/Sleepwellwell/internal/telegram"
	"github.com/victoralves475/Sleepwellwell/internal/tips"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	sched   *scheduler.Scheduler
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv, sched: scheduler.New(log)}, nil
}

// wire builds the services on top of the opened repo and arms the scheduled jobs.
func (a *App) wire(ctx context.Context) error {
	client, err := tips.NewClient(a.cfg.TipsBaseURL, a.cfg.TipsTimeout)
	if err != nil {
		return err
	}
	src := tips.Fallback{
		Primary: client,
		Backup:  assets.DefaultTips,
		OnError: func(err error) { a.log.Warn("tips endpoint unavailable, using bundled tips", zap.Error(err)) },
	}

	notifier := telegram.NewNotifier(a.bot)
	alarms := alarm.New(a.repo, a.sched, notifier, a.log, a.cfg.AlarmRingFor, a.cfg.AlarmRepeat)
	restored, err := alarms.Restore(ctx, time.Now())
	if err != nil {
		return err
	}
	a.log.Info("alarms restored", zap.Int("count", restored))

	daily := reminder.New(a.sched, a.repo, src, notifier, a.log, a.cfg.TipAt, a.cfg.TipInterval, nil)
	if _, err := daily.Arm(time.Now().In(domain.LoadLocation(a.cfg.DefaultTZ))); err != nil {
		return err
	}

	a.router = telegram.NewRouter(a.bot, a.log, telegram.Deps{
		Accounts:        service.NewAccounts(a.repo, a.log, a.cfg.DefaultTZ),
		Diary:           service.NewDiary(a.repo),
		Sleep:           service.NewSleep(a.repo),
		Alarms:          alarms,
		Tips:            src,
		CycleLength:     a.cfg.CycleLength,
		SuggestionLimit: a.cfg.SuggestionLimit,
	})
	return nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting sleepwell",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("tz", a.cfg.DefaultTZ),
		zap.Stringer("tipAt", a.cfg.TipAt),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	if err := a.wire(ctx); err != nil {
		_ = a.repo.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedDone := make(chan struct{})
	go func() {
		a.sched.Run(ctx)
		close(schedDone)
	}()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.bot.StopReceivingUpdates()

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()
			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}

			// running jobs may still write to the db
			<-schedDone
			if err := a.repo.Close(); err != nil {
				a.log.Warn("sqlite close error", zap.Error(err))
			}
			return nil

		case upd, ok := <-updCh:
			if !ok {
				updCh = nil
				continue
			}
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

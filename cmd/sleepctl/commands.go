package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
	"github.com/victoralves475/Sleepwellwell/internal/store"
)

var (
	tzFlag = cli.StringFlag{
		Name:  "tz",
		Value: "America/Fortaleza",
		Usage: "IANA time zone for wall-clock inputs and output",
	}
	nowFlag = cli.StringFlag{
		Name:  "now",
		Usage: "reference instant in RFC 3339 (defaults to the current time)",
	}
)

func newApp(out io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "sleepctl"
	app.HelpName = "sleepctl"
	app.Usage = "sleep cycle helper for SleepWell"
	app.UsageText = "sleepctl <command> [arguments...]"
	app.Writer = out
	app.Commands = []cli.Command{
		{
			Name:   "suggest",
			Usage:  "suggest wake times that end a sleep cycle, going to bed now",
			Action: suggest,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "at", Usage: "desired wake time, HH:MM"},
				cli.StringFlag{Name: "cycle", Value: "90m", Usage: "length of one sleep cycle: 90m, 1h30m or bare minutes"},
				cli.IntFlag{Name: "limit", Value: domain.DefaultSuggestionLimit, Usage: "how many suggestions to keep (0 keeps all)"},
				tzFlag,
				nowFlag,
			},
		},
		{
			Name:   "delay",
			Usage:  "print the delay until the next occurrence of a daily hour",
			Action: delay,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "hour", Value: domain.DefaultTipHour.String(), Usage: "target hour, HH:MM[:SS]"},
				tzFlag,
				nowFlag,
			},
		},
		{
			Name:   "migrate",
			Usage:  "create or upgrade the SQLite database",
			Action: migrate,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "db", Value: "./data/sleepwell.db", Usage: "database file"},
			},
		},
	}
	return app
}

// reference returns the --now instant, or the current time, in the --tz location.
func reference(c *cli.Context) (time.Time, error) {
	loc := domain.LoadLocation(c.String("tz"))
	raw := c.String("now")
	if raw == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now: %w", err)
	}
	return t.In(loc), nil
}

func suggest(c *cli.Context) error {
	if c.String("at") == "" {
		return errors.New("--at is required")
	}
	hour, minute, err := domain.ParseHHMM(c.String("at"))
	if err != nil {
		return fmt.Errorf("--at: %w", err)
	}
	cycle, err := domain.ParseCycleHuman(c.String("cycle"))
	if err != nil {
		return fmt.Errorf("--cycle: %w", err)
	}
	now, err := reference(c)
	if err != nil {
		return err
	}
	target, err := domain.ClockTarget(now, hour, minute)
	if err != nil {
		return err
	}
	times, err := domain.SuggestWakeTimes(now, target, cycle, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(times) == 0 {
		fmt.Fprintln(c.App.Writer, "no wake time fits")
		return nil
	}
	for _, t := range times {
		fmt.Fprintf(c.App.Writer, "%s  (%s of sleep)\n", t.Format("15:04 Mon 02 Jan"), t.Sub(now))
	}
	return nil
}

func delay(c *cli.Context) error {
	at, err := domain.ParseTargetHour(c.String("hour"))
	if err != nil {
		return fmt.Errorf("--hour: %w", err)
	}
	now, err := reference(c)
	if err != nil {
		return err
	}
	d := domain.DelayUntilNext(now, at)
	next := now.Add(d)
	fmt.Fprintf(c.App.Writer, "%s (next at %s)\n", d, next.Format(time.RFC3339))
	return nil
}

func migrate(c *cli.Context) error {
	ctx := context.Background()
	repo, err := store.OpenSQLite(ctx, c.String("db"))
	if err != nil {
		return err
	}
	defer repo.Close()

	names, err := repo.Migrations(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(c.App.Writer, "applied", n)
	}
	return nil
}

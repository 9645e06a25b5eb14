package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"agentbook/internal/agent"
	"agentbook/internal/clock"
	"agentbook/internal/config"
	appLog "agentbook/internal/log"
	"agentbook/internal/model"
	"agentbook/internal/reminder"
	"agentbook/internal/sms"
	"agentbook/internal/store"
	"agentbook/internal/web"
)

// startupCheckDelay is how long after boot the first reminder check
// runs, before the cron schedule takes over.
const startupCheckDelay = 10 * time.Second

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "agentbook",
		Usage: "Contact and presentation-meeting manager with automated SMS reminders.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "/etc/agentbook/config.yaml",
				Usage:   "Path to config file",
				EnvVars: []string{"AGENTBOOK_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			daemonCommand(),
			checkCommand(),
			inviteCommand(),
			meetingsCommand(),
			activityCommand(),
			settingsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}

// env bundles everything a command needs, wired once from the config.
type env struct {
	cfg       *config.Config
	loc       *time.Location
	contacts  *store.ContactStore
	meetings  *store.MeetingStore
	activity  *store.ActivityLog
	settings  *store.SettingsStore
	scheduler *reminder.Scheduler
	agent     *agent.Service
}

func newEnv(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", c.String("config"), err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	clk := clock.System{}
	contacts := store.NewContactStore(cfg.DataDir, clk)
	meetings := store.NewMeetingStore(cfg.DataDir, clk)
	activity := store.NewActivityLog(cfg.DataDir, clk)
	settings := store.NewSettingsStore(cfg.DataDir)

	var sender sms.Sender
	if cfg.SMSGateway.URL != "" {
		sender, err = sms.NewGatewaySender(
			cfg.SMSGateway.URL,
			cfg.SMSGateway.Token,
			time.Duration(cfg.SMSGateway.TimeoutSeconds)*time.Second,
		)
		if err != nil {
			return nil, err
		}
	} else {
		appLog.Warn("no SMS gateway configured, messages go to the log only")
		sender = sms.ConsoleSender{}
	}

	dispatchTimeout := time.Duration(cfg.SMSGateway.TimeoutSeconds) * time.Second

	return &env{
		cfg:      cfg,
		loc:      loc,
		contacts: contacts,
		meetings: meetings,
		activity: activity,
		settings: settings,
		scheduler: reminder.New(reminder.Options{
			Meetings:        meetings,
			Activity:        activity,
			Settings:        settings,
			Sender:          sender,
			Location:        loc,
			DispatchTimeout: dispatchTimeout,
		}),
		agent: agent.New(agent.Options{
			Contacts:        contacts,
			Meetings:        meetings,
			Activity:        activity,
			Settings:        settings,
			Sender:          sender,
			Location:        loc,
			DispatchTimeout: dispatchTimeout,
		}),
	}, nil
}

func daemonCommand() *cli.Command {
	return &cli.Command{
		Name:  "daemon",
		Usage: "Run the reminder service and the HTTP API.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config if set)"},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			if l := c.String("listen"); l != "" {
				e.cfg.Listen = l
			}

			appLog.Info("agentbook starting",
				"listen", e.cfg.Listen,
				"timezone", e.cfg.Timezone,
				"data_dir", e.cfg.DataDir,
				"check_cron", e.cfg.CheckCron,
				"contacts", e.contacts.Count(),
				"meetings", e.meetings.Count(),
			)

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cr := cron.New()
			if _, err := cr.AddFunc(e.cfg.CheckCron, func() {
				e.scheduler.RunCheck(ctx, time.Now())
			}); err != nil {
				return fmt.Errorf("invalid check_cron %q: %w", e.cfg.CheckCron, err)
			}
			cr.Start()
			defer cr.Stop()

			// One check shortly after startup; later ones come from cron.
			initial := time.AfterFunc(startupCheckDelay, func() {
				e.scheduler.RunCheck(ctx, time.Now())
			})
			defer initial.Stop()

			err = web.StartServer(ctx, e.cfg, web.Deps{
				Contacts:  e.contacts,
				Meetings:  e.meetings,
				Activity:  e.activity,
				Settings:  e.settings,
				Scheduler: e.scheduler,
				Agent:     e.agent,
				Location:  e.loc,
			})
			appLog.Info("agentbook exiting")
			return err
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Run a single reminder check and print the result.",
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			res := e.scheduler.RunCheck(c.Context, time.Now())
			return printJSON(res)
		},
	}
}

func inviteCommand() *cli.Command {
	return &cli.Command{
		Name:  "invite",
		Usage: "Save a contact, send the invitation SMS and schedule the presentation.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true, Usage: "Client full name"},
			&cli.StringFlag{Name: "phone", Required: true, Usage: "Client phone number"},
			&cli.StringFlag{Name: "email", Usage: "Client email"},
			&cli.StringFlag{Name: "address", Usage: "Property address"},
			&cli.StringFlag{Name: "date", Usage: "Presentation date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "time", Usage: "Presentation time (HH:MM)"},
			&cli.StringFlag{Name: "notes", Usage: "Free-form notes"},
			&cli.StringFlag{Name: "ics", Usage: "Write the calendar invite to this .ics file"},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}

			res, err := e.agent.SendInvitation(c.Context, model.Contact{
				FullName:         c.String("name"),
				Phone:            c.String("phone"),
				Email:            c.String("email"),
				PropertyAddress:  c.String("address"),
				PresentationDate: c.String("date"),
				PresentationTime: c.String("time"),
				Notes:            c.String("notes"),
			})
			if err != nil {
				return err
			}

			fmt.Println("Invitation sent:")
			fmt.Println("  " + res.Message)
			if res.Meeting != nil {
				fmt.Printf("Meeting %s scheduled for %s %s\n", res.Meeting.ID, res.Meeting.Date, res.Meeting.Time)
			}
			if res.CalendarURL != "" {
				fmt.Println("Google Calendar: " + res.CalendarURL)
			}
			if path := c.String("ics"); path != "" && len(res.ICS) > 0 {
				if err := os.WriteFile(path, res.ICS, 0o600); err != nil {
					return fmt.Errorf("write ics: %w", err)
				}
				fmt.Println("Invite written to " + path)
			}
			return nil
		},
	}
}

func meetingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "meetings",
		Usage: "Inspect and manage scheduled presentations.",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List meetings, optionally only today's.",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "today", Usage: "Only meetings on today's date"},
					&cli.StringFlag{Name: "date", Usage: "Only meetings on this date (YYYY-MM-DD)"},
				},
				Action: func(c *cli.Context) error {
					e, err := newEnv(c)
					if err != nil {
						return err
					}
					switch {
					case c.Bool("today"):
						return printJSON(e.meetings.ListOn(clock.DateString(time.Now(), e.loc)))
					case c.String("date") != "":
						return printJSON(e.meetings.ListOn(c.String("date")))
					default:
						return printJSON(e.meetings.List())
					}
				},
			},
			{
				Name:      "remind",
				Usage:     "Send a reminder for one meeting immediately.",
				ArgsUsage: "<meeting-id>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one meeting id")
					}
					e, err := newEnv(c)
					if err != nil {
						return err
					}
					if err := e.scheduler.SendManualReminder(c.Context, c.Args().First()); err != nil {
						return err
					}
					fmt.Println("Reminder sent.")
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a meeting.",
				ArgsUsage: "<meeting-id>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one meeting id")
					}
					e, err := newEnv(c)
					if err != nil {
						return err
					}
					return e.meetings.Delete(c.Args().First())
				},
			},
		},
	}
}

func activityCommand() *cli.Command {
	return &cli.Command{
		Name:  "activity",
		Usage: "Inspect the activity trail.",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show recent activity, newest first.",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Max entries to show (default 20)"},
				},
				Action: func(c *cli.Context) error {
					e, err := newEnv(c)
					if err != nil {
						return err
					}
					return printJSON(e.activity.List(c.Int("limit")))
				},
			},
			{
				Name:  "clear",
				Usage: "Wipe the whole activity trail.",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm the wipe"},
				},
				Action: func(c *cli.Context) error {
					if !c.Bool("yes") {
						return fmt.Errorf("refusing to clear without --yes")
					}
					e, err := newEnv(c)
					if err != nil {
						return err
					}
					return e.activity.Clear()
				},
			},
		},
	}
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change reminder settings.",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the current settings.",
				Action: func(c *cli.Context) error {
					e, err := newEnv(c)
					if err != nil {
						return err
					}
					return printJSON(e.settings.Load())
				},
			},
			{
				Name:  "set",
				Usage: "Change settings; unspecified flags keep their value.",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "auto-reminders", Usage: "Enable/disable automatic reminders"},
					&cli.StringFlag{Name: "start", Usage: "Reminder window start (HH:MM)"},
					&cli.StringFlag{Name: "end", Usage: "Reminder window end (HH:MM)"},
					&cli.StringFlag{Name: "invitation-template", Usage: "Invitation SMS template"},
					&cli.StringFlag{Name: "reminder-template", Usage: "Reminder SMS template"},
				},
				Action: func(c *cli.Context) error {
					e, err := newEnv(c)
					if err != nil {
						return err
					}
					s := e.settings.Load()
					if c.IsSet("auto-reminders") {
						s.AutoReminders = c.Bool("auto-reminders")
					}
					if c.IsSet("start") {
						s.ReminderStartTime = c.String("start")
					}
					if c.IsSet("end") {
						s.ReminderEndTime = c.String("end")
					}
					if c.IsSet("invitation-template") {
						s.InvitationTemplate = c.String("invitation-template")
					}
					if c.IsSet("reminder-template") {
						s.ReminderTemplate = c.String("reminder-template")
					}
					if err := e.settings.Save(s); err != nil {
						return err
					}
					return printJSON(s)
				},
			},
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

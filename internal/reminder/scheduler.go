// Package reminder implements the automated reminder pipeline: decide
// from the stored meetings and the configured daily window which
// meetings need a day-ahead reminder, dispatch each one at most once,
// and leave a trail in the activity log.
package reminder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"agentbook/internal/clock"
	appLog "agentbook/internal/log"
	"agentbook/internal/message"
	"agentbook/internal/model"
	"agentbook/internal/notify"
	"agentbook/internal/sms"
	"agentbook/internal/store"
)

// SkipReason explains why a check run dispatched nothing.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipGateDisabled   SkipReason = "gate_disabled"
	SkipOutsideWindow  SkipReason = "outside_window"
	SkipAlreadyRunning SkipReason = "already_running"
)

// RunResult summarizes a single check run.
type RunResult struct {
	StartedAt time.Time  `json:"startedAt"`
	Checked   int        `json:"checked"`
	Sent      int        `json:"sent"`
	Failed    int        `json:"failed"`
	Skipped   SkipReason `json:"skipped,omitempty"`
}

// SettingsProvider yields the current user settings. *store.SettingsStore
// satisfies it.
type SettingsProvider interface {
	Load() model.Settings
}

// Scheduler owns the gated reminder check. It does not own a timer; an
// external trigger (cron, the HTTP API, the CLI) calls RunCheck.
type Scheduler struct {
	meetings *store.MeetingStore
	activity *store.ActivityLog
	settings SettingsProvider
	sender   sms.Sender
	notifier notify.Notifier
	loc      *time.Location

	// dispatchTimeout bounds a single send so one stuck dispatch cannot
	// starve the rest of the batch.
	dispatchTimeout time.Duration

	// running collapses overlapping invocations into a no-op.
	running atomic.Bool

	mu      sync.Mutex
	lastRun *RunResult
}

// Options configures a Scheduler. All stores and capabilities are
// injected; the scheduler holds no ambient state.
type Options struct {
	Meetings *store.MeetingStore
	Activity *store.ActivityLog
	Settings SettingsProvider
	Sender   sms.Sender
	Notifier notify.Notifier

	// Location is the timezone reminder-window and calendar-day
	// decisions are made in. Defaults to time.Local.
	Location *time.Location

	// DispatchTimeout defaults to 15s when non-positive.
	DispatchTimeout time.Duration
}

// New builds a Scheduler from its collaborators.
func New(opts Options) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	timeout := opts.DispatchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Scheduler{
		meetings:        opts.Meetings,
		activity:        opts.Activity,
		settings:        opts.Settings,
		sender:          opts.Sender,
		notifier:        notifier,
		loc:             loc,
		dispatchTimeout: timeout,
	}
}

// RunCheck performs one reminder cycle at the given instant:
//
//  1. skip when automatic reminders are disabled
//  2. skip when the local clock time is outside the daily window
//  3. target the next calendar day
//  4. dispatch each due meeting independently; a failed dispatch leaves
//     the meeting unsent for the next cycle and never blocks the others
//
// Every attempt, success or failure, is appended to the activity log.
func (s *Scheduler) RunCheck(ctx context.Context, now time.Time) RunResult {
	if !s.running.CompareAndSwap(false, true) {
		appLog.Warn("reminder check already running, skipping")
		return RunResult{StartedAt: now, Skipped: SkipAlreadyRunning}
	}
	defer s.running.Store(false)

	res := RunResult{StartedAt: now}
	local := now.In(s.loc)
	settings := s.settings.Load()

	if !settings.AutoReminders {
		res.Skipped = SkipGateDisabled
		return s.finish(res)
	}

	start, err1 := clock.ParseHHMM(settings.ReminderStartTime)
	end, err2 := clock.ParseHHMM(settings.ReminderEndTime)
	if err1 != nil || err2 != nil {
		// Save-time validation should make this unreachable; fail closed.
		appLog.Error("reminder window unparseable, skipping check", err1,
			"start", settings.ReminderStartTime, "end", settings.ReminderEndTime)
		res.Skipped = SkipOutsideWindow
		return s.finish(res)
	}
	if !clock.WithinDailyWindow(local, start, end) {
		appLog.Debug("outside reminder window",
			"now", local.Format("15:04"),
			"window", settings.ReminderStartTime+"-"+settings.ReminderEndTime)
		res.Skipped = SkipOutsideWindow
		return s.finish(res)
	}

	// Reminders go out exactly one calendar day ahead of the meeting.
	tomorrow := clock.DateString(clock.AddDays(local, 1), s.loc)
	due := s.meetings.FindDueForReminder(tomorrow)
	res.Checked = len(due)

	for _, m := range due {
		if s.dispatchOne(ctx, settings, m) {
			res.Sent++
		} else {
			res.Failed++
		}
	}

	appLog.Info("reminder check completed",
		"target_date", tomorrow, "checked", res.Checked, "sent", res.Sent, "failed", res.Failed)
	return s.finish(res)
}

// dispatchOne sends the reminder for a single meeting and records the
// outcome. It reports whether the meeting ended up marked as sent.
func (s *Scheduler) dispatchOne(ctx context.Context, settings model.Settings, m model.Meeting) bool {
	body := message.Render(settings.ReminderTemplate, message.ForMeeting(m))

	dctx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	err := s.sender.Send(dctx, m.Phone, body)
	cancel()

	if err == nil {
		// The status flip must land with the send; a failed write means
		// the meeting stays pending retry and the run reports it failed.
		err = s.meetings.MarkReminderSent(m.ID)
	}

	data := map[string]string{
		"meetingId":  m.ID,
		"clientName": m.ClientName,
		"phone":      m.Phone,
	}
	if err != nil {
		data["outcome"] = "failed"
		data["error"] = err.Error()
		appLog.Error("automatic reminder failed", err, "meeting_id", m.ID, "phone", m.Phone)
	} else {
		data["outcome"] = "sent"
	}

	if _, aerr := s.activity.Append(model.ActivityAutoReminder, data); aerr != nil {
		appLog.Error("activity append failed", aerr, "meeting_id", m.ID)
	}

	if err != nil {
		return false
	}

	if nerr := s.notifier.Notify(ctx, "Przypomnienie wysłane",
		"Automatyczne przypomnienie zostało wysłane do "+m.ClientName); nerr != nil {
		appLog.Debug("notifier failed", "reason", nerr)
	}
	return true
}

// SendManualReminder is the bell-button path: send a reminder for one
// specific meeting right now, ignoring the gate and the daily window.
func (s *Scheduler) SendManualReminder(ctx context.Context, meetingID string) error {
	m, err := s.meetings.Get(meetingID)
	if err != nil {
		return err
	}
	settings := s.settings.Load()
	body := message.Render(settings.ReminderTemplate, message.ForMeeting(m))

	dctx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()
	if err := s.sender.Send(dctx, m.Phone, body); err != nil {
		return err
	}
	if err := s.meetings.MarkReminderSent(m.ID); err != nil {
		return err
	}

	if _, aerr := s.activity.Append(model.ActivitySMSSent, map[string]string{
		"meetingId":  m.ID,
		"clientName": m.ClientName,
		"phone":      m.Phone,
	}); aerr != nil {
		appLog.Error("activity append failed", aerr, "meeting_id", m.ID)
	}
	return nil
}

// Running reports whether a check is currently in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// LastRun returns the most recent run summary, if any.
func (s *Scheduler) LastRun() (RunResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return RunResult{}, false
	}
	return *s.lastRun, true
}

func (s *Scheduler) finish(res RunResult) RunResult {
	s.mu.Lock()
	s.lastRun = &res
	s.mu.Unlock()
	return res
}

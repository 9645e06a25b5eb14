// Package agent implements the invitation workflow: capture a contact,
// send the invitation SMS, and when a presentation slot was agreed,
// create the confirmed meeting plus its calendar artifacts.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agentbook/internal/calendar"
	appLog "agentbook/internal/log"
	"agentbook/internal/message"
	"agentbook/internal/model"
	"agentbook/internal/sms"
	"agentbook/internal/store"
)

// SettingsProvider yields the current user settings.
type SettingsProvider interface {
	Load() model.Settings
}

// Service wires the stores and the dispatch capability into the
// contact-to-meeting workflow.
type Service struct {
	contacts *store.ContactStore
	meetings *store.MeetingStore
	activity *store.ActivityLog
	settings SettingsProvider
	sender   sms.Sender
	loc      *time.Location

	dispatchTimeout time.Duration
}

// Options configures a Service.
type Options struct {
	Contacts *store.ContactStore
	Meetings *store.MeetingStore
	Activity *store.ActivityLog
	Settings SettingsProvider
	Sender   sms.Sender

	Location        *time.Location
	DispatchTimeout time.Duration
}

// New builds a Service.
func New(opts Options) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	timeout := opts.DispatchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		contacts:        opts.Contacts,
		meetings:        opts.Meetings,
		activity:        opts.Activity,
		settings:        opts.Settings,
		sender:          opts.Sender,
		loc:             loc,
		dispatchTimeout: timeout,
	}
}

// InvitationResult reports what the invitation workflow produced.
type InvitationResult struct {
	Contact model.Contact  `json:"contact"`
	Meeting *model.Meeting `json:"meeting,omitempty"`
	Message string         `json:"message"`

	// CalendarURL and ICS are only set when a meeting was created.
	CalendarURL string `json:"calendarUrl,omitempty"`
	ICS         []byte `json:"-"`
}

// ErrMissingContactFields is returned when the required contact fields
// are absent.
var ErrMissingContactFields = errors.New("agent: full name and phone are required")

// SendInvitation stores the contact, sends the invitation SMS and, when
// a presentation date and time are present, creates a confirmed meeting
// and its calendar artifacts. Both the SMS and the meeting creation are
// recorded in the activity log.
func (s *Service) SendInvitation(ctx context.Context, c model.Contact) (InvitationResult, error) {
	if c.FullName == "" || c.Phone == "" {
		return InvitationResult{}, ErrMissingContactFields
	}

	stored, err := s.contacts.Create(c)
	if err != nil {
		return InvitationResult{}, err
	}

	settings := s.settings.Load()
	body := message.Render(settings.InvitationTemplate, message.Values{
		Address: stored.PropertyAddress,
		Date:    message.FormatDate(stored.PresentationDate),
		Time:    stored.PresentationTime,
	})

	dctx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	err = s.sender.Send(dctx, stored.Phone, body)
	cancel()
	if err != nil {
		return InvitationResult{}, fmt.Errorf("agent: invitation dispatch: %w", err)
	}

	if _, aerr := s.activity.Append(model.ActivitySMSSent, map[string]string{
		"contactId": stored.ID,
		"phone":     stored.Phone,
	}); aerr != nil {
		appLog.Error("activity append failed", aerr, "contact_id", stored.ID)
	}

	res := InvitationResult{Contact: stored, Message: body}

	if stored.PresentationDate == "" || stored.PresentationTime == "" {
		return res, nil
	}

	meeting, err := s.createMeeting(stored)
	if err != nil {
		// The invitation went out; surface the meeting failure without
		// pretending the SMS never happened.
		return res, fmt.Errorf("agent: create meeting: %w", err)
	}
	res.Meeting = &meeting

	if u, err := calendar.GoogleURL(meeting, s.loc); err == nil {
		res.CalendarURL = u
	} else {
		appLog.Warn("calendar url unavailable", "meeting_id", meeting.ID, "reason", err)
	}
	if ics, err := calendar.Invite(meeting, s.loc); err == nil {
		res.ICS = ics
	} else {
		appLog.Warn("ics invite unavailable", "meeting_id", meeting.ID, "reason", err)
	}

	return res, nil
}

func (s *Service) createMeeting(c model.Contact) (model.Meeting, error) {
	meeting, err := s.meetings.Create(model.Meeting{
		ContactID:  c.ID,
		Title:      fmt.Sprintf("Prezentacja DZ (%s)", c.Phone),
		ClientName: c.FullName,
		Phone:      c.Phone,
		Address:    c.PropertyAddress,
		Date:       c.PresentationDate,
		Time:       c.PresentationTime,
		Status:     model.StatusConfirmed,
	})
	if err != nil {
		return model.Meeting{}, err
	}

	if _, aerr := s.activity.Append(model.ActivityMeetingCreated, map[string]string{
		"meetingId":  meeting.ID,
		"clientName": meeting.ClientName,
		"date":       meeting.Date,
		"time":       meeting.Time,
	}); aerr != nil {
		appLog.Error("activity append failed", aerr, "meeting_id", meeting.ID)
	}
	return meeting, nil
}

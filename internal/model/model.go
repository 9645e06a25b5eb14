package model

import (
	"errors"
	"fmt"
	"time"
)

// MeetingStatus is the lifecycle state of a property presentation.
type MeetingStatus string

const (
	StatusConfirmed MeetingStatus = "confirmed"
	StatusPending   MeetingStatus = "pending"
	StatusCancelled MeetingStatus = "cancelled"
)

// Valid reports whether s is a known meeting status.
func (s MeetingStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// Contact is a prospective client captured by the agent.
type Contact struct {
	ID              string `json:"id"`
	FullName        string `json:"fullName"`
	Phone           string `json:"phone"`
	Email           string `json:"email,omitempty"`
	PropertyAddress string `json:"propertyAddress,omitempty"`

	// PresentationDate / PresentationTime are the proposed presentation
	// slot, if the agent already agreed on one. Date is "YYYY-MM-DD",
	// time is "HH:MM" local.
	PresentationDate string `json:"presentationDate,omitempty"`
	PresentationTime string `json:"presentationTime,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Meeting is a scheduled property presentation.
//
// Date carries no time component ("YYYY-MM-DD"); Time is the local clock
// time ("HH:MM"). ReminderSent is owned exclusively by the meeting store:
// once true it never reverts, and LastReminderSent records the first
// successful delivery.
type Meeting struct {
	ID        string `json:"id"`
	ContactID string `json:"contactId,omitempty"`

	Title      string        `json:"title"`
	ClientName string        `json:"clientName"`
	Phone      string        `json:"phone"`
	Address    string        `json:"address"`
	Date       string        `json:"date"`
	Time       string        `json:"time"`
	Status     MeetingStatus `json:"status"`

	ReminderSent     bool       `json:"reminderSent"`
	LastReminderSent *time.Time `json:"lastReminderSent,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// MeetingDateLayout is the wire format of Meeting.Date.
const MeetingDateLayout = "2006-01-02"

// StartTime resolves the meeting's date and clock time into a concrete
// instant in the given location.
func (m Meeting) StartTime(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(MeetingDateLayout+" 15:04", m.Date+" "+m.Time, loc)
}

// MeetingPatch describes a partial update to a meeting. Nil fields are
// left untouched. ReminderSent is deliberately absent: only the store's
// mark-sent operation may flip it.
type MeetingPatch struct {
	ClientName *string        `json:"clientName,omitempty"`
	Phone      *string        `json:"phone,omitempty"`
	Address    *string        `json:"address,omitempty"`
	Date       *string        `json:"date,omitempty"`
	Time       *string        `json:"time,omitempty"`
	Status     *MeetingStatus `json:"status,omitempty"`
}

// Settings is the user-facing configuration persisted alongside the
// contact and meeting collections.
type Settings struct {
	InvitationTemplate string `json:"invitationTemplate"`
	ReminderTemplate   string `json:"reminderTemplate"`

	AutoReminders     bool   `json:"autoReminders"`
	ReminderStartTime string `json:"reminderStartTime"`
	ReminderEndTime   string `json:"reminderEndTime"`
}

// DefaultSettings returns the stock settings of a fresh installation.
// Template texts match the ones the agent has been using; placeholder
// tokens are substituted by the message package.
func DefaultSettings() Settings {
	return Settings{
		InvitationTemplate: "Dzień dobry. W nawiązaniu do rozmowy, zapraszam na prezentację nieruchomości. Adres: [adres] Termin: [data], godz. [godzina] Pozdrawiam Damian Zalewski",
		ReminderTemplate:   "Dzień dobry. Czy mogę prosić o potwierdzenie naszego spotkania [data] o godz. [godzina]? Pozdrawiam Damian Zalewski",
		AutoReminders:      true,
		ReminderStartTime:  "09:00",
		ReminderEndTime:    "19:00",
	}
}

// ErrInvalidWindow is returned when the reminder window is malformed or
// would cross midnight. Windows like 22:00-06:00 are not supported; the
// window comparison is numeric on clock time and would never match.
var ErrInvalidWindow = errors.New("reminder window start must not be after end")

// Validate checks the reminder window. It rejects malformed clock times
// and windows whose start lies after the end rather than guessing at
// midnight-wrap semantics.
func (s Settings) Validate() error {
	start, err := parseClockTime(s.ReminderStartTime)
	if err != nil {
		return fmt.Errorf("reminderStartTime: %w", err)
	}
	end, err := parseClockTime(s.ReminderEndTime)
	if err != nil {
		return fmt.Errorf("reminderEndTime: %w", err)
	}
	if start > end {
		return ErrInvalidWindow
	}
	return nil
}

func parseClockTime(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", v)
	}
	return t.Hour()*100 + t.Minute(), nil
}

// ActivityType classifies an activity log entry.
type ActivityType string

const (
	ActivitySMSSent        ActivityType = "sms_sent"
	ActivityMeetingCreated ActivityType = "meeting_created"
	ActivityAutoReminder   ActivityType = "auto_reminder"
)

// ActivityEntry is an immutable record of a domain event. Data carries
// event-specific fields (meetingId, clientName, phone, outcome, ...).
type ActivityEntry struct {
	ID        string            `json:"id"`
	Type      ActivityType      `json:"type"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Package calendar turns a stored meeting into calendar artifacts: an
// ICS invite body and a Google Calendar render URL. Both assume the
// standard one-hour presentation slot.
package calendar

import (
	"fmt"
	"net/url"
	"time"

	ical "github.com/arran4/golang-ical"

	"agentbook/internal/model"
)

// presentationDuration is the assumed length of a property presentation.
const presentationDuration = time.Hour

// Invite renders an ICS invite (METHOD:REQUEST, single VEVENT) for the
// meeting, with times resolved in loc.
func Invite(m model.Meeting, loc *time.Location) ([]byte, error) {
	start, err := m.StartTime(loc)
	if err != nil {
		return nil, fmt.Errorf("calendar: meeting %s has unparseable date/time: %w", m.ID, err)
	}
	end := start.Add(presentationDuration)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodRequest)
	cal.SetProductId("-//agentbook//PL")

	ev := cal.AddEvent(m.ID + "@agentbook")
	ev.SetCreatedTime(m.CreatedAt)
	ev.SetDtStampTime(time.Now())
	ev.SetStartAt(start)
	ev.SetEndAt(end)
	ev.SetSummary(m.Title)
	ev.SetLocation(m.Address)
	ev.SetDescription(description(m))

	return []byte(cal.Serialize()), nil
}

// GoogleURL builds a calendar.google.com render URL prefilled with the
// meeting details.
func GoogleURL(m model.Meeting, loc *time.Location) (string, error) {
	start, err := m.StartTime(loc)
	if err != nil {
		return "", fmt.Errorf("calendar: meeting %s has unparseable date/time: %w", m.ID, err)
	}
	end := start.Add(presentationDuration)

	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", m.Title)
	params.Set("dates", googleStamp(start)+"/"+googleStamp(end))
	params.Set("details", description(m))
	params.Set("location", m.Address)

	return "https://calendar.google.com/calendar/render?" + params.Encode(), nil
}

func description(m model.Meeting) string {
	return fmt.Sprintf("Prezentacja nieruchomości dla %s\nAdres: %s\nTelefon: %s",
		m.ClientName, m.Address, m.Phone)
}

// googleStamp formats an instant the way the render URL expects:
// basic-format UTC with a trailing Z.
func googleStamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

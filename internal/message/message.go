// Package message renders the SMS templates the agent configures in
// settings. Substitution intentionally replaces only the first
// occurrence of each token, matching the behavior existing saved
// templates were written against.
package message

import (
	"strings"
	"time"

	"agentbook/internal/model"
)

// Placeholder tokens recognized in templates.
const (
	TokenAddress = "[adres]"
	TokenDate    = "[data]"
	TokenTime    = "[godzina]"
)

// Values carries the field values substituted into a template.
type Values struct {
	Address string
	Date    string // already display-formatted
	Time    string // "HH:MM"
}

// Render substitutes the placeholder tokens in template. Each token is
// replaced at its first occurrence only; later occurrences are left
// verbatim.
func Render(template string, v Values) string {
	out := template
	out = strings.Replace(out, TokenAddress, v.Address, 1)
	out = strings.Replace(out, TokenDate, v.Date, 1)
	out = strings.Replace(out, TokenTime, v.Time, 1)
	return out
}

// ForMeeting builds the substitution values for a meeting.
func ForMeeting(m model.Meeting) Values {
	return Values{
		Address: m.Address,
		Date:    FormatDate(m.Date),
		Time:    m.Time,
	}
}

// FormatDate converts a stored "YYYY-MM-DD" date into the dd.mm.yyyy
// form used in messages shown to clients. Unparseable input is returned
// unchanged rather than erased from the message.
func FormatDate(date string) string {
	t, err := time.Parse(model.MeetingDateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02.01.2006")
}

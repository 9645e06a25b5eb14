package calendar

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"agentbook/internal/model"
)

func testMeeting() model.Meeting {
	return model.Meeting{
		ID:         "m-1",
		Title:      "Prezentacja DZ (+48600100200)",
		ClientName: "Anna Nowak",
		Phone:      "+48600100200",
		Address:    "ul. Długa 7, Warszawa",
		Date:       "2026-03-20",
		Time:       "17:00",
		Status:     model.StatusConfirmed,
		CreatedAt:  time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestGoogleURL(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	raw, err := GoogleURL(testMeeting(), warsaw)
	if err != nil {
		t.Fatalf("GoogleURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	if u.Host != "calendar.google.com" || u.Path != "/calendar/render" {
		t.Errorf("url = %s://%s%s", u.Scheme, u.Host, u.Path)
	}

	q := u.Query()
	if q.Get("action") != "TEMPLATE" {
		t.Errorf("action = %q", q.Get("action"))
	}
	if q.Get("text") != "Prezentacja DZ (+48600100200)" {
		t.Errorf("text = %q", q.Get("text"))
	}
	// 17:00 CET in March is 16:00 UTC; one hour slot.
	if got, want := q.Get("dates"), "20260320T160000Z/20260320T170000Z"; got != want {
		t.Errorf("dates = %q, want %q", got, want)
	}
	if q.Get("location") != "ul. Długa 7, Warszawa" {
		t.Errorf("location = %q", q.Get("location"))
	}
	if !strings.Contains(q.Get("details"), "Anna Nowak") {
		t.Errorf("details = %q", q.Get("details"))
	}
}

func TestGoogleURLBadDate(t *testing.T) {
	m := testMeeting()
	m.Date = "20-03-2026"
	if _, err := GoogleURL(m, time.UTC); err == nil {
		t.Fatal("want error for unparseable date")
	}
}

func TestInvite(t *testing.T) {
	ics, err := Invite(testMeeting(), time.UTC)
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	body := string(ics)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"METHOD:REQUEST",
		"BEGIN:VEVENT",
		"UID:m-1@agentbook",
		"SUMMARY:Prezentacja DZ (+48600100200)",
		"DTSTART:20260320T170000Z",
		"DTEND:20260320T180000Z",
		"END:VEVENT",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("invite missing %q\n%s", want, body)
		}
	}
}

func TestInviteBadTime(t *testing.T) {
	m := testMeeting()
	m.Time = "5pm"
	if _, err := Invite(m, time.UTC); err == nil {
		t.Fatal("want error for unparseable time")
	}
}

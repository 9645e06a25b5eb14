package message

import (
	"testing"

	"agentbook/internal/model"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		values   Values
		want     string
	}{
		{
			name:     "all tokens",
			template: "Adres: [adres] Termin: [data], godz. [godzina]",
			values:   Values{Address: "ul. Polna 1", Date: "15.03.2026", Time: "10:30"},
			want:     "Adres: ul. Polna 1 Termin: 15.03.2026, godz. 10:30",
		},
		{
			name:     "first occurrence only",
			template: "[adres] oraz [adres]",
			values:   Values{Address: "ul. Polna 1"},
			want:     "ul. Polna 1 oraz [adres]",
		},
		{
			name:     "no tokens",
			template: "Dzień dobry",
			values:   Values{Address: "x", Date: "y", Time: "z"},
			want:     "Dzień dobry",
		},
		{
			name:     "empty values substitute as empty",
			template: "A:[adres] D:[data] G:[godzina]",
			values:   Values{},
			want:     "A: D: G:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.template, tt.values); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2026-03-15", "15.03.2026"},
		{"2025-12-01", "01.12.2025"},
		{"not-a-date", "not-a-date"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestForMeeting(t *testing.T) {
	m := model.Meeting{Address: "ul. Polna 1", Date: "2026-03-15", Time: "10:30"}
	got := ForMeeting(m)
	want := Values{Address: "ul. Polna 1", Date: "15.03.2026", Time: "10:30"}
	if got != want {
		t.Errorf("ForMeeting = %+v, want %+v", got, want)
	}
}

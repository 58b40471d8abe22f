package format

import (
	"strings"
	"testing"

	"github.com/genricoloni/cmusrpc/internal/domain"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    string
	}{
		{"zero", 0, "0:00"},
		{"single digit seconds", 5, "0:05"},
		{"minute and seconds", 65, "1:05"},
		{"just under an hour", 3599, "59:59"},
		{"one hour", 3600, "1:00:00"},
		{"hour minute second", 3661, "1:01:01"},
		{"two digit hours", 36000, "10:00:00"},
		{"days fold into hours", 90000, "25:00:00"},
		{"hours clipped", 999*3600 + 3600*5 + 61, "999:01:01"},
		{"negative treated as zero", -10, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.seconds); got != tt.want {
				t.Errorf("Duration(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestDuration_HoursSegmentOnlyWhenPresent(t *testing.T) {
	for s := 0; s < 2*3600; s += 37 {
		got := Duration(s)
		parts := strings.Split(got, ":")
		wantParts := 2
		if s >= 3600 {
			wantParts = 3
		}
		if len(parts) != wantParts {
			t.Fatalf("Duration(%d) = %q, want %d segments", s, got, wantParts)
		}
		for _, p := range parts[1:] {
			if len(p) != 2 {
				t.Fatalf("Duration(%d) = %q, trailing segment %q is not two digits", s, got, p)
			}
		}
	}
}

func TestRender(t *testing.T) {
	status := domain.Status{
		Artist:   "Y",
		Album:    "Album",
		Title:    "X",
		Genre:    "Rock",
		Date:     "1999",
		Duration: 200,
		Position: 65,
	}

	tests := []struct {
		name   string
		tmpl   string
		status domain.Status
		want   string
	}{
		{"title by artist", "%t by %a", status, "X by Y"},
		{"all keys", "%a|%l|%t|%g|%y|%u|%p", status, "Y|Album|X|Rock|1999|3:20|1:05"},
		{"no placeholders", "just text", status, "just text"},
		{"empty template", "", status, ""},
		{"unknown key untouched", "%x %t", status, "%x X"},
		{"trailing percent", "100%", status, "100%"},
		{"escaped percent", "100%% %t", status, "100% X"},
		{"escape before key", "%%%t", domain.Status{Title: "5"}, "%5"},
		{"escaped key stays literal", "%%t", status, "%t"},
		{"value containing percent", "%t%%", domain.Status{Title: "50%"}, "50%%"},
		{"value containing key", "%t %a", domain.Status{Title: "%a", Artist: "Z"}, "%a Z"},
		{"repeated keys", "%t-%t", status, "X-X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.tmpl, tt.status); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestRender_EscapeIsIndependentOfValues(t *testing.T) {
	values := []string{"", "%", "%%", "%t", "a%b", "\x00"}
	for _, v := range values {
		s := domain.Status{Artist: v, Title: v, Album: v, Genre: v, Date: v}
		got := Render("[%%]", s)
		if got != "[%]" {
			t.Errorf("Render with values %q = %q, want %q", v, got, "[%]")
		}
	}
}

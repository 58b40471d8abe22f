package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/genricoloni/cmusrpc/internal/config"
	"github.com/genricoloni/cmusrpc/internal/domain"
	"go.uber.org/zap"
)

// fakeMPDClient is a canned MPD connection
type fakeMPDClient struct {
	status    mpd.Attrs
	song      mpd.Attrs
	statusErr error
	songErr   error
	closed    bool
}

func (f *fakeMPDClient) Status() (mpd.Attrs, error)      { return f.status, f.statusErr }
func (f *fakeMPDClient) CurrentSong() (mpd.Attrs, error) { return f.song, f.songErr }
func (f *fakeMPDClient) Close() error {
	f.closed = true
	return nil
}

func TestMPDProbe_Probe(t *testing.T) {
	tests := []struct {
		name        string
		client      *fakeMPDClient
		dialErr     error
		expectError bool
		expected    domain.Status
	}{
		{
			name: "Success - Playing",
			client: &fakeMPDClient{
				status: mpd.Attrs{"state": "play", "elapsed": "12.736", "duration": "245.110"},
				song: mpd.Attrs{
					"file":   "Led Zeppelin/IV/04 Stairway to Heaven.flac",
					"Artist": "Led Zeppelin",
					"Album":  "IV",
					"Title":  "Stairway to Heaven",
					"Genre":  "Rock",
					"Date":   "1971",
				},
			},
			expected: domain.Status{
				Path:     "Led Zeppelin/IV/04 Stairway to Heaven.flac",
				Playing:  true,
				Artist:   "Led Zeppelin",
				Album:    "IV",
				Title:    "Stairway to Heaven",
				Genre:    "Rock",
				Date:     "1971",
				Duration: 245,
				Position: 12,
			},
		},
		{
			name: "Paused Untagged Uses Path And Time",
			client: &fakeMPDClient{
				status: mpd.Attrs{"state": "pause", "elapsed": "3"},
				song:   mpd.Attrs{"file": "misc/Artist - Title.mp3", "Time": "180"},
			},
			expected: domain.Status{
				Path:     "misc/Artist - Title.mp3",
				Artist:   "Artist",
				Album:    "Unknown",
				Title:    "Title",
				Genre:    "Unknown",
				Date:     "Unknown",
				Duration: 180,
				Position: 3,
			},
		},
		{
			name:        "Dial Fails",
			dialErr:     errors.New("connection refused"),
			expectError: true,
		},
		{
			name: "Status Fails",
			client: &fakeMPDClient{
				statusErr: errors.New("broken pipe"),
			},
			expectError: true,
		},
		{
			name: "CurrentSong Fails",
			client: &fakeMPDClient{
				status:  mpd.Attrs{"state": "play"},
				songErr: errors.New("broken pipe"),
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewMPDProbe(zap.NewNop(), config.MPDConfig{Address: "localhost:6600", Password: "pw"}, "Unknown")

			var gotNetwork, gotPassword string
			p.dial = func(network, addr, password string) (mpdClient, error) {
				gotNetwork, gotPassword = network, password
				if tt.dialErr != nil {
					return nil, tt.dialErr
				}
				return tt.client, nil
			}

			got, err := p.Probe(context.Background())

			if gotNetwork != "tcp" || gotPassword != "pw" {
				t.Errorf("dial called with network=%q password=%q", gotNetwork, gotPassword)
			}
			if tt.client != nil && !tt.client.closed {
				t.Error("Connection was not closed after probe")
			}
			if tt.expectError {
				if !errors.Is(err, domain.ErrPlayerUnreachable) {
					t.Errorf("Expected ErrPlayerUnreachable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Status mismatch:\nwant %+v\ngot  %+v", tt.expected, got)
			}
		})
	}
}

func TestMPDProbe_CancelledContext(t *testing.T) {
	p := NewMPDProbe(zap.NewNop(), config.MPDConfig{}, "Unknown")
	p.dial = func(string, string, string) (mpdClient, error) {
		t.Fatal("dial must not be called with a cancelled context")
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Probe(ctx); !errors.Is(err, domain.ErrPlayerUnreachable) {
		t.Errorf("Expected ErrPlayerUnreachable, got %v", err)
	}
}

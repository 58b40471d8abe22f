package presence

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/genricoloni/cmusrpc/internal/domain"
	"github.com/genricoloni/cmusrpc/internal/presence/ipc"
	"github.com/genricoloni/cmusrpc/internal/presence/ipc/ipctest"
	"github.com/genricoloni/cmusrpc/internal/presence/mocks"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestDiscord_Connect(t *testing.T) {
	tests := []struct {
		name        string
		loginErr    error
		expectError bool
	}{
		{name: "Success"},
		{name: "Discord Not Running", loginErr: errors.New("dial unix /run/user/1000/discord-ipc-0: connect: no such file"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			rpc := mocks.NewMockRPC(ctrl)
			rpc.EXPECT().Login(gomock.Any(), "123").Return(tt.loginErr)

			d := newDiscord(zap.NewNop(), rpc, "123")
			err := d.Connect(context.Background())

			if tt.expectError {
				if !errors.Is(err, domain.ErrServiceUnreachable) {
					t.Errorf("Expected ErrServiceUnreachable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
		})
	}
}

func TestDiscord_Push(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	start := time.Unix(1_700_000_000, 0)
	rpc := mocks.NewMockRPC(ctrl)
	gomock.InOrder(
		rpc.EXPECT().Login(gomock.Any(), "123").Return(nil),
		rpc.EXPECT().SetActivity(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a ipc.Activity) error {
			if a.State != "Queen" || a.Details != "Bohemian Rhapsody" {
				t.Errorf("Unexpected texts %q/%q", a.State, a.Details)
			}
			if a.Assets == nil || a.Assets.LargeImage != "cmus1" || a.Assets.SmallImage != "playing1" {
				t.Errorf("Unexpected assets %+v", a.Assets)
			}
			if a.Timestamps == nil || a.Timestamps.Start != start.UnixMilli() {
				t.Errorf("Unexpected timestamps %+v", a.Timestamps)
			}
			if len(a.Buttons) != 1 || a.Buttons[0].Label != "Listen" || a.Buttons[0].URL != "https://example.com" {
				t.Errorf("Unexpected buttons %+v", a.Buttons)
			}
			return nil
		}),
		rpc.EXPECT().SetActivity(gomock.Any(), gomock.Any()).Return(errors.New("broken pipe")),
	)

	d := newDiscord(zap.NewNop(), rpc, "123")
	if err := d.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	update := domain.PresenceUpdate{
		State:      "Queen",
		Details:    "Bohemian Rhapsody",
		LargeImage: "cmus1",
		SmallImage: "playing1",
		Start:      start,
		Buttons:    []domain.Button{{Label: "Listen", URL: "https://example.com"}},
	}
	if err := d.Push(context.Background(), update); err != nil {
		t.Fatalf("First push failed: %v", err)
	}
	if err := d.Push(context.Background(), update); !errors.Is(err, domain.ErrServiceLinkLost) {
		t.Fatalf("Expected ErrServiceLinkLost, got %v", err)
	}
}

func TestDiscord_LinkLost(t *testing.T) {
	conn, peer := ipctest.Pipe()
	t.Cleanup(func() {
		peer.Close()
		conn.Close()
	})

	// Discord answers the first update and then quits
	served := make(chan error, 1)
	go func() {
		defer peer.Close()
		if _, err := peer.Handshake(); err != nil {
			served <- err
			return
		}
		_, err := peer.Acknowledge()
		served <- err
	}()

	client := ipc.NewClientWithDialer(func(context.Context) (net.Conn, error) {
		return conn, nil
	})
	d := newDiscord(zap.NewNop(), client, "123")
	if err := d.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	update := domain.PresenceUpdate{State: "Radiohead", Details: "Reckoner"}
	if err := d.Push(context.Background(), update); err != nil {
		t.Fatalf("First push failed: %v", err)
	}
	if err := <-served; err != nil {
		t.Fatalf("Peer failed: %v", err)
	}

	if err := d.Push(context.Background(), update); !errors.Is(err, domain.ErrServiceLinkLost) {
		t.Fatalf("Expected ErrServiceLinkLost, got %v", err)
	}

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after the peer hung up")
	}
}

func TestDiscord_PushBeforeConnect(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d := newDiscord(zap.NewNop(), mocks.NewMockRPC(ctrl), "123")
	if err := d.Push(context.Background(), domain.PresenceUpdate{}); !errors.Is(err, domain.ErrServiceLinkLost) {
		t.Fatalf("Expected ErrServiceLinkLost, got %v", err)
	}
}

func TestDiscord_CloseOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rpc := mocks.NewMockRPC(ctrl)
	rpc.EXPECT().Login(gomock.Any(), "123").Return(nil)
	rpc.EXPECT().Logout().Return(nil).Times(1)

	d := newDiscord(zap.NewNop(), rpc, "123")
	if err := d.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	d.Close()
	d.Close()
}

func TestDiscord_CloseWithoutConnect(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Logout must not be called when no connection was established
	d := newDiscord(zap.NewNop(), mocks.NewMockRPC(ctrl), "123")
	d.Close()
}

func TestToActivity(t *testing.T) {
	long := strings.Repeat("x", 200)

	tests := []struct {
		name   string
		update domain.PresenceUpdate
		check  func(*testing.T, ipc.Activity)
	}{
		{
			name:   "No Timestamp",
			update: domain.PresenceUpdate{State: "ab"},
			check: func(t *testing.T, a ipc.Activity) {
				if a.Timestamps != nil {
					t.Errorf("Expected no timestamps, got %+v", a.Timestamps)
				}
			},
		},
		{
			name:   "No Images",
			update: domain.PresenceUpdate{State: "ab"},
			check: func(t *testing.T, a ipc.Activity) {
				if a.Assets != nil {
					t.Errorf("Expected no assets, got %+v", a.Assets)
				}
			},
		},
		{
			name:   "Small Image Only",
			update: domain.PresenceUpdate{SmallImage: "paused1"},
			check: func(t *testing.T, a ipc.Activity) {
				if a.Assets == nil || a.Assets.SmallImage != "paused1" || a.Assets.LargeImage != "" {
					t.Errorf("Unexpected assets %+v", a.Assets)
				}
			},
		},
		{
			name:   "Short Texts Are Padded",
			update: domain.PresenceUpdate{State: "a", Details: "b"},
			check: func(t *testing.T, a ipc.Activity) {
				if len([]rune(a.State)) != 2 || !strings.HasPrefix(a.State, "a") {
					t.Errorf("State = %q", a.State)
				}
				if len([]rune(a.Details)) != 2 {
					t.Errorf("Details = %q", a.Details)
				}
			},
		},
		{
			name:   "Empty Texts Stay Empty",
			update: domain.PresenceUpdate{},
			check: func(t *testing.T, a ipc.Activity) {
				if a.State != "" || a.Details != "" {
					t.Errorf("Expected empty texts, got %q/%q", a.State, a.Details)
				}
			},
		},
		{
			name:   "Long Texts Are Truncated",
			update: domain.PresenceUpdate{State: long, Details: long},
			check: func(t *testing.T, a ipc.Activity) {
				if len(a.State) != maxTextLen || len(a.Details) != maxTextLen {
					t.Errorf("Lengths = %d/%d", len(a.State), len(a.Details))
				}
			},
		},
		{
			name: "At Most Two Buttons With Short Labels",
			update: domain.PresenceUpdate{Buttons: []domain.Button{
				{Label: long, URL: "https://a"},
				{Label: "two", URL: "https://b"},
				{Label: "three", URL: "https://c"},
			}},
			check: func(t *testing.T, a ipc.Activity) {
				if len(a.Buttons) != 2 {
					t.Fatalf("Expected 2 buttons, got %d", len(a.Buttons))
				}
				if len(a.Buttons[0].Label) != maxLabelLen {
					t.Errorf("Label length = %d", len(a.Buttons[0].Label))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, toActivity(tt.update))
		})
	}
}

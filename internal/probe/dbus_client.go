package probe

import (
	"github.com/godbus/dbus/v5"
)

// DBusClient is the part of the session bus used to read MPRIS players.
// MprisProbe only polls properties, it never subscribes to signals.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/cmusrpc/internal/probe DBusClient
type DBusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// ListNames returns all names on the bus
	ListNames() ([]string, error)

	// GetProperty reads prop of the object at path owned by player,
	// e.g. org.mpris.MediaPlayer2.Player.Metadata of /org/mpris/MediaPlayer2
	// on org.mpris.MediaPlayer2.cmus
	GetProperty(player, path, prop string) (dbus.Variant, error)
}

// StdDBusClient talks to the session bus through godbus
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient opens a private connection to the session bus
func NewStdDBusClient() (*StdDBusClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

// Close closes the private session bus connection
func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

// ListNames returns all names on the bus
func (c *StdDBusClient) ListNames() ([]string, error) {
	var names []string
	err := c.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	return names, err
}

// GetProperty retrieves a property from a D-Bus object
func (c *StdDBusClient) GetProperty(player, path, prop string) (dbus.Variant, error) {
	obj := c.conn.Object(player, dbus.ObjectPath(path))
	return obj.GetProperty(prop)
}

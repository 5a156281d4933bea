// This package sends encoded TSPL command streams to printers. A connection is owned
// by exactly one job between Open and Close; the Spooler serialises jobs per device.
package printer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"
)

// Connection is an open stream to one printer.
type Connection interface {
	// Send writes one command line. The line terminator is added by the connection.
	Send(command string) error
	Close() error
}

// Dialer opens connections for selectors.
type Dialer interface {
	Open(ctx context.Context, sel Selector) (Connection, error)
}

const lineEnding = "\r\n"

// streamConnection writes commands to any byte stream: a TCP socket, a USB printer
// device node, a file or stdout.
type streamConnection struct {
	w       io.Writer
	closer  io.Closer
	timeout time.Duration
}

func (c *streamConnection) Send(command string) error {
	if conn, ok := c.w.(net.Conn); ok && c.timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return fmt.Errorf("Couldn't set write deadline:\n%w", err)
		}
	}
	if _, err := io.WriteString(c.w, command+lineEnding); err != nil {
		return err
	}
	slog.Debug("Wrote command to device", "size", len(command))
	return nil
}

func (c *streamConnection) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// DeviceDialer opens real printer connections.
type DeviceDialer struct {
	// Timeout bounds TCP connects and each write. Zero means no timeout.
	Timeout time.Duration
	// Stdout receives commands for the "-" selector.
	Stdout io.Writer
	// BLEChunkSize is the largest single BLE write; see BluetoothConnection.
	BLEChunkSize int
}

func (d *DeviceDialer) Open(ctx context.Context, sel Selector) (Connection, error) {
	switch sel.Kind {
	case TCP:
		nd := net.Dialer{Timeout: d.Timeout}
		conn, err := nd.DialContext(ctx, "tcp", sel.Address)
		if err != nil {
			return nil, fmt.Errorf("Couldn't connect to %s:\n%w", sel.Address, err)
		}
		return &streamConnection{w: conn, closer: conn, timeout: d.Timeout}, nil
	case USB, File:
		flags := os.O_WRONLY
		if sel.Kind == File {
			flags |= os.O_CREATE | os.O_APPEND
		}
		f, err := os.OpenFile(sel.Address, flags, 0o644)
		if err != nil {
			return nil, fmt.Errorf("Couldn't open %s:\n%w", sel.Address, err)
		}
		return &streamConnection{w: f, closer: f}, nil
	case Stdout:
		w := d.Stdout
		if w == nil {
			w = os.Stdout
		}
		return &streamConnection{w: w}, nil
	case BLE:
		c, err := FromBluetoothName(ctx, sel.Address, d.BLEChunkSize)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSelector, sel)
	}
}

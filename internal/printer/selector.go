package printer

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultPort is the raw TCP port TSPL printers listen on.
const DefaultPort = "9100"

var ErrUnsupportedSelector = errors.New("unsupported device selector")

type SelectorKind int

const (
	TCP SelectorKind = iota + 1
	BLE
	USB
	File
	Stdout
)

func (k SelectorKind) String() string {
	switch k {
	case TCP:
		return "tcp"
	case BLE:
		return "ble"
	case USB:
		return "usb"
	case File:
		return "file"
	case Stdout:
		return "stdout"
	default:
		return "unknown"
	}
}

// Selector identifies one printer. Address is host:port for TCP, the advertised
// local name for BLE and a filesystem path for USB and File.
type Selector struct {
	Kind    SelectorKind
	Address string
}

func (s Selector) String() string {
	if s.Kind == Stdout {
		return "-"
	}
	return s.Kind.String() + ":" + s.Address
}

// ParseSelector understands
//
//	tcp:host[:port]   raw TCP, port 9100 unless given
//	host:port or IP   same as tcp:
//	ble:NAME          Bluetooth LE printer advertising NAME
//	usb:N or N        /dev/usb/lpN
//	file:PATH         any writable file or device node
//	-                 standard output
//
// Windows driver names are not supported.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selector{}, fmt.Errorf("%w: empty selector", ErrUnsupportedSelector)
	}
	if s == "-" {
		return Selector{Kind: Stdout}, nil
	}

	if scheme, rest, ok := strings.Cut(s, ":"); ok {
		switch strings.ToLower(scheme) {
		case "tcp":
			return tcpSelector(rest)
		case "ble":
			if rest == "" {
				return Selector{}, fmt.Errorf("%w: ble selector needs a device name", ErrUnsupportedSelector)
			}
			return Selector{Kind: BLE, Address: rest}, nil
		case "usb":
			return usbSelector(rest)
		case "file":
			if rest == "" {
				return Selector{}, fmt.Errorf("%w: file selector needs a path", ErrUnsupportedSelector)
			}
			return Selector{Kind: File, Address: rest}, nil
		}
	}

	if _, err := strconv.Atoi(s); err == nil {
		return usbSelector(s)
	}
	if net.ParseIP(s) != nil {
		return tcpSelector(s)
	}
	if _, port, err := net.SplitHostPort(s); err == nil {
		if _, err := strconv.Atoi(port); err == nil {
			return tcpSelector(s)
		}
	}
	return Selector{}, fmt.Errorf("%w: %q", ErrUnsupportedSelector, s)
}

func tcpSelector(hostport string) (Selector, error) {
	if hostport == "" {
		return Selector{}, fmt.Errorf("%w: tcp selector needs a host", ErrUnsupportedSelector)
	}
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		// no port, or a bare IPv6 address
		host, port = strings.Trim(hostport, "[]"), DefaultPort
	}
	if p, err := strconv.Atoi(port); err != nil || p <= 0 || p > 65535 {
		return Selector{}, fmt.Errorf("%w: bad port %q", ErrUnsupportedSelector, port)
	}
	return Selector{Kind: TCP, Address: net.JoinHostPort(host, port)}, nil
}

func usbSelector(n string) (Selector, error) {
	i, err := strconv.Atoi(n)
	if err != nil || i < 0 {
		return Selector{}, fmt.Errorf("%w: bad usb index %q", ErrUnsupportedSelector, n)
	}
	return Selector{Kind: USB, Address: fmt.Sprintf("/dev/usb/lp%d", i)}, nil
}

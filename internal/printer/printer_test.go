package printer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomgalvin.uk/tsclabel/internal/label"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		in   string
		want Selector
	}{
		{"-", Selector{Kind: Stdout}},
		{"tcp:192.168.1.50", Selector{Kind: TCP, Address: "192.168.1.50:9100"}},
		{"tcp:printer.local:6101", Selector{Kind: TCP, Address: "printer.local:6101"}},
		{"192.168.1.50", Selector{Kind: TCP, Address: "192.168.1.50:9100"}},
		{"192.168.1.50:9101", Selector{Kind: TCP, Address: "192.168.1.50:9101"}},
		{"localhost:9100", Selector{Kind: TCP, Address: "localhost:9100"}},
		{"::1", Selector{Kind: TCP, Address: "[::1]:9100"}},
		{"ble:TSC-BT", Selector{Kind: BLE, Address: "TSC-BT"}},
		{"usb:1", Selector{Kind: USB, Address: "/dev/usb/lp1"}},
		{"0", Selector{Kind: USB, Address: "/dev/usb/lp0"}},
		{"file:/tmp/out.prn", Selector{Kind: File, Address: "/tmp/out.prn"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSelector(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSelectorRejects(t *testing.T) {
	for _, in := range []string{"", "TSC TTP-244 Pro", "ble:", "usb:-1", "usb:x", "file:", "tcp:", "tcp:host:99999"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSelector(in)
			assert.ErrorIs(t, err, ErrUnsupportedSelector)
		})
	}
}

type fakeConn struct {
	d      *fakeDialer
	failAt int
	sent   []string
}

func (c *fakeConn) Send(command string) error {
	if c.failAt > 0 && len(c.sent)+1 == c.failAt {
		return errors.New("connection reset")
	}
	c.sent = append(c.sent, command)
	return nil
}

func (c *fakeConn) Close() error {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.closed++
	c.d.sent = append(c.d.sent, c.sent...)
	atomic.AddInt32(&c.d.open, -1)
	return nil
}

type fakeDialer struct {
	mu      sync.Mutex
	openErr error
	failAt  int
	closed  int
	sent    []string
	open    int32
	overlap bool
}

func (d *fakeDialer) Open(ctx context.Context, sel Selector) (Connection, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	if atomic.AddInt32(&d.open, 1) > 1 {
		d.mu.Lock()
		d.overlap = true
		d.mu.Unlock()
	}
	return &fakeConn{d: d, failAt: d.failAt}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var threeSheets = [][]string{
	{"CLS", "TEXT 1", "PRINT 1,1"},
	{"CLS", "TEXT 2", "PRINT 1,1"},
	{"CLS", "TEXT 3", "PRINT 1,1"},
}

func TestSpoolerPrint(t *testing.T) {
	d := &fakeDialer{}
	s := NewSpooler(discard(), d, Throttle{})
	res, err := s.Print(context.Background(), Selector{Kind: Stdout}, threeSheets)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Sheets)
	assert.Equal(t, 9, res.Commands)
	assert.NotEmpty(t, res.JobID.String())
	assert.Equal(t, 1, d.closed)
	assert.Equal(t, []string{
		"CLS", "TEXT 1", "PRINT 1,1",
		"CLS", "TEXT 2", "PRINT 1,1",
		"CLS", "TEXT 3", "PRINT 1,1",
	}, d.sent)
}

func TestSpoolerAbortsOnSendFailure(t *testing.T) {
	d := &fakeDialer{failAt: 5}
	s := NewSpooler(discard(), d, Throttle{})
	res, err := s.Print(context.Background(), Selector{Kind: Stdout}, threeSheets)
	require.Error(t, err)
	assert.True(t, label.IsKind(err, label.KindTransport))
	assert.Equal(t, 1, SentSheets(err))
	assert.Equal(t, 1, res.Sheets)
	assert.Equal(t, 1, d.closed)
	assert.Equal(t, []string{"CLS", "TEXT 1", "PRINT 1,1", "CLS"}, d.sent)
}

func TestSpoolerOpenFailure(t *testing.T) {
	d := &fakeDialer{openErr: errors.New("no route to host")}
	s := NewSpooler(discard(), d, Throttle{})
	_, err := s.Print(context.Background(), Selector{Kind: TCP, Address: "10.0.0.1:9100"}, threeSheets)
	assert.True(t, label.IsKind(err, label.KindTransport))
	assert.Equal(t, -1, SentSheets(err))
	assert.Equal(t, 0, d.closed)

	assert.True(t, label.IsKind(s.Check(context.Background(), Selector{Kind: Stdout}), label.KindTransport))
}

func TestSpoolerSerialisesPerDevice(t *testing.T) {
	d := &fakeDialer{}
	s := NewSpooler(discard(), d, Throttle{Delay: time.Millisecond})
	sel := Selector{Kind: TCP, Address: "10.0.0.1:9100"}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Print(context.Background(), sel, threeSheets)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, d.overlap)
	assert.Equal(t, 8, d.closed)
	assert.Len(t, d.sent, 8*9)
}

func TestSpoolerCancelledBetweenSheets(t *testing.T) {
	d := &fakeDialer{}
	ctx, cancel := context.WithCancel(context.Background())
	th := Throttle{Delay: time.Second}
	th.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}
	s := NewSpooler(discard(), d, th)
	res, err := s.Print(ctx, Selector{Kind: Stdout}, threeSheets)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Sheets)
	assert.Equal(t, 1, d.closed)
}

func TestThrottle(t *testing.T) {
	th := Throttle{Delay: 500 * time.Millisecond, CooldownEvery: 50, Cooldown: time.Minute}
	assert.Equal(t, time.Duration(0), th.Pause(0))
	assert.Equal(t, 500*time.Millisecond, th.Pause(1))
	assert.Equal(t, 500*time.Millisecond, th.Pause(49))
	assert.Equal(t, time.Minute+500*time.Millisecond, th.Pause(50))
	assert.Equal(t, time.Minute+500*time.Millisecond, th.Pause(100))

	var slept []time.Duration
	th.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	for i := range 3 {
		require.NoError(t, th.Wait(context.Background(), i))
	}
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, slept)

	assert.NoError(t, Throttle{}.Wait(context.Background(), 10))
}

func TestDeviceDialerTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(received)
			return
		}
		defer conn.Close()
		var lines []string
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		received <- lines
	}()

	sel, err := ParseSelector("tcp:" + ln.Addr().String())
	require.NoError(t, err)

	s := NewSpooler(discard(), &DeviceDialer{Timeout: 2 * time.Second}, Throttle{})
	_, err = s.Print(context.Background(), sel, threeSheets[:1])
	require.NoError(t, err)

	select {
	case lines := <-received:
		assert.Equal(t, []string{"CLS", "TEXT 1", "PRINT 1,1"}, lines)
	case <-time.After(5 * time.Second):
		t.Fatal("printer never received the job")
	}
}

func TestDeviceDialerFileAndStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.prn")
	s := NewSpooler(discard(), &DeviceDialer{}, Throttle{})
	_, err := s.Print(context.Background(), Selector{Kind: File, Address: path}, threeSheets[:1])
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "CLS\r\nTEXT 1\r\nPRINT 1,1\r\n", string(data))

	var buf bytes.Buffer
	s = NewSpooler(discard(), &DeviceDialer{Stdout: &buf}, Throttle{})
	_, err = s.Print(context.Background(), Selector{Kind: Stdout}, threeSheets[1:2])
	require.NoError(t, err)
	assert.Equal(t, "CLS\r\nTEXT 2\r\nPRINT 1,1\r\n", buf.String())

	_, err = s.Print(context.Background(), Selector{Kind: USB, Address: filepath.Join(t.TempDir(), "missing", "lp9")}, threeSheets)
	assert.True(t, label.IsKind(err, label.KindTransport))
}

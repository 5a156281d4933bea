package printer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"tomgalvin.uk/tsclabel/internal/label"
)

// SendError reports how far a job got before its connection failed.
type SendError struct {
	Sent, Total int
	Err         error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%d of %d sheets sent: %v", e.Sent, e.Total, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Result describes a finished job.
type Result struct {
	JobID    uuid.UUID
	Sheets   int
	Commands int
}

// Spooler sends whole jobs to printers. Jobs for the same device run one at a time so
// their command streams never interleave; jobs for different devices run in parallel.
type Spooler struct {
	dialer   Dialer
	throttle Throttle
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSpooler(logger *slog.Logger, d Dialer, t Throttle) *Spooler {
	return &Spooler{
		dialer:   d,
		throttle: t,
		logger:   logger,
		locks:    map[string]*sync.Mutex{},
	}
}

func (s *Spooler) lock(sel Selector) func() {
	s.mu.Lock()
	m, ok := s.locks[sel.String()]
	if !ok {
		m = &sync.Mutex{}
		s.locks[sel.String()] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Print opens sel, sends every sheet in order and closes the connection. sheets must be
// fully encoded beforehand. A failed send aborts the remaining sheets; nothing is retried.
func (s *Spooler) Print(ctx context.Context, sel Selector, sheets [][]string) (Result, error) {
	res := Result{JobID: uuid.New()}
	logger := s.logger.With("job", res.JobID.String(), "device", sel.String())

	unlock := s.lock(sel)
	defer unlock()

	conn, err := s.dialer.Open(ctx, sel)
	if err != nil {
		logger.Error("Couldn't open printer", "err", err)
		return res, label.TransportError("open", err, "couldn't open %s", sel)
	}
	logger.Info("Printing job", "sheets", len(sheets))

	sendErr := s.send(ctx, logger, conn, sheets, &res)

	if err := conn.Close(); err != nil {
		logger.Error("Couldn't close printer", "err", err)
		if sendErr == nil {
			return res, label.TransportError("close", err, "couldn't close %s", sel)
		}
	}
	if sendErr != nil {
		logger.Error("Job aborted", "sent", res.Sheets, "total", len(sheets), "err", sendErr)
		return res, label.TransportError("send", sendErr, "job %s aborted", res.JobID)
	}

	logger.Info("Job finished", "sheets", res.Sheets, "commands", res.Commands)
	return res, nil
}

func (s *Spooler) send(ctx context.Context, logger *slog.Logger, conn Connection, sheets [][]string, res *Result) error {
	for i, sheet := range sheets {
		if err := s.throttle.Wait(ctx, i); err != nil {
			return &SendError{Sent: i, Total: len(sheets), Err: err}
		}
		for _, cmd := range sheet {
			if err := conn.Send(cmd); err != nil {
				return &SendError{Sent: i, Total: len(sheets), Err: err}
			}
			res.Commands++
		}
		res.Sheets++
		logger.Debug("Sent sheet", "sheet", i+1, "commands", len(sheet))
	}
	return nil
}

// Check opens and closes sel without sending anything.
func (s *Spooler) Check(ctx context.Context, sel Selector) error {
	unlock := s.lock(sel)
	defer unlock()

	conn, err := s.dialer.Open(ctx, sel)
	if err != nil {
		return label.TransportError("open", err, "couldn't open %s", sel)
	}
	if err := conn.Close(); err != nil {
		return label.TransportError("close", err, "couldn't close %s", sel)
	}
	return nil
}

// SentSheets returns how many sheets reached the printer before err, or -1 when err
// did not come from a send.
func SentSheets(err error) int {
	var se *SendError
	if errors.As(err, &se) {
		return se.Sent
	}
	return -1
}

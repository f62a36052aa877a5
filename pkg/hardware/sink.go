// Package hardware relays single-byte commands to the microcontroller that drives the
// complex's party light and disturbance alarm.
package hardware

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/noah-isme/housing-board-api/pkg/config"
	appErrors "github.com/noah-isme/housing-board-api/pkg/errors"
)

// Command is the raw payload written to the actuator.
type Command string

const (
	CommandLightOn Command = "1"
	CommandAlarmOn Command = "2"
)

// Sink is the output port towards the actuator. Nothing is read back.
type Sink interface {
	Send(ctx context.Context, cmd Command) error
}

// SerialSink writes commands to a serial line. Writes are serialised so bytes from concurrent
// triggers never interleave.
type SerialSink struct {
	mu   sync.Mutex
	name string
	port io.WriteCloser
}

// OpenSerial opens the configured serial device.
func OpenSerial(cfg config.HardwareConfig) (*SerialSink, error) {
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Port, err)
	}
	return NewSerialSink(cfg.Port, port), nil
}

// NewSerialSink wraps an already opened port.
func NewSerialSink(name string, port io.WriteCloser) *SerialSink {
	return &SerialSink{name: name, port: port}
}

// Send writes the command bytes verbatim.
func (s *SerialSink) Send(ctx context.Context, cmd Command) error {
	if cmd == "" {
		return appErrors.Clone(appErrors.ErrSinkWrite, "empty hardware command")
	}
	if err := ctx.Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrSinkWrite.Code, appErrors.ErrSinkWrite.Status, "hardware command cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.port.Write([]byte(cmd))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrSinkWrite.Code, appErrors.ErrSinkWrite.Status, fmt.Sprintf("write %q to %s", cmd, s.name))
	}
	if n != len(cmd) {
		return appErrors.Wrap(io.ErrShortWrite, appErrors.ErrSinkWrite.Code, appErrors.ErrSinkWrite.Status, fmt.Sprintf("write %q to %s", cmd, s.name))
	}
	return nil
}

// Close releases the serial device.
func (s *SerialSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}

// LogSink stands in for the actuator when none is attached.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink builds a sink that only logs.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Send logs the command.
func (s *LogSink) Send(ctx context.Context, cmd Command) error {
	s.logger.Info("hardware command", zap.String("command", string(cmd)))
	return nil
}

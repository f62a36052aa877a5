package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/housing-board-api/internal/models"
	"github.com/noah-isme/housing-board-api/pkg/config"
	"github.com/noah-isme/housing-board-api/pkg/hardware"
)

type broadcaster interface {
	Broadcast(event models.BroadcastEvent) (int, error)
}

type hardwareObserver interface {
	ObserveHardwareCommand(source string, err error)
}

// TriggerService emits the light and alarm signals: first to connected clients, then to the
// actuator. Neither step can fail the caller.
type TriggerService struct {
	hub     broadcaster
	sink    hardware.Sink
	metrics hardwareObserver
	color   string
	sound   string
	logger  *zap.Logger
}

// NewTriggerService constructs the service.
func NewTriggerService(hub broadcaster, sink hardware.Sink, metrics hardwareObserver, cfg config.RealtimeConfig, logger *zap.Logger) *TriggerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = hardware.NewLogSink(logger)
	}
	if cfg.LightColor == "" {
		cfg.LightColor = "orange"
	}
	if cfg.AlarmSound == "" {
		cfg.AlarmSound = "siren"
	}
	return &TriggerService{hub: hub, sink: sink, metrics: metrics, color: cfg.LightColor, sound: cfg.AlarmSound, logger: logger}
}

// TriggerLight announces a new party.
func (s *TriggerService) TriggerLight(ctx context.Context) {
	s.emit(ctx, models.BroadcastEvent{
		Kind:    models.EventTriggerLight,
		Payload: models.LightTrigger{State: models.TriggerStateOn, Color: s.color},
	}, hardware.CommandLightOn)
}

// TriggerAlarm signals a disturbance report.
func (s *TriggerService) TriggerAlarm(ctx context.Context) {
	s.emit(ctx, models.BroadcastEvent{
		Kind:    models.EventTriggerAlarm,
		Payload: models.AlarmTrigger{State: models.TriggerStateOn, Sound: s.sound},
	}, hardware.CommandAlarmOn)
}

func (s *TriggerService) emit(ctx context.Context, event models.BroadcastEvent, cmd hardware.Command) {
	if s.hub != nil {
		n, err := s.hub.Broadcast(event)
		if err != nil {
			s.logger.Error("broadcast failed", zap.String("event", string(event.Kind)), zap.Error(err))
		} else {
			s.logger.Debug("broadcast sent", zap.String("event", string(event.Kind)), zap.Int("recipients", n))
		}
	}

	err := s.sink.Send(ctx, cmd)
	if s.metrics != nil {
		s.metrics.ObserveHardwareCommand(string(event.Kind), err)
	}
	if err != nil {
		s.logger.Warn("hardware relay failed", zap.String("event", string(event.Kind)), zap.String("command", string(cmd)), zap.Error(err))
	}
}

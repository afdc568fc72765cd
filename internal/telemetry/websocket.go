package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

const (
	typeHello     = "hello"
	typeTelemetry = "telemetry"
	typeAck       = "ack"
)

// Envelope is the frame sent over the live-map socket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ackMessage struct {
	Type string `json:"type"`
	For  string `json:"for"`
}

// Hello introduces this server to the live-map consumer.
type Hello struct {
	Server string  `json:"server"`
	Scale  float64 `json:"scale"`
}

// WebSocketConfig holds live-map stream settings.
type WebSocketConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Secret  string `json:"secret" mapstructure:"secret"`
}

// WebSocketSink streams samples as JSON frames over a reconnecting socket.
type WebSocketSink struct {
	cfg  WebSocketConfig
	conn *connection
}

func NewWebSocketSink(cfg WebSocketConfig, log *slog.Logger) *WebSocketSink {
	if log == nil {
		log = slog.Default()
	}
	return &WebSocketSink{cfg: cfg, conn: newConnection(log.With("component", "telemetry.websocket"))}
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// Connect dials the consumer and waits for it to ack the hello frame.
func (s *WebSocketSink) Connect(hello Hello) error {
	data, err := marshalEnvelope(typeHello, hello)
	if err != nil {
		return err
	}
	if err := s.conn.dial(s.cfg.URL, s.cfg.Secret); err != nil {
		return err
	}
	s.conn.mu.Lock()
	s.conn.hello = data
	s.conn.mu.Unlock()
	return s.conn.sendAndWait(data, typeHello, ackTimeout)
}

// Publish queues one frame carrying the whole batch.
func (s *WebSocketSink) Publish(_ context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	data, err := marshalEnvelope(typeTelemetry, samples)
	if err != nil {
		return err
	}
	s.conn.send(data)
	return nil
}

func (s *WebSocketSink) Close() error {
	return s.conn.close()
}

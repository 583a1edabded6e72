package natsadapter

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

// Speaker implements ports.SpeechSink by publishing utterances to the
// speech subject. The browser dashboard subscribes over the websocket relay
// and feeds them to its speech synthesizer.
type Speaker struct {
	conn *nats.Conn
}

func NewSpeaker(conn *nats.Conn) *Speaker {
	return &Speaker{conn: conn}
}

type speechEvent struct {
	Text   string  `json:"text"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

func (s *Speaker) Speak(ctx context.Context, text string, opts domain.SpeechOptions) error {
	data, err := json.Marshal(speechEvent{
		Text:   text,
		Rate:   opts.Rate,
		Pitch:  opts.Pitch,
		Volume: opts.Volume,
	})
	if err != nil {
		return err
	}
	if err := s.conn.Publish(SubjectSpeech, data); err != nil {
		return err
	}
	metrics.AnnouncementsSpoken.Inc()
	return nil
}

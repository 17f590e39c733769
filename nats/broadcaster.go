package nats

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"pokerclock.com/director/tournament"
)

var natsLogger = log.With().Str("logger_name", "nats::broadcaster").Logger()

/**
For each tournament, clients listen on three subjects:
tournament.<code>.clock    : level clock updates
tournament.<code>.announce : director announcements
tournament.<code>.seating  : seat moves from balancing/breaking/redraw
**/

// TournamentBroadcaster publishes tournament events to NATS. It
// implements tournament.Broadcaster. Publishes are fire and forget; a
// failed publish is logged and dropped.
type TournamentBroadcaster struct {
	nc *natsgo.Conn
}

func NewTournamentBroadcaster(natsURL string) (*TournamentBroadcaster, error) {
	nc, err := natsgo.Connect(natsURL)
	if err != nil {
		natsLogger.Error().Msgf("Failed to connect to nats server: %v", err)
		return nil, err
	}
	return &TournamentBroadcaster{nc: nc}, nil
}

func clockSubject(code string) string {
	return fmt.Sprintf("tournament.%s.clock", code)
}

func announceSubject(code string) string {
	return fmt.Sprintf("tournament.%s.announce", code)
}

func seatingSubject(code string) string {
	return fmt.Sprintf("tournament.%s.seating", code)
}

func (b *TournamentBroadcaster) ClockUpdate(code string, update tournament.ClockUpdate) {
	b.publish(clockSubject(code), update)
}

func (b *TournamentBroadcaster) Announcement(code string, message string) {
	type announcement struct {
		Message string `json:"message"`
	}
	b.publish(announceSubject(code), announcement{Message: message})
}

func (b *TournamentBroadcaster) SeatingChange(code string, moves []tournament.SeatMove) {
	type seatingChange struct {
		Moves []tournament.SeatMove `json:"moves"`
	}
	b.publish(seatingSubject(code), seatingChange{Moves: moves})
}

func (b *TournamentBroadcaster) publish(subject string, payload interface{}) {
	data, err := jsoniter.Marshal(payload)
	if err != nil {
		natsLogger.Error().Str("subject", subject).Msgf("Could not marshal payload: %s", err)
		return
	}
	err = b.nc.Publish(subject, data)
	if err != nil {
		natsLogger.Error().Str("subject", subject).Msgf("Publish failed: %s", err)
	}
}

// Close drains the connection.
func (b *TournamentBroadcaster) Close() {
	b.nc.Close()
}

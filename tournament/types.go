package tournament

import "time"

/**
NOTE: Seat numbers are indexed from 1-9 like the real poker table.
Table numbers are indexed from 1.
**/

// PlayerStatus tracks where a player is in the tournament lifecycle.
type PlayerStatus string

const (
	PlayerActive     PlayerStatus = "active"
	PlayerEliminated PlayerStatus = "eliminated"
	PlayerFinalTable PlayerStatus = "final-table"
)

// Player is a registered tournament entrant.
type Player struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Email          string       `json:"email,omitempty"`
	TableNo        uint32       `json:"tableNo"`
	SeatNo         uint32       `json:"seatNo"`
	Chips          float64      `json:"chips"`
	Status         PlayerStatus `json:"status"`
	FinishPosition uint32       `json:"finishPosition,omitempty"`
	RebuyCount     uint32       `json:"rebuyCount"`
	AddonCount     uint32       `json:"addonCount"`
}

// BlindLevel is one stage of the blind structure. A level with zero
// small and big blinds is a break.
type BlindLevel struct {
	SmallBlind  float64 `json:"smallBlind"`
	BigBlind    float64 `json:"bigBlind"`
	Ante        float64 `json:"ante,omitempty"`
	BringIn     float64 `json:"bringIn,omitempty"`
	DurationMin uint32  `json:"durationMin"`
}

// IsBreak reports whether the level is a scheduled break.
func (l BlindLevel) IsBreak() bool {
	return l.SmallBlind == 0 && l.BigBlind == 0
}

// Table is a physical table in play.
type Table struct {
	TableNo  uint32 `json:"tableNo"`
	MaxSeats uint32 `json:"maxSeats"`
	IsActive bool   `json:"isActive"`
}

// Payout is one paid position in the payout schedule.
type Payout struct {
	Position   uint32  `json:"position"`
	Percentage float64 `json:"percentage"`
	Amount     float64 `json:"amount"`
}

// Config is the immutable setup of a tournament.
type Config struct {
	Code             string       `json:"code"`
	Name             string       `json:"name"`
	BuyIn            float64      `json:"buyIn"`
	StartingChips    float64      `json:"startingChips"`
	MaxSeatsPerTable uint32       `json:"maxSeatsPerTable"`
	Levels           []BlindLevel `json:"levels"`

	RebuyAllowed   bool    `json:"rebuyAllowed"`
	MaxRebuys      uint32  `json:"maxRebuys"`
	RebuyChips     float64 `json:"rebuyChips"`
	RebuyFee       float64 `json:"rebuyFee"`
	RebuyEndLevel  uint32  `json:"rebuyEndLevel"`
	AddonAllowed   bool    `json:"addonAllowed"`
	MaxAddons      uint32  `json:"maxAddons"`
	AddonChips     float64 `json:"addonChips"`
	AddonFee       float64 `json:"addonFee"`
	PaidPlaces     uint32  `json:"paidPlaces"`
	GuaranteedPool float64 `json:"guaranteedPool,omitempty"`
}

// State is the mutable runtime state of a tournament. It is what gets
// persisted opportunistically while the clock runs.
type State struct {
	CurrentLevel  int      `json:"currentLevel"`
	RemainingSec  uint32   `json:"remainingSec"`
	Paused        bool     `json:"paused"`
	OnBreak       bool     `json:"onBreak"`
	Announcements []string `json:"announcements,omitempty"`
	Payouts       []Payout `json:"payouts,omitempty"`
	PrizePool     float64  `json:"prizePool"`
	Version       string   `json:"version"`
}

// Snapshot is the full persisted form of a tournament.
type Snapshot struct {
	ID      uint64    `json:"id"`
	Config  Config    `json:"config"`
	Players []*Player `json:"players"`
	Tables  []*Table  `json:"tables"`
	State   State     `json:"state"`
	SavedAt time.Time `json:"savedAt"`
}

// SeatLocation identifies one seat at one table.
type SeatLocation struct {
	TableNo uint32 `json:"tableNo"`
	SeatNo  uint32 `json:"seatNo"`
}

// SeatMove records one player relocation performed by balancing,
// table breaking, or a redraw.
type SeatMove struct {
	PlayerID  string `json:"playerId"`
	FromTable uint32 `json:"fromTable"`
	FromSeat  uint32 `json:"fromSeat"`
	ToTable   uint32 `json:"toTable"`
	ToSeat    uint32 `json:"toSeat"`
}

// ClockUpdate is published whenever the level clock reports time.
type ClockUpdate struct {
	Level        int    `json:"level"`
	RemainingSec uint32 `json:"remainingSec"`
	Paused       bool   `json:"paused"`
	OnBreak      bool   `json:"onBreak"`
	LevelEnded   bool   `json:"levelEnded,omitempty"`
}

// Broadcaster pushes tournament events to the outside (clients listen
// on NATS subjects). Implementations must not block.
type Broadcaster interface {
	ClockUpdate(code string, update ClockUpdate)
	Announcement(code string, message string)
	SeatingChange(code string, moves []SeatMove)
}

// NoopBroadcaster is used when no messaging backend is available.
type NoopBroadcaster struct{}

func (NoopBroadcaster) ClockUpdate(string, ClockUpdate) {}
func (NoopBroadcaster) Announcement(string, string)     {}
func (NoopBroadcaster) SeatingChange(string, []SeatMove) {}

// StateVersion is written into every persisted snapshot.
const StateVersion = "1"

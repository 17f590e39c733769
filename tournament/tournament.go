package tournament

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pokerclock.com/director/internal/util"
	"pokerclock.com/director/logging"
)

// Tournament is the aggregate for one running tournament: config,
// players, tables, runtime state, the level clock, and the persistence
// hookup. All mutation goes through its methods under one lock.
type Tournament struct {
	mu sync.Mutex

	id          uint64
	config      Config
	players     []*Player
	tables      []*Table
	state       State
	clock       *LevelClock
	saver       *Saver
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewTournament creates a fresh tournament, opens its first table, and
// starts the clock loop (paused at the first level's duration).
func NewTournament(id uint64, config Config, persist PersistTournamentState,
	broadcaster Broadcaster, clk clockwork.Clock, saveIntervalMs int) (*Tournament, error) {
	if config.Code == "" {
		return nil, InvalidRequestError{Msg: "Tournament code is required"}
	}
	if len(config.Levels) == 0 {
		return nil, InvalidRequestError{Msg: "Tournament needs at least one blind level"}
	}
	if config.MaxSeatsPerTable == 0 {
		config.MaxSeatsPerTable = 9
	}
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}

	t := &Tournament{
		id:     id,
		config: config,
		tables: []*Table{
			{TableNo: 1, MaxSeats: config.MaxSeatsPerTable, IsActive: true},
		},
		state: State{
			CurrentLevel: 0,
			RemainingSec: config.Levels[0].DurationMin * 60,
			Paused:       true,
			OnBreak:      config.Levels[0].IsBreak(),
			PrizePool:    config.GuaranteedPool,
			Version:      StateVersion,
		},
		broadcaster: broadcaster,
		logger: log.With().
			Str("logger_name", "tournament::tournament").
			Str(logging.TournamentCodeKey, config.Code).
			Logger(),
	}
	t.clock = NewLevelClock(clk, float64(t.state.RemainingSec), t.onLevelEnd, t.onClockSync)
	t.clock.Start()
	t.saver = NewSaver(persist, config.Code, saveIntervalMs)
	t.saver.Start()
	t.saver.Request(t.snapshotLocked())
	return t, nil
}

// RestoreTournament rebuilds a tournament from a persisted snapshot.
// The clock comes back paused at the saved remaining time.
func RestoreTournament(snapshot *Snapshot, persist PersistTournamentState,
	broadcaster Broadcaster, clk clockwork.Clock, saveIntervalMs int) (*Tournament, error) {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	config := snapshot.Config
	if len(config.Levels) == 0 {
		return nil, InvalidRequestError{Msg: fmt.Sprintf("Snapshot for %s has no blind levels", config.Code)}
	}
	t := &Tournament{
		id:          snapshot.ID,
		config:      config,
		players:     snapshot.Players,
		tables:      snapshot.Tables,
		state:       snapshot.State,
		broadcaster: broadcaster,
		logger: log.With().
			Str("logger_name", "tournament::tournament").
			Str(logging.TournamentCodeKey, config.Code).
			Logger(),
	}
	t.state.Paused = true
	t.clock = NewLevelClock(clk, float64(t.state.RemainingSec), t.onLevelEnd, t.onClockSync)
	t.clock.Start()
	t.saver = NewSaver(persist, config.Code, saveIntervalMs)
	t.saver.Start()
	return t, nil
}

// End stops the clock loop and flushes the last snapshot. The
// tournament must not be used afterward.
func (t *Tournament) End() {
	t.clock.Stop()
	t.saver.Stop()
}

func (t *Tournament) ID() uint64 {
	return t.id
}

func (t *Tournament) Code() string {
	return t.config.Code
}

// Snapshot returns a deep copy of the full tournament for persistence
// and for the REST surface.
func (t *Tournament) Snapshot() *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tournament) snapshotLocked() *Snapshot {
	players := make([]*Player, len(t.players))
	for i, p := range t.players {
		copied := *p
		players[i] = &copied
	}
	tables := make([]*Table, len(t.tables))
	for i, tb := range t.tables {
		copied := *tb
		tables[i] = &copied
	}
	state := t.state
	state.Announcements = append([]string(nil), t.state.Announcements...)
	state.Payouts = append([]Payout(nil), t.state.Payouts...)
	return &Snapshot{
		ID:      t.id,
		Config:  t.config,
		Players: players,
		Tables:  tables,
		State:   state,
		SavedAt: time.Now(),
	}
}

func (t *Tournament) requestSaveLocked() {
	t.saver.Request(t.snapshotLocked())
}

// RegisterPlayer adds an entrant, seats them, and updates the prize
// pool and payout schedule.
func (t *Tournament) RegisterPlayer(name string, email string) (*Player, error) {
	if name == "" {
		return nil, InvalidRequestError{Msg: "Player name is required"}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	loc := AssignSeat(t.players, t.tables)
	if HasSeatConflict(t.players, loc, "") {
		// Stale assignment slipped in. Re-resolve.
		loc = AssignSeat(t.players, t.tables)
	}
	t.ensureTableLocked(loc.TableNo)

	player := &Player{
		ID:      uuid.New().String(),
		Name:    name,
		Email:   email,
		TableNo: loc.TableNo,
		SeatNo:  loc.SeatNo,
		Chips:   t.config.StartingChips,
		Status:  PlayerActive,
	}
	t.players = append(t.players, player)
	t.logger.Info().
		Str(logging.PlayerIDKey, player.ID).
		Uint32(logging.TableNumKey, loc.TableNo).
		Uint32(logging.SeatNumKey, loc.SeatNo).
		Msgf("Registered player %s", name)

	t.recalcPrizePoolLocked()
	t.requestSaveLocked()
	return player, nil
}

func (t *Tournament) ensureTableLocked(tableNo uint32) {
	for _, table := range t.tables {
		if table.TableNo == tableNo {
			table.IsActive = true
			return
		}
	}
	t.tables = append(t.tables, &Table{
		TableNo:  tableNo,
		MaxSeats: t.config.MaxSeatsPerTable,
		IsActive: true,
	})
}

func (t *Tournament) findPlayerLocked(playerID string) (*Player, error) {
	for _, p := range t.players {
		if p.ID == playerID {
			return p, nil
		}
	}
	return nil, PlayerNotFoundError{PlayerID: playerID}
}

// UpdateChips sets a player's chip count.
func (t *Tournament) UpdateChips(playerID string, chips float64) error {
	if chips < 0 {
		return InvalidRequestError{Msg: "Chip count cannot be negative"}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	player, err := t.findPlayerLocked(playerID)
	if err != nil {
		return err
	}
	if player.Status == PlayerEliminated {
		return InvalidRequestError{Msg: "Cannot update chips of an eliminated player"}
	}
	player.Chips = chips
	t.requestSaveLocked()
	return nil
}

// Rebuy adds the configured rebuy chips to the player and the rebuy
// fee to the prize pool, subject to the configured limits.
func (t *Tournament) Rebuy(playerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.config.RebuyAllowed {
		return RebuyNotAllowedError{Msg: "Rebuys are not allowed in this tournament"}
	}
	if t.config.RebuyEndLevel > 0 && uint32(t.state.CurrentLevel)+1 > t.config.RebuyEndLevel {
		return RebuyNotAllowedError{Msg: fmt.Sprintf("Rebuy period ended after level %d", t.config.RebuyEndLevel)}
	}
	player, err := t.findPlayerLocked(playerID)
	if err != nil {
		return err
	}
	if player.Status == PlayerEliminated {
		return RebuyNotAllowedError{Msg: "Eliminated players cannot rebuy"}
	}
	if t.config.MaxRebuys > 0 && player.RebuyCount >= t.config.MaxRebuys {
		return RebuyNotAllowedError{Msg: fmt.Sprintf("Player reached the rebuy limit of %d", t.config.MaxRebuys)}
	}
	player.RebuyCount++
	player.Chips += t.config.RebuyChips
	t.recalcPrizePoolLocked()
	t.requestSaveLocked()
	return nil
}

// Addon adds the configured add-on chips to the player and the add-on
// fee to the prize pool.
func (t *Tournament) Addon(playerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.config.AddonAllowed {
		return RebuyNotAllowedError{Msg: "Add-ons are not allowed in this tournament"}
	}
	player, err := t.findPlayerLocked(playerID)
	if err != nil {
		return err
	}
	if player.Status == PlayerEliminated {
		return RebuyNotAllowedError{Msg: "Eliminated players cannot take an add-on"}
	}
	if t.config.MaxAddons > 0 && player.AddonCount >= t.config.MaxAddons {
		return RebuyNotAllowedError{Msg: fmt.Sprintf("Player reached the add-on limit of %d", t.config.MaxAddons)}
	}
	player.AddonCount++
	player.Chips += t.config.AddonChips
	t.recalcPrizePoolLocked()
	t.requestSaveLocked()
	return nil
}

// EliminatePlayer knocks a player out: chips go to zero, the finish
// position is assigned once, and the seat frees up. Eliminating an
// already eliminated player is a no-op.
func (t *Tournament) EliminatePlayer(playerID string) (*Player, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	player, err := t.findPlayerLocked(playerID)
	if err != nil {
		return nil, err
	}
	if player.Status == PlayerEliminated {
		return player, nil
	}

	remaining := uint32(0)
	for _, p := range t.players {
		if p.Status != PlayerEliminated {
			remaining++
		}
	}
	player.Status = PlayerEliminated
	player.Chips = 0
	player.FinishPosition = remaining
	player.TableNo = 0
	player.SeatNo = 0

	t.logger.Info().
		Str(logging.PlayerIDKey, player.ID).
		Msgf("Player %s eliminated in position %d", player.Name, player.FinishPosition)
	t.broadcaster.Announcement(t.config.Code,
		fmt.Sprintf("%s finished in place %d", player.Name, player.FinishPosition))
	t.maybeFinalTableLocked()
	t.requestSaveLocked()
	return player, nil
}

// maybeFinalTableLocked promotes the remaining field to final-table
// status once it fits a single table.
func (t *Tournament) maybeFinalTableLocked() {
	active := 0
	for _, p := range t.players {
		if p.Status != PlayerEliminated {
			active++
		}
	}
	if active == 0 || uint32(active) > t.config.MaxSeatsPerTable {
		return
	}
	promoted := 0
	for _, p := range t.players {
		if p.Status == PlayerActive {
			p.Status = PlayerFinalTable
			promoted++
		}
	}
	if promoted > 0 {
		t.logger.Info().Msgf("Final table is set with %d players", active)
		t.broadcaster.Announcement(t.config.Code, "Final table is set")
	}
}

// MovePlayer manually reseats a player. The target table must be
// active, the seat in range, and not taken.
func (t *Tournament) MovePlayer(playerID string, tableNo uint32, seatNo uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	player, err := t.findPlayerLocked(playerID)
	if err != nil {
		return err
	}
	if player.Status == PlayerEliminated {
		return InvalidRequestError{Msg: "Cannot seat an eliminated player"}
	}

	var target *Table
	for _, table := range t.tables {
		if table.TableNo == tableNo && table.IsActive {
			target = table
			break
		}
	}
	if target == nil {
		return InvalidRequestError{Msg: fmt.Sprintf("Table %d does not exist", tableNo)}
	}
	if seatNo < 1 || seatNo > target.MaxSeats {
		return InvalidRequestError{Msg: fmt.Sprintf("Seat %d is out of range for table %d", seatNo, tableNo)}
	}
	loc := SeatLocation{TableNo: tableNo, SeatNo: seatNo}
	if HasSeatConflict(t.players, loc, player.ID) {
		return SeatConflictError{TableNo: tableNo, SeatNo: seatNo}
	}

	move := SeatMove{
		PlayerID:  player.ID,
		FromTable: player.TableNo,
		FromSeat:  player.SeatNo,
		ToTable:   tableNo,
		ToSeat:    seatNo,
	}
	player.TableNo = tableNo
	player.SeatNo = seatNo
	t.broadcaster.SeatingChange(t.config.Code, []SeatMove{move})
	util.Metrics.SeatMoves(1)
	t.requestSaveLocked()
	return nil
}

// AddTable opens a new table with the next table number.
func (t *Tournament) AddTable(maxSeats uint32) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	if maxSeats == 0 {
		maxSeats = t.config.MaxSeatsPerTable
	}
	var maxTableNo uint32
	for _, table := range t.tables {
		if table.TableNo > maxTableNo {
			maxTableNo = table.TableNo
		}
	}
	table := &Table{TableNo: maxTableNo + 1, MaxSeats: maxSeats, IsActive: true}
	t.tables = append(t.tables, table)
	t.requestSaveLocked()
	return table
}

// RemoveTable closes an empty table. A table with seated active
// players is refused.
func (t *Tournament) RemoveTable(tableNo uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.players {
		if seated(p) && p.TableNo == tableNo {
			return TableNotEmptyError{TableNo: tableNo}
		}
	}
	for _, table := range t.tables {
		if table.TableNo == tableNo {
			table.IsActive = false
			t.requestSaveLocked()
			return nil
		}
	}
	return InvalidRequestError{Msg: fmt.Sprintf("Table %d does not exist", tableNo)}
}

// BalanceTables runs the auto-balance pass across active tables.
func (t *Tournament) BalanceTables() []SeatMove {
	t.mu.Lock()
	defer t.mu.Unlock()
	moves := AutoBalance(t.players, t.tables)
	if len(moves) > 0 {
		t.broadcaster.SeatingChange(t.config.Code, moves)
		util.Metrics.SeatMoves(len(moves))
		t.requestSaveLocked()
	}
	return moves
}

// DissolveTable breaks the given table and redistributes its players.
func (t *Tournament) DissolveTable(tableNo uint32) ([]SeatMove, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	moves, err := BreakTable(t.players, t.tables, tableNo)
	if err != nil {
		return moves, err
	}
	for _, table := range t.tables {
		if table.TableNo == tableNo {
			table.IsActive = false
		}
	}
	if len(moves) > 0 {
		t.broadcaster.SeatingChange(t.config.Code, moves)
		util.Metrics.SeatMoves(len(moves))
	}
	t.requestSaveLocked()
	return moves, nil
}

// RedrawSeating reseats the whole field randomly across active tables.
func (t *Tournament) RedrawSeating() []SeatMove {
	t.mu.Lock()
	defer t.mu.Unlock()
	moves := Redraw(t.players, t.tables, nil)
	if len(moves) > 0 {
		t.broadcaster.SeatingChange(t.config.Code, moves)
		util.Metrics.SeatMoves(len(moves))
		t.requestSaveLocked()
	}
	return moves
}

// PauseClock pauses the level clock.
func (t *Tournament) PauseClock() {
	t.clock.Pause()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Paused = true
	t.state.RemainingSec = uint32(math.Ceil(t.clock.Remaining()))
	t.broadcastClockLocked(false)
	t.requestSaveLocked()
}

// ResumeClock resumes the level clock. After the final level has run
// out the clock stays stopped and the paused state is left untouched.
func (t *Tournament) ResumeClock() {
	t.clock.Resume()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.clock.State() != ClockRunning {
		return
	}
	t.state.Paused = false
	t.broadcastClockLocked(false)
	t.requestSaveLocked()
}

// SetLevel jumps the clock to the given zero-based level index.
func (t *Tournament) SetLevel(level int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if level < 0 || level >= len(t.config.Levels) {
		return InvalidRequestError{Msg: fmt.Sprintf("Level %d is out of range", level)}
	}
	t.applyLevelLocked(level)
	t.broadcastClockLocked(false)
	t.requestSaveLocked()
	return nil
}

// NextLevel advances to the next blind level, if any.
func (t *Tournament) NextLevel() error {
	t.mu.Lock()
	level := t.state.CurrentLevel + 1
	t.mu.Unlock()
	return t.SetLevel(level)
}

// PreviousLevel goes back one blind level.
func (t *Tournament) PreviousLevel() error {
	t.mu.Lock()
	level := t.state.CurrentLevel - 1
	t.mu.Unlock()
	return t.SetLevel(level)
}

func (t *Tournament) applyLevelLocked(level int) {
	blind := t.config.Levels[level]
	t.state.CurrentLevel = level
	t.state.RemainingSec = blind.DurationMin * 60
	t.state.OnBreak = blind.IsBreak()
	t.clock.SetRemaining(float64(t.state.RemainingSec))
	if !t.state.Paused {
		t.clock.Resume()
	}
}

// Announce records and broadcasts an announcement.
func (t *Tournament) Announce(message string) error {
	if message == "" {
		return InvalidRequestError{Msg: "Announcement message is required"}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Announcements = append(t.state.Announcements, message)
	t.broadcaster.Announcement(t.config.Code, message)
	t.requestSaveLocked()
	return nil
}

// RecalculatePayouts regenerates the payout schedule from the current
// prize pool. places = 0 keeps the configured (or derived) paid
// places.
func (t *Tournament) RecalculatePayouts(places int) []Payout {
	t.mu.Lock()
	defer t.mu.Unlock()
	if places > 0 {
		t.config.PaidPlaces = uint32(places)
	}
	t.state.Payouts = GenerateDefaultPayouts(t.paidPlacesLocked(), t.state.PrizePool)
	t.requestSaveLocked()
	return append([]Payout(nil), t.state.Payouts...)
}

func (t *Tournament) paidPlacesLocked() int {
	if t.config.PaidPlaces > 0 {
		return int(t.config.PaidPlaces)
	}
	// Default: roughly one place per ten entrants.
	entrants := len(t.players)
	if entrants == 0 {
		return 1
	}
	return int(math.Ceil(float64(entrants) / 10))
}

func (t *Tournament) recalcPrizePoolLocked() {
	var rebuys, addons uint32
	for _, p := range t.players {
		rebuys += p.RebuyCount
		addons += p.AddonCount
	}
	pool := t.config.BuyIn*float64(len(t.players)) +
		t.config.RebuyFee*float64(rebuys) +
		t.config.AddonFee*float64(addons)
	if pool < t.config.GuaranteedPool {
		pool = t.config.GuaranteedPool
	}
	t.state.PrizePool = pool
	t.state.Payouts = GenerateDefaultPayouts(t.paidPlacesLocked(), pool)
}

func (t *Tournament) broadcastClockLocked(levelEnded bool) {
	t.broadcaster.ClockUpdate(t.config.Code, ClockUpdate{
		Level:        t.state.CurrentLevel,
		RemainingSec: t.state.RemainingSec,
		Paused:       t.state.Paused,
		OnBreak:      t.state.OnBreak,
		LevelEnded:   levelEnded,
	})
}

// onLevelEnd is the clock's level-end callback. It advances to the
// next level and keeps the clock running; after the last level the
// clock stays stopped.
func (t *Tournament) onLevelEnd() {
	util.Metrics.LevelEnded()
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.state.CurrentLevel + 1
	if next >= len(t.config.Levels) {
		t.state.RemainingSec = 0
		t.state.Paused = true
		t.logger.Info().Msg("Last blind level finished")
		t.broadcastClockLocked(true)
		t.requestSaveLocked()
		return
	}

	blind := t.config.Levels[next]
	t.state.CurrentLevel = next
	t.state.RemainingSec = blind.DurationMin * 60
	t.state.OnBreak = blind.IsBreak()
	t.clock.SetRemaining(float64(t.state.RemainingSec))
	if !t.state.Paused {
		t.clock.Resume()
	}
	t.logger.Info().
		Int(logging.LevelNumKey, next+1).
		Msgf("Level up: blinds %v/%v ante %v", blind.SmallBlind, blind.BigBlind, blind.Ante)
	t.broadcastClockLocked(true)
	t.requestSaveLocked()
}

// onClockSync is the clock's periodic report. It keeps the persisted
// remaining time approximately in sync with the display.
func (t *Tournament) onClockSync(remainingSec uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.RemainingSec = remainingSec
	t.broadcastClockLocked(false)
	t.requestSaveLocked()
}

package tournament

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Code:          "TEST01",
		Name:          "Test Tournament",
		BuyIn:         100,
		StartingChips: 10000,
		PaidPlaces:    3,
		RebuyAllowed:  true,
		MaxRebuys:     2,
		RebuyChips:    10000,
		RebuyFee:      100,
		RebuyEndLevel: 2,
		AddonAllowed:  true,
		MaxAddons:     1,
		AddonChips:    15000,
		AddonFee:      50,
		Levels: []BlindLevel{
			{SmallBlind: 25, BigBlind: 50, DurationMin: 20},
			{SmallBlind: 50, BigBlind: 100, DurationMin: 20},
			{DurationMin: 10}, // break
			{SmallBlind: 100, BigBlind: 200, DurationMin: 20},
		},
	}
}

func newTestTournament(t *testing.T) *Tournament {
	t.Helper()
	tourney, err := NewTournament(1, testConfig(), NewMemoryStateTracker(),
		NoopBroadcaster{}, clockwork.NewFakeClock(), 0)
	require.NoError(t, err)
	t.Cleanup(tourney.End)
	return tourney
}

func TestNewTournamentValidation(t *testing.T) {
	_, err := NewTournament(1, Config{Code: "X"}, NewMemoryStateTracker(), nil, clockwork.NewFakeClock(), 0)
	require.Error(t, err)

	_, err = NewTournament(1, Config{Levels: []BlindLevel{{BigBlind: 2, DurationMin: 1}}},
		NewMemoryStateTracker(), nil, clockwork.NewFakeClock(), 0)
	require.Error(t, err)
}

func TestRegisterPlayersFillsSeats(t *testing.T) {
	tourney := newTestTournament(t)

	for i := 0; i < 12; i++ {
		player, err := tourney.RegisterPlayer(fmt.Sprintf("player%d", i), "")
		require.NoError(t, err)
		assert.Equal(t, float64(10000), player.Chips)
		assert.Equal(t, PlayerActive, player.Status)
		require.NotZero(t, player.TableNo)
		require.NotZero(t, player.SeatNo)
	}

	snapshot := tourney.Snapshot()
	assertNoSeatConflicts(t, snapshot.Players)
	// Nine seats at table 1, then a second table opens.
	assert.Len(t, snapshot.Tables, 2)
	assert.Equal(t, float64(1200), snapshot.State.PrizePool)
}

func TestRegisterPlayerRequiresName(t *testing.T) {
	tourney := newTestTournament(t)
	_, err := tourney.RegisterPlayer("", "")
	require.Error(t, err)
}

func TestEliminationAssignsFinishPositionOnce(t *testing.T) {
	tourney := newTestTournament(t)
	var ids []string
	for i := 0; i < 5; i++ {
		p, err := tourney.RegisterPlayer(fmt.Sprintf("player%d", i), "")
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	out, err := tourney.EliminatePlayer(ids[0])
	require.NoError(t, err)
	assert.Equal(t, PlayerEliminated, out.Status)
	assert.Equal(t, float64(0), out.Chips)
	assert.Equal(t, uint32(5), out.FinishPosition)

	// A second elimination call does not reassign the position.
	again, err := tourney.EliminatePlayer(ids[0])
	require.NoError(t, err)
	assert.Equal(t, uint32(5), again.FinishPosition)

	out2, err := tourney.EliminatePlayer(ids[1])
	require.NoError(t, err)
	assert.Equal(t, uint32(4), out2.FinishPosition)
}

func TestRebuyLimits(t *testing.T) {
	tourney := newTestTournament(t)
	p, err := tourney.RegisterPlayer("alice", "")
	require.NoError(t, err)

	require.NoError(t, tourney.Rebuy(p.ID))
	require.NoError(t, tourney.Rebuy(p.ID))
	err = tourney.Rebuy(p.ID)
	require.Error(t, err)
	assert.IsType(t, RebuyNotAllowedError{}, err)

	snapshot := tourney.Snapshot()
	assert.Equal(t, float64(30000), snapshot.Players[0].Chips)
	// Buy-in plus two rebuy fees.
	assert.Equal(t, float64(300), snapshot.State.PrizePool)
}

func TestRebuyPeriodEnds(t *testing.T) {
	tourney := newTestTournament(t)
	p, err := tourney.RegisterPlayer("alice", "")
	require.NoError(t, err)

	require.NoError(t, tourney.SetLevel(2))
	err = tourney.Rebuy(p.ID)
	require.Error(t, err)
	assert.IsType(t, RebuyNotAllowedError{}, err)
}

func TestAddonLimit(t *testing.T) {
	tourney := newTestTournament(t)
	p, err := tourney.RegisterPlayer("alice", "")
	require.NoError(t, err)

	require.NoError(t, tourney.Addon(p.ID))
	err = tourney.Addon(p.ID)
	require.Error(t, err)

	snapshot := tourney.Snapshot()
	assert.Equal(t, float64(25000), snapshot.Players[0].Chips)
	assert.Equal(t, uint32(1), snapshot.Players[0].AddonCount)
}

func TestPayoutsTrackPrizePool(t *testing.T) {
	tourney := newTestTournament(t)
	for i := 0; i < 10; i++ {
		_, err := tourney.RegisterPlayer(fmt.Sprintf("player%d", i), "")
		require.NoError(t, err)
	}

	snapshot := tourney.Snapshot()
	require.Len(t, snapshot.State.Payouts, 3)
	assert.Equal(t, float64(1000), snapshot.State.PrizePool)
	assert.Equal(t, float64(500), snapshot.State.Payouts[0].Amount)

	payouts := tourney.RecalculatePayouts(2)
	require.Len(t, payouts, 2)
	assert.Equal(t, float64(650), payouts[0].Amount)
	assert.Equal(t, float64(350), payouts[1].Amount)
}

func TestMovePlayerConflict(t *testing.T) {
	tourney := newTestTournament(t)
	p1, err := tourney.RegisterPlayer("alice", "")
	require.NoError(t, err)
	p2, err := tourney.RegisterPlayer("bob", "")
	require.NoError(t, err)

	err = tourney.MovePlayer(p2.ID, p1.TableNo, p1.SeatNo)
	require.Error(t, err)
	assert.IsType(t, SeatConflictError{}, err)

	require.NoError(t, tourney.MovePlayer(p2.ID, 1, 5))
	err = tourney.MovePlayer(p2.ID, 9, 1)
	require.Error(t, err)
}

func TestRemoveTableWithPlayersRefused(t *testing.T) {
	tourney := newTestTournament(t)
	_, err := tourney.RegisterPlayer("alice", "")
	require.NoError(t, err)

	err = tourney.RemoveTable(1)
	require.Error(t, err)
	assert.IsType(t, TableNotEmptyError{}, err)

	table := tourney.AddTable(0)
	assert.Equal(t, uint32(2), table.TableNo)
	require.NoError(t, tourney.RemoveTable(table.TableNo))
}

func TestDissolveTableThroughAggregate(t *testing.T) {
	tourney := newTestTournament(t)
	var ids []string
	for i := 0; i < 11; i++ {
		p, err := tourney.RegisterPlayer(fmt.Sprintf("player%d", i), "")
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	// Free two seats at table 1 so table 2 can fold into it.
	_, err := tourney.EliminatePlayer(ids[0])
	require.NoError(t, err)
	_, err = tourney.EliminatePlayer(ids[1])
	require.NoError(t, err)

	moves, err := tourney.DissolveTable(2)
	require.NoError(t, err)
	assert.Len(t, moves, 2)

	snapshot := tourney.Snapshot()
	assertNoSeatConflicts(t, snapshot.Players)
	for _, table := range snapshot.Tables {
		if table.TableNo == 2 {
			assert.False(t, table.IsActive)
		}
	}
}

func TestSetLevelUpdatesState(t *testing.T) {
	tourney := newTestTournament(t)

	require.NoError(t, tourney.SetLevel(2))
	snapshot := tourney.Snapshot()
	assert.Equal(t, 2, snapshot.State.CurrentLevel)
	assert.True(t, snapshot.State.OnBreak)
	assert.Equal(t, uint32(600), snapshot.State.RemainingSec)

	require.Error(t, tourney.SetLevel(99))
	require.Error(t, tourney.SetLevel(-1))
}

func TestAnnouncementsAccumulate(t *testing.T) {
	tourney := newTestTournament(t)
	require.NoError(t, tourney.Announce("Cards in the air"))
	require.NoError(t, tourney.Announce("Registration closes at level 3"))
	require.Error(t, tourney.Announce(""))

	snapshot := tourney.Snapshot()
	assert.Len(t, snapshot.State.Announcements, 2)
}

func TestManagerLifecycle(t *testing.T) {
	persist := NewMemoryStateTracker()
	manager, err := NewManager(persist, nil, clockwork.NewFakeClock(), 0)
	require.NoError(t, err)

	tourney, err := manager.CreateTournament(testConfig())
	require.NoError(t, err)
	assert.Equal(t, "TEST01", tourney.Code())

	// Codes are unique.
	_, err = manager.CreateTournament(testConfig())
	require.Error(t, err)

	found, err := manager.GetTournament("TEST01")
	require.NoError(t, err)
	assert.Same(t, tourney, found)

	byID, err := manager.GetTournamentByID(tourney.ID())
	require.NoError(t, err)
	assert.Same(t, tourney, byID)

	generated, err := manager.CreateTournament(func() Config {
		c := testConfig()
		c.Code = ""
		return c
	}())
	require.NoError(t, err)
	assert.Len(t, generated.Code(), 6)

	require.NoError(t, manager.DeleteTournament("TEST01"))
	_, err = manager.GetTournament("TEST01")
	require.Error(t, err)
	_, err = persist.Load("TEST01")
	require.Error(t, err)
}

func TestManagerRestoreAll(t *testing.T) {
	persist := NewMemoryStateTracker()
	manager, err := NewManager(persist, nil, clockwork.NewFakeClock(), 0)
	require.NoError(t, err)

	tourney, err := manager.CreateTournament(testConfig())
	require.NoError(t, err)
	_, err = tourney.RegisterPlayer("alice", "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, tourney.SetLevel(1))
	tourney.End()

	// A fresh manager (as after a crash) restores from the store.
	restoredManager, err := NewManager(persist, nil, clockwork.NewFakeClock(), 0)
	require.NoError(t, err)
	count := restoredManager.RestoreAll()
	assert.Equal(t, 1, count)

	restored, err := restoredManager.GetTournament("TEST01")
	require.NoError(t, err)
	t.Cleanup(restored.End)

	snapshot := restored.Snapshot()
	require.Len(t, snapshot.Players, 1)
	assert.Equal(t, "alice", snapshot.Players[0].Name)
	assert.Equal(t, 1, snapshot.State.CurrentLevel)
	// Restored tournaments come back paused.
	assert.True(t, snapshot.State.Paused)
}

func TestDeletedTournamentIsNotResavedByStaleTick(t *testing.T) {
	persist := NewMemoryStateTracker()
	fake := clockwork.NewFakeClock()
	manager, err := NewManager(persist, nil, fake, 0)
	require.NoError(t, err)
	tourney, err := manager.CreateTournament(testConfig())
	require.NoError(t, err)
	tourney.ResumeClock()

	require.NoError(t, manager.DeleteTournament("TEST01"))
	_, err = persist.Load("TEST01")
	require.Error(t, err)

	// A tick loop iteration already past its stop-check delivers one
	// more tick after the delete. It must not write the deleted state
	// back, or a later RestoreAll would resurrect the tournament.
	fake.Advance(6 * time.Second)
	tourney.clock.advance(fake.Now())
	_, err = persist.Load("TEST01")
	require.Error(t, err)

	freshManager, err := NewManager(persist, nil, clockwork.NewFakeClock(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, freshManager.RestoreAll())
}

func TestResumeClockAfterFinalLevelStaysPaused(t *testing.T) {
	fake := clockwork.NewFakeClock()
	tourney, err := NewTournament(1, testConfig(), NewMemoryStateTracker(),
		NoopBroadcaster{}, fake, 0)
	require.NoError(t, err)
	t.Cleanup(tourney.End)

	require.NoError(t, tourney.SetLevel(3))
	tourney.ResumeClock()
	fake.Advance(20 * time.Minute)
	tourney.clock.advance(fake.Now())

	snapshot := tourney.Snapshot()
	require.Equal(t, 3, snapshot.State.CurrentLevel)
	require.True(t, snapshot.State.Paused)
	require.Equal(t, ClockStopped, tourney.clock.State())

	// Resuming past the end must not claim a running clock.
	tourney.ResumeClock()
	snapshot = tourney.Snapshot()
	assert.True(t, snapshot.State.Paused)
	assert.Equal(t, ClockStopped, tourney.clock.State())
}

func TestFinalTableWhenFieldFitsOneTable(t *testing.T) {
	tourney := newTestTournament(t)
	var ids []string
	for i := 0; i < 11; i++ {
		p, err := tourney.RegisterPlayer(fmt.Sprintf("player%d", i), "")
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	// Ten players still need two tables.
	_, err := tourney.EliminatePlayer(ids[0])
	require.NoError(t, err)
	for _, p := range tourney.Snapshot().Players {
		if p.Status != PlayerEliminated {
			assert.Equal(t, PlayerActive, p.Status)
		}
	}

	// Down to nine, everyone left is at the final table.
	_, err = tourney.EliminatePlayer(ids[1])
	require.NoError(t, err)
	for _, p := range tourney.Snapshot().Players {
		if p.Status != PlayerEliminated {
			assert.Equal(t, PlayerFinalTable, p.Status)
		}
	}
}

func TestLevelEndAdvancesToNextLevel(t *testing.T) {
	fake := clockwork.NewFakeClock()
	tourney, err := NewTournament(1, testConfig(), NewMemoryStateTracker(),
		NoopBroadcaster{}, fake, 0)
	require.NoError(t, err)
	t.Cleanup(tourney.End)

	tourney.ResumeClock()
	fake.Advance(20 * time.Minute)
	tourney.clock.advance(fake.Now())

	snapshot := tourney.Snapshot()
	assert.Equal(t, 1, snapshot.State.CurrentLevel)
	assert.Equal(t, uint32(1200), snapshot.State.RemainingSec)
	assert.False(t, snapshot.State.Paused)
	assert.Equal(t, ClockRunning, tourney.clock.State())
}

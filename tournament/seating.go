package tournament

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand"
	"sort"
)

// maxBalancePasses bounds the auto-balance loop. The loop is a
// heuristic; perfect balance may be unreachable when free seats run
// out, so the cap guarantees termination.
const maxBalancePasses = 10

func seated(p *Player) bool {
	return p.Status != PlayerEliminated && p.TableNo > 0 && p.SeatNo > 0
}

// occupiedSeats maps tableNo -> seatNo -> playerID for all seated
// non-eliminated players.
func occupiedSeats(players []*Player) map[uint32]map[uint32]string {
	occupied := make(map[uint32]map[uint32]string)
	for _, p := range players {
		if !seated(p) {
			continue
		}
		if occupied[p.TableNo] == nil {
			occupied[p.TableNo] = make(map[uint32]string)
		}
		occupied[p.TableNo][p.SeatNo] = p.ID
	}
	return occupied
}

func activeTablesAscending(tables []*Table) []*Table {
	active := make([]*Table, 0, len(tables))
	for _, t := range tables {
		if t.IsActive {
			active = append(active, t)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].TableNo < active[j].TableNo
	})
	return active
}

func firstFreeSeat(occupied map[uint32]map[uint32]string, table *Table) uint32 {
	for seatNo := uint32(1); seatNo <= table.MaxSeats; seatNo++ {
		if _, taken := occupied[table.TableNo][seatNo]; !taken {
			return seatNo
		}
	}
	return 0
}

// AssignSeat finds the seat for a new player: the first free seat
// (lowest seat number) at the lowest-numbered active table. When every
// table is full, the returned location points at a table that does not
// exist yet (max table number + 1, seat 1); the caller is expected to
// open it.
func AssignSeat(players []*Player, tables []*Table) SeatLocation {
	occupied := occupiedSeats(players)
	for _, table := range activeTablesAscending(tables) {
		if seatNo := firstFreeSeat(occupied, table); seatNo != 0 {
			return SeatLocation{TableNo: table.TableNo, SeatNo: seatNo}
		}
	}

	var maxTableNo uint32
	for _, t := range tables {
		if t.TableNo > maxTableNo {
			maxTableNo = t.TableNo
		}
	}
	for tableNo := range occupied {
		if tableNo > maxTableNo {
			maxTableNo = tableNo
		}
	}
	return SeatLocation{TableNo: maxTableNo + 1, SeatNo: 1}
}

// HasSeatConflict reports whether another non-eliminated player
// already holds the given seat.
func HasSeatConflict(players []*Player, loc SeatLocation, excludePlayerID string) bool {
	for _, p := range players {
		if p.ID == excludePlayerID {
			continue
		}
		if seated(p) && p.TableNo == loc.TableNo && p.SeatNo == loc.SeatNo {
			return true
		}
	}
	return false
}

// AutoBalance evens out occupancy across active tables. Each pass
// moves the highest-seat player (the most recently seated) from the
// first overfull table to the first free seat at the first underfull
// table, in ascending table-number order. Returns the moves performed;
// nil when fewer than two tables are active.
func AutoBalance(players []*Player, tables []*Table) []SeatMove {
	active := activeTablesAscending(tables)
	if len(active) < 2 {
		return nil
	}

	occupied := occupiedSeats(players)
	counts := make(map[uint32]int)
	total := 0
	for _, table := range active {
		counts[table.TableNo] = len(occupied[table.TableNo])
		total += len(occupied[table.TableNo])
	}
	ideal := int(math.Ceil(float64(total) / float64(len(active))))

	var moves []SeatMove
	for pass := 0; pass < maxBalancePasses; pass++ {
		var donor, recipient *Table
		for _, table := range active {
			if donor == nil && counts[table.TableNo] > ideal {
				donor = table
			}
			if recipient == nil && counts[table.TableNo] < ideal-1 {
				recipient = table
			}
		}
		if donor == nil || recipient == nil {
			break
		}

		var mover *Player
		for _, p := range players {
			if !seated(p) || p.TableNo != donor.TableNo {
				continue
			}
			if mover == nil || p.SeatNo > mover.SeatNo {
				mover = p
			}
		}
		if mover == nil {
			break
		}
		seatNo := firstFreeSeat(occupied, recipient)
		if seatNo == 0 {
			break
		}

		delete(occupied[donor.TableNo], mover.SeatNo)
		moves = append(moves, movePlayer(mover, recipient.TableNo, seatNo, occupied))
		counts[donor.TableNo]--
		counts[recipient.TableNo]++
	}
	return moves
}

// BreakTable dissolves the given table, reseating its non-eliminated
// players one at a time at the first free seat of whichever remaining
// table currently has the fewest players. A table with no movable
// players is a no-op.
func BreakTable(players []*Player, tables []*Table, tableNo uint32) ([]SeatMove, error) {
	var movers []*Player
	for _, p := range players {
		if seated(p) && p.TableNo == tableNo {
			movers = append(movers, p)
		}
	}
	if len(movers) == 0 {
		return nil, nil
	}
	sort.Slice(movers, func(i, j int) bool {
		return movers[i].SeatNo < movers[j].SeatNo
	})

	var remaining []*Table
	for _, table := range activeTablesAscending(tables) {
		if table.TableNo != tableNo {
			remaining = append(remaining, table)
		}
	}
	if len(remaining) == 0 {
		return nil, NotEnoughTablesError{Msg: "No table remains to take the broken table's players"}
	}

	occupied := occupiedSeats(players)
	moves := make([]SeatMove, 0, len(movers))
	for _, mover := range movers {
		var target *Table
		var targetSeat uint32
		for _, table := range remaining {
			seatNo := firstFreeSeat(occupied, table)
			if seatNo == 0 {
				continue
			}
			if target == nil || len(occupied[table.TableNo]) < len(occupied[target.TableNo]) {
				target = table
				targetSeat = seatNo
			}
		}
		if target == nil {
			return moves, NoSeatAvailableError{Msg: "Not enough free seats to break the table"}
		}
		delete(occupied[tableNo], mover.SeatNo)
		moves = append(moves, movePlayer(mover, target.TableNo, targetSeat, occupied))
	}
	return moves, nil
}

// Redraw reseats every non-eliminated player: shuffle the field with a
// crypto-seeded generator, clear all assignments, then greedily assign
// each player to the least-occupied active table's first free seat.
func Redraw(players []*Player, tables []*Table, source rand.Source) []SeatMove {
	active := activeTablesAscending(tables)
	if len(active) == 0 {
		return nil
	}

	var field []*Player
	for _, p := range players {
		if p.Status != PlayerEliminated {
			field = append(field, p)
		}
	}
	if len(field) == 0 {
		return nil
	}

	if source == nil {
		source = newSeed()
	}
	randGen := rand.New(source)
	randGen.Shuffle(len(field), func(i, j int) {
		field[i], field[j] = field[j], field[i]
	})

	occupied := make(map[uint32]map[uint32]string)
	moves := make([]SeatMove, 0, len(field))
	for _, p := range field {
		var target *Table
		var targetSeat uint32
		for _, table := range active {
			seatNo := firstFreeSeat(occupied, table)
			if seatNo == 0 {
				continue
			}
			if target == nil || len(occupied[table.TableNo]) < len(occupied[target.TableNo]) {
				target = table
				targetSeat = seatNo
			}
		}
		if target == nil {
			// No capacity left. Should not happen on a redraw over the
			// same tables that held the field before.
			break
		}
		moves = append(moves, movePlayer(p, target.TableNo, targetSeat, occupied))
	}
	return moves
}

func movePlayer(p *Player, tableNo uint32, seatNo uint32, occupied map[uint32]map[uint32]string) SeatMove {
	move := SeatMove{
		PlayerID:  p.ID,
		FromTable: p.TableNo,
		FromSeat:  p.SeatNo,
		ToTable:   tableNo,
		ToSeat:    seatNo,
	}
	p.TableNo = tableNo
	p.SeatNo = seatNo
	if occupied[tableNo] == nil {
		occupied[tableNo] = make(map[uint32]string)
	}
	occupied[tableNo][seatNo] = p.ID
	return move
}

func newSeed() rand.Source {
	var b [8]byte
	_, err := crypto_rand.Read(b[:])
	if err != nil {
		panic("cannot seed math/rand package with cryptographically secure random number generator")
	}
	return rand.NewSource(int64(binary.LittleEndian.Uint64(b[:])))
}

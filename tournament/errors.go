package tournament

import "fmt"

type TournamentNotFoundError struct {
	Code string
}

func (e TournamentNotFoundError) Error() string {
	return fmt.Sprintf("Tournament %s is not found", e.Code)
}

type PlayerNotFoundError struct {
	PlayerID string
}

func (e PlayerNotFoundError) Error() string {
	return fmt.Sprintf("Player %s is not found", e.PlayerID)
}

type TableFullError struct {
	TableNo uint32
}

func (e TableFullError) Error() string {
	return fmt.Sprintf("Table %d has no free seat", e.TableNo)
}

type SeatConflictError struct {
	TableNo uint32
	SeatNo  uint32
}

func (e SeatConflictError) Error() string {
	return fmt.Sprintf("Seat %d at table %d is already taken", e.SeatNo, e.TableNo)
}

type TableNotEmptyError struct {
	TableNo uint32
}

func (e TableNotEmptyError) Error() string {
	return fmt.Sprintf("Table %d still has seated active players", e.TableNo)
}

type NotEnoughTablesError struct {
	Msg string
}

func (e NotEnoughTablesError) Error() string {
	return e.Msg
}

type NoSeatAvailableError struct {
	Msg string
}

func (e NoSeatAvailableError) Error() string {
	return e.Msg
}

type RebuyNotAllowedError struct {
	Msg string
}

func (e RebuyNotAllowedError) Error() string {
	return e.Msg
}

type InvalidRequestError struct {
	Msg string
}

func (e InvalidRequestError) Error() string {
	return e.Msg
}

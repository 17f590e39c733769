package tournament

// PersistTournamentState stores full tournament snapshots keyed by
// tournament code.
type PersistTournamentState interface {
	Load(code string) (*Snapshot, error)
	Save(code string, snapshot *Snapshot) error
	Remove(code string) error
	ListCodes() ([]string, error)
}

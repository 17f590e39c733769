package tournament

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"pokerclock.com/director/caching"
	"pokerclock.com/director/internal/util"
	"pokerclock.com/director/logging"
)

var managerLogger = log.With().Str("logger_name", "tournament::manager").Logger()

// Manager owns all active tournaments in this process.
type Manager struct {
	persist        PersistTournamentState
	broadcaster    Broadcaster
	clk            clockwork.Clock
	saveIntervalMs int

	activeTournaments cmap.ConcurrentMap // code -> *Tournament
	codeCache         *caching.TournamentCodeCache
	nextID            uint64
	codeGenMu         sync.Mutex
	codeGen           *rand.Rand
}

// NewManager builds a manager around the given persist store. A nil
// broadcaster degrades to no broadcasting; a nil clock uses the wall
// clock.
func NewManager(persist PersistTournamentState, broadcaster Broadcaster, clk clockwork.Clock, saveIntervalMs int) (*Manager, error) {
	if persist == nil {
		persist = NewMemoryStateTracker()
	}
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	codeCache, err := caching.NewCache()
	if err != nil {
		return nil, errors.Wrap(err, "Unable to instantiate tournament code cache")
	}
	return &Manager{
		persist:           persist,
		broadcaster:       broadcaster,
		clk:               clk,
		saveIntervalMs:    saveIntervalMs,
		activeTournaments: cmap.New(),
		codeCache:         codeCache,
		codeGen:           rand.New(newSeed()),
	}, nil
}

// NewManagerFromEnvironment picks the persist store from
// PERSIST_METHOD (redis|memory).
func NewManagerFromEnvironment(broadcaster Broadcaster) (*Manager, error) {
	env := util.DirectorEnvironment
	var persist PersistTournamentState
	if env.GetPersistMethod() == "redis" {
		persist = NewRedisStateTracker(
			fmt.Sprintf("%s:%d", env.GetRedisHost(), env.GetRedisPort()),
			env.GetRedisPW(), env.GetRedisDB())
	} else {
		persist = NewMemoryStateTracker()
	}
	return NewManager(persist, broadcaster, nil, env.GetSaveIntervalMs())
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func (m *Manager) generateCode() string {
	m.codeGenMu.Lock()
	defer m.codeGenMu.Unlock()
	for {
		code := make([]byte, 6)
		for i := range code {
			code[i] = codeAlphabet[m.codeGen.Intn(len(codeAlphabet))]
		}
		if _, exists := m.activeTournaments.Get(string(code)); !exists {
			return string(code)
		}
	}
}

// CreateTournament creates and registers a new tournament. An empty
// config code gets a generated one.
func (m *Manager) CreateTournament(config Config) (*Tournament, error) {
	if config.Code == "" {
		config.Code = m.generateCode()
	}
	if config.MaxSeatsPerTable == 0 {
		config.MaxSeatsPerTable = util.DirectorEnvironment.GetMaxSeatsPerTable()
	}
	if _, exists := m.activeTournaments.Get(config.Code); exists {
		return nil, InvalidRequestError{Msg: fmt.Sprintf("Tournament %s already exists", config.Code)}
	}

	id := atomic.AddUint64(&m.nextID, 1)
	t, err := NewTournament(id, config, m.persist, m.broadcaster, m.clk, m.saveIntervalMs)
	if err != nil {
		return nil, err
	}
	m.activeTournaments.Set(config.Code, t)
	m.codeCache.Add(id, config.Code)
	util.Metrics.TournamentCreated()
	util.Metrics.SetActiveTournamentsCount(m.activeTournaments.Count())
	managerLogger.Info().
		Str(logging.TournamentCodeKey, config.Code).
		Uint64(logging.TournamentIDKey, id).
		Msgf("Created tournament %s", config.Name)
	return t, nil
}

// GetTournament returns the active tournament for code.
func (m *Manager) GetTournament(code string) (*Tournament, error) {
	v, exists := m.activeTournaments.Get(code)
	if !exists {
		return nil, TournamentNotFoundError{Code: code}
	}
	return v.(*Tournament), nil
}

// GetTournamentByID resolves an ID through the code cache.
func (m *Manager) GetTournamentByID(tournamentID uint64) (*Tournament, error) {
	code, exists := m.codeCache.IDToCode(tournamentID)
	if !exists {
		return nil, TournamentNotFoundError{Code: fmt.Sprintf("id %d", tournamentID)}
	}
	return m.GetTournament(code)
}

// DeleteTournament stops a tournament and removes its persisted state.
func (m *Manager) DeleteTournament(code string) error {
	t, err := m.GetTournament(code)
	if err != nil {
		return err
	}
	t.End()
	m.activeTournaments.Remove(code)
	m.codeCache.Remove(t.ID(), code)
	util.Metrics.SetActiveTournamentsCount(m.activeTournaments.Count())
	err = m.persist.Remove(code)
	if err != nil {
		return errors.Wrapf(err, "Could not remove persisted state for %s", code)
	}
	managerLogger.Info().Str(logging.TournamentCodeKey, code).Msg("Deleted tournament")
	return nil
}

// RestoreAll reloads every persisted tournament, e.g. after a crash or
// restart. Snapshots that fail to load are skipped, not fatal.
func (m *Manager) RestoreAll() int {
	codes, err := m.persist.ListCodes()
	if err != nil {
		managerLogger.Error().Msgf("Could not list persisted tournaments: %s", err)
		return 0
	}

	restored := 0
	for _, code := range codes {
		if _, exists := m.activeTournaments.Get(code); exists {
			continue
		}
		snapshot, err := m.persist.Load(code)
		if err != nil {
			managerLogger.Error().Str(logging.TournamentCodeKey, code).Msgf("Could not load snapshot: %s", err)
			continue
		}
		t, err := RestoreTournament(snapshot, m.persist, m.broadcaster, m.clk, m.saveIntervalMs)
		if err != nil {
			managerLogger.Error().Str(logging.TournamentCodeKey, code).Msgf("Could not restore: %s", err)
			continue
		}
		m.activeTournaments.Set(code, t)
		m.codeCache.Add(t.ID(), code)
		if t.ID() > atomic.LoadUint64(&m.nextID) {
			atomic.StoreUint64(&m.nextID, t.ID())
		}
		restored++
	}
	util.Metrics.SetActiveTournamentsCount(m.activeTournaments.Count())
	if restored > 0 {
		managerLogger.Info().Msgf("Restored %d tournament(s) from the persist store", restored)
	}
	return restored
}

// ActiveCodes lists codes of tournaments currently in memory.
func (m *Manager) ActiveCodes() []string {
	return m.activeTournaments.Keys()
}

package caching

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// TournamentCodeCache maps tournament IDs to codes and back. Lookups
// by either key are frequent on the REST surface; the LRU bound keeps
// long-running directors from growing unbounded.
type TournamentCodeCache struct {
	idToCode *lru.Cache
	codeToID *lru.Cache
}

func NewCache() (*TournamentCodeCache, error) {
	size := 100000
	idToCode, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize idToCode cache")
	}
	codeToID, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize codeToID cache")
	}
	return &TournamentCodeCache{
		idToCode: idToCode,
		codeToID: codeToID,
	}, nil
}

func (c *TournamentCodeCache) Add(tournamentID uint64, code string) error {
	if tournamentID == 0 {
		return fmt.Errorf("Invalid tournament ID [%d]", tournamentID)
	} else if code == "" {
		return fmt.Errorf("Invalid tournament code [%s]", code)
	}

	c.idToCode.Add(tournamentID, code)
	c.codeToID.Add(code, tournamentID)
	return nil
}

func (c *TournamentCodeCache) Remove(tournamentID uint64, code string) {
	c.idToCode.Remove(tournamentID)
	c.codeToID.Remove(code)
}

func (c *TournamentCodeCache) IDToCode(tournamentID uint64) (string, bool) {
	v, exists := c.idToCode.Get(tournamentID)
	if !exists {
		return "", false
	}
	return v.(string), true
}

func (c *TournamentCodeCache) CodeToID(code string) (uint64, bool) {
	v, exists := c.codeToID.Get(code)
	if !exists {
		return 0, false
	}
	return v.(uint64), true
}

package structures

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"pokerclock.com/director/tournament"
)

// Structure is a named blind-structure template loaded from YAML.
type Structure struct {
	Name          string  `yaml:"name"`
	StartingChips float64 `yaml:"starting-chips"`
	LevelMinutes  uint32  `yaml:"level-minutes"`
	BreakEvery    uint32  `yaml:"break-every"`
	BreakMinutes  uint32  `yaml:"break-minutes"`
	Levels        []Level `yaml:"levels"`
}

// Level is one blind level in a template. Duration falls back to the
// template-wide level-minutes when zero.
type Level struct {
	SmallBlind float64 `yaml:"small-blind"`
	BigBlind   float64 `yaml:"big-blind"`
	Ante       float64 `yaml:"ante"`
	BringIn    float64 `yaml:"bring-in"`
	Minutes    uint32  `yaml:"minutes"`
}

// ReadStructure reads and validates a blind-structure template file.
func ReadStructure(fileName string) (*Structure, error) {
	bytes, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Error reading structure file [%s]", fileName)
	}

	var structure Structure
	err = yaml.Unmarshal(bytes, &structure)
	if err != nil {
		return nil, errors.Wrapf(err, "Error parsing YAML file [%s]", fileName)
	}

	err = structure.Validate()
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid structure file [%s]", fileName)
	}
	return &structure, nil
}

// Validate checks a template for usable blinds and durations.
func (s *Structure) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("structure needs a name")
	}
	if len(s.Levels) == 0 {
		return fmt.Errorf("structure needs at least one level")
	}
	prevBig := 0.0
	for i, level := range s.Levels {
		if level.SmallBlind <= 0 || level.BigBlind <= 0 {
			return fmt.Errorf("level %d has non-positive blinds", i+1)
		}
		if level.BigBlind < level.SmallBlind {
			return fmt.Errorf("level %d big blind is below the small blind", i+1)
		}
		if level.BigBlind < prevBig {
			return fmt.Errorf("level %d big blind decreases", i+1)
		}
		if level.Minutes == 0 && s.LevelMinutes == 0 {
			return fmt.Errorf("level %d has no duration and no structure default", i+1)
		}
		prevBig = level.BigBlind
	}
	if s.BreakEvery > 0 && s.BreakMinutes == 0 {
		return fmt.Errorf("break-every is set but break-minutes is zero")
	}
	return nil
}

// ToBlindLevels expands the template into the tournament's level
// sequence, inserting a break after every break-every levels.
func (s *Structure) ToBlindLevels() []tournament.BlindLevel {
	levels := make([]tournament.BlindLevel, 0, len(s.Levels))
	for i, level := range s.Levels {
		minutes := level.Minutes
		if minutes == 0 {
			minutes = s.LevelMinutes
		}
		levels = append(levels, tournament.BlindLevel{
			SmallBlind:  level.SmallBlind,
			BigBlind:    level.BigBlind,
			Ante:        level.Ante,
			BringIn:     level.BringIn,
			DurationMin: minutes,
		})
		atBreakBoundary := s.BreakEvery > 0 && uint32(i+1)%s.BreakEvery == 0
		if atBreakBoundary && i != len(s.Levels)-1 {
			levels = append(levels, tournament.BlindLevel{DurationMin: s.BreakMinutes})
		}
	}
	return levels
}

package structures

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

var structuresLogger = log.With().Str("logger_name", "structures::registry").Logger()

// LoadDir reads every .yaml template in dir, keyed by template name.
// Files that fail to parse are logged and skipped so one bad template
// does not block the rest.
func LoadDir(dir string) map[string]*Structure {
	templates := make(map[string]*Structure)
	entries, err := os.ReadDir(dir)
	if err != nil {
		structuresLogger.Error().Msgf("Could not read structures dir %s: %s", dir, err)
		return templates
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		fileName := filepath.Join(dir, entry.Name())
		structure, err := ReadStructure(fileName)
		if err != nil {
			structuresLogger.Error().Msgf("Skipping structure %s: %s", fileName, err)
			continue
		}
		templates[structure.Name] = structure
	}
	return templates
}

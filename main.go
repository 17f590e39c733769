package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"pokerclock.com/director/internal/util"
	"pokerclock.com/director/nats"
	"pokerclock.com/director/rest"
	"pokerclock.com/director/structures"
	"pokerclock.com/director/tournament"
)

var (
	cmdArgs    arg
	mainLogger = log.With().Str("logger_name", "main::main").Logger()
)

type arg struct {
	port          uint
	structuresDir string
}

func init() {
	flag.UintVar(&cmdArgs.port, "port", 8080, "Listen port")
	flag.StringVar(&cmdArgs.structuresDir, "structures-dir", "structures/default_structures", "Directory containing blind structure templates")
	flag.Parse()
}

func main() {
	mainLogger.Info().Msgf("Port: %d", cmdArgs.port)

	var broadcaster tournament.Broadcaster
	natsBroadcaster, err := nats.NewTournamentBroadcaster(util.DirectorEnvironment.GetNatsURL())
	if err != nil {
		mainLogger.Error().Msgf("NATS is unavailable. Running without broadcasting: %s", err)
		broadcaster = tournament.NoopBroadcaster{}
	} else {
		broadcaster = natsBroadcaster
		defer natsBroadcaster.Close()
	}

	manager, err := tournament.NewManagerFromEnvironment(broadcaster)
	if err != nil {
		mainLogger.Fatal().Msgf("Could not create tournament manager: %s", err)
	}

	restored := manager.RestoreAll()
	mainLogger.Info().Msgf("Restored %d tournament(s)", restored)

	templates := structures.LoadDir(cmdArgs.structuresDir)
	mainLogger.Info().Msgf("Loaded %d blind structure template(s)", len(templates))

	rest.RunRestServer(cmdArgs.port, manager, templates)
}

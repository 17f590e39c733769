package util

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

var environmentLogger = log.With().Str("logger_name", "util::environment").Logger()

type directorEnvironment struct {
	PersistMethod  string
	RedisHost      string
	RedisPort      string
	RedisPW        string
	RedisDB        string
	NatsURL        string
	SaveIntervalMs string
	MaxSeats       string
}

// DirectorEnvironment is a helper object for accessing environment variables.
var DirectorEnvironment = &directorEnvironment{
	PersistMethod:  "PERSIST_METHOD",
	RedisHost:      "REDIS_HOST",
	RedisPort:      "REDIS_PORT",
	RedisPW:        "REDIS_PW",
	RedisDB:        "REDIS_DB",
	NatsURL:        "NATS_URL",
	SaveIntervalMs: "SAVE_INTERVAL_MS",
	MaxSeats:       "MAX_SEATS_PER_TABLE",
}

func (d *directorEnvironment) GetPersistMethod() string {
	method := os.Getenv(d.PersistMethod)
	if method == "" {
		// Keep the director usable without any backing store.
		return "memory"
	}
	return method
}

func (d *directorEnvironment) GetRedisHost() string {
	host := os.Getenv(d.RedisHost)
	if host == "" {
		msg := fmt.Sprintf("%s is not defined", d.RedisHost)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return host
}

func (d *directorEnvironment) GetRedisPort() int {
	portStr := os.Getenv(d.RedisPort)
	if portStr == "" {
		msg := fmt.Sprintf("%s is not defined", d.RedisPort)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	portNum, err := strconv.Atoi(portStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid Redis port %s", portStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return portNum
}

func (d *directorEnvironment) GetRedisPW() string {
	pw := os.Getenv(d.RedisPW)
	return pw
}

func (d *directorEnvironment) GetRedisDB() int {
	dbStr := os.Getenv(d.RedisDB)
	if dbStr == "" {
		return 0
	}
	dbNum, err := strconv.Atoi(dbStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid Redis db %s", dbStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return dbNum
}

func (d *directorEnvironment) GetNatsURL() string {
	url := os.Getenv(d.NatsURL)
	if url == "" {
		return "nats://localhost:4222"
	}
	return url
}

func (d *directorEnvironment) GetSaveIntervalMs() int {
	intervalStr := os.Getenv(d.SaveIntervalMs)
	if intervalStr == "" {
		return 500
	}
	interval, err := strconv.Atoi(intervalStr)
	if err != nil {
		environmentLogger.Error().Msgf("Invalid save interval %s. Using default", intervalStr)
		return 500
	}
	return interval
}

func (d *directorEnvironment) GetMaxSeatsPerTable() uint32 {
	seatsStr := os.Getenv(d.MaxSeats)
	if seatsStr == "" {
		return 9
	}
	seats, err := strconv.Atoi(seatsStr)
	if err != nil || seats < 2 {
		environmentLogger.Error().Msgf("Invalid max seats %s. Using default", seatsStr)
		return 9
	}
	return uint32(seats)
}

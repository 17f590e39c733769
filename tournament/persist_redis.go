package tournament

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
)

const tournamentCodesKey = "tournaments"

// RedisStateTracker persists tournament snapshots as JSON blobs keyed
// by "tournament|<code>". A set of known codes makes restart recovery
// possible without scanning the keyspace.
type RedisStateTracker struct {
	rdclient *redis.Client
}

func NewRedisStateTracker(redisURL string, redisPW string, redisDB int) *RedisStateTracker {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPW,
		DB:       redisDB,
	})
	return &RedisStateTracker{
		rdclient: rdclient,
	}
}

func tournamentKey(code string) string {
	return fmt.Sprintf("tournament|%s", code)
}

func (r *RedisStateTracker) Load(code string) (*Snapshot, error) {
	data, err := r.rdclient.Get(context.Background(), tournamentKey(code)).Result()
	if err == redis.Nil {
		return nil, TournamentNotFoundError{Code: code}
	} else if err != nil {
		return nil, err
	}
	var snapshot Snapshot
	err = jsoniter.Unmarshal([]byte(data), &snapshot)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *RedisStateTracker) Save(code string, snapshot *Snapshot) error {
	data, err := jsoniter.Marshal(snapshot)
	if err != nil {
		return err
	}
	ctx := context.Background()
	err = r.rdclient.Set(ctx, tournamentKey(code), data, 0).Err()
	if err != nil {
		return err
	}
	return r.rdclient.SAdd(ctx, tournamentCodesKey, code).Err()
}

func (r *RedisStateTracker) Remove(code string) error {
	ctx := context.Background()
	err := r.rdclient.Del(ctx, tournamentKey(code)).Err()
	if err != nil {
		return err
	}
	return r.rdclient.SRem(ctx, tournamentCodesKey, code).Err()
}

func (r *RedisStateTracker) ListCodes() ([]string, error) {
	return r.rdclient.SMembers(context.Background(), tournamentCodesKey).Result()
}

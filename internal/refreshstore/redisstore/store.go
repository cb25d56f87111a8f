// Package redisstore keeps refresh sessions in Redis. Each session is a hash
// under rt:rec:<id>, indexed by token digest (rt:tok:<sha256>) and by user
// (rt:user:<id> set). Writes that must be atomic run as Lua scripts.
//
// The scripts derive record and digest keys from stored data, so all keys
// must live on one node: the store takes a single-node client, not a cluster.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/models"
	"github.com/Skotchmaster/museum/internal/repo"
	"github.com/Skotchmaster/museum/pkg/tokens"
)

const defaultPrefix = "rt:"

const saveScript = `
if redis.call("EXISTS", KEYS[2]) == 1 then
  return 0
end
local exp = tonumber(ARGV[4])
redis.call("HSET", KEYS[1], "id", ARGV[1], "user_id", ARGV[2], "token_hash", ARGV[3], "expires_at", ARGV[4], "created_at", ARGV[5])
redis.call("PEXPIREAT", KEYS[1], exp)
redis.call("SET", KEYS[2], ARGV[1])
redis.call("PEXPIREAT", KEYS[2], exp)
redis.call("SADD", KEYS[3], ARGV[1])
return 1
`

const rotateScript = `
local current = redis.call("HGET", KEYS[1], "token_hash")
if not current or current ~= ARGV[1] then
  return 0
end
local exp = tonumber(ARGV[3])
redis.call("DEL", KEYS[2])
redis.call("HSET", KEYS[1], "token_hash", ARGV[2], "expires_at", ARGV[3])
redis.call("PEXPIREAT", KEYS[1], exp)
redis.call("SET", KEYS[3], ARGV[4])
redis.call("PEXPIREAT", KEYS[3], exp)
return 1
`

const deleteScript = `
local fields = redis.call("HMGET", KEYS[1], "user_id", "token_hash")
if not fields[1] then
  return 0
end
if ARGV[2] ~= "" and fields[1] ~= ARGV[2] then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("DEL", ARGV[1] .. "tok:" .. fields[2])
redis.call("SREM", ARGV[1] .. "user:" .. fields[1], ARGV[3])
return 1
`

const revokeAllScript = `
local ids = redis.call("SMEMBERS", KEYS[1])
local removed = 0
for _, id in ipairs(ids) do
  local rec = ARGV[1] .. "rec:" .. id
  local hash = redis.call("HGET", rec, "token_hash")
  if hash then
    redis.call("DEL", ARGV[1] .. "tok:" .. hash)
    redis.call("DEL", rec)
    removed = removed + 1
  end
end
redis.call("DEL", KEYS[1])
return removed
`

var (
	saveLua      = redis.NewScript(saveScript)
	rotateLua    = redis.NewScript(rotateScript)
	deleteLua    = redis.NewScript(deleteScript)
	revokeAllLua = redis.NewScript(revokeAllScript)
)

type Store struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

var _ repo.RefreshStore = (*Store)(nil)

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, prefix: defaultPrefix, now: time.Now}
}

func (s *Store) recKey(id uint) string      { return s.prefix + "rec:" + strconv.FormatUint(uint64(id), 10) }
func (s *Store) tokKey(hash string) string  { return s.prefix + "tok:" + hash }
func (s *Store) userKey(userID uint) string { return s.prefix + "user:" + strconv.FormatUint(uint64(userID), 10) }
func (s *Store) seqKey() string             { return s.prefix + "seq" }

func (s *Store) Save(ctx context.Context, userID uint, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	seq, err := s.rdb.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis incr: %w", err)
	}
	rt := &models.RefreshToken{
		ID:        uint(seq),
		TokenHash: tokens.Sha256Hex(token),
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: s.now().UTC(),
	}

	ok, err := saveLua.Run(ctx, s.rdb,
		[]string{s.recKey(rt.ID), s.tokKey(rt.TokenHash), s.userKey(userID)},
		rt.ID, userID, rt.TokenHash, rt.ExpiresAt.UnixMilli(), rt.CreatedAt.UnixMilli(),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("redis save: %w", err)
	}
	if ok == 0 {
		return nil, errs.ErrConflict
	}
	return rt, nil
}

func (s *Store) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	hash := tokens.Sha256Hex(token)
	id, err := s.rdb.Get(ctx, s.tokKey(hash)).Uint64()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	rt, err := s.load(ctx, uint(id))
	if err != nil || rt == nil {
		return nil, err
	}
	if rt.TokenHash != hash || !rt.ExpiresAt.After(s.now()) {
		return nil, nil
	}
	return rt, nil
}

func (s *Store) load(ctx context.Context, id uint) (*models.RefreshToken, error) {
	fields, err := s.rdb.HGetAll(ctx, s.recKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	userID, err := strconv.ParseUint(fields["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session %d: user_id: %w", id, err)
	}
	exp, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session %d: expires_at: %w", id, err)
	}
	created, _ := strconv.ParseInt(fields["created_at"], 10, 64)

	return &models.RefreshToken{
		ID:        id,
		TokenHash: fields["token_hash"],
		UserID:    uint(userID),
		ExpiresAt: time.UnixMilli(exp).UTC(),
		CreatedAt: time.UnixMilli(created).UTC(),
	}, nil
}

func (s *Store) Rotate(ctx context.Context, id uint, oldToken, newToken string, newExpiry time.Time) error {
	oldHash, newHash := tokens.Sha256Hex(oldToken), tokens.Sha256Hex(newToken)
	ok, err := rotateLua.Run(ctx, s.rdb,
		[]string{s.recKey(id), s.tokKey(oldHash), s.tokKey(newHash)},
		oldHash, newHash, newExpiry.UTC().UnixMilli(), id,
	).Int()
	if err != nil {
		return fmt.Errorf("redis rotate: %w", err)
	}
	if ok == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *Store) RevokeAll(ctx context.Context, userID uint) (int64, error) {
	n, err := revokeAllLua.Run(ctx, s.rdb, []string{s.userKey(userID)}, s.prefix).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis revoke all: %w", err)
	}
	return n, nil
}

func (s *Store) RevokeOne(ctx context.Context, id uint) error {
	ok, err := deleteLua.Run(ctx, s.rdb, []string{s.recKey(id)}, s.prefix, "", id).Int()
	if err != nil {
		return fmt.Errorf("redis revoke: %w", err)
	}
	if ok == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *Store) RevokeByToken(ctx context.Context, userID uint, token string) error {
	id, err := s.rdb.Get(ctx, s.tokKey(tokens.Sha256Hex(token))).Uint64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	_, err = deleteLua.Run(ctx, s.rdb, []string{s.recKey(uint(id))}, s.prefix, strconv.FormatUint(uint64(userID), 10), id).Int()
	if err != nil {
		return fmt.Errorf("redis revoke: %w", err)
	}
	return nil
}

// CountActive also drops ids whose records Redis has already expired.
func (s *Store) CountActive(ctx context.Context, userID uint) (int64, error) {
	ids, err := s.rdb.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis smembers: %w", err)
	}
	var n int64
	for _, raw := range ids {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			continue
		}
		rt, err := s.load(ctx, uint(id))
		if err != nil {
			return 0, err
		}
		if rt == nil {
			s.rdb.SRem(ctx, s.userKey(userID), raw)
			continue
		}
		if rt.ExpiresAt.After(s.now()) {
			n++
		}
	}
	return n, nil
}

// PurgeExpired is a no-op: Redis expires records on its own.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

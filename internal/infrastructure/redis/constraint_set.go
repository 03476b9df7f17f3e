package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/auctionlabs/command-server/internal/domain/repository"
)

func keyPair(username, email string) string { return "constraint:pair:" + username + ":" + email }
func keyUsername(username string) string    { return "constraint:username:" + username }
func keyEmail(email string) string          { return "constraint:email:" + email }

// Lua script: atomic check of combo, username and email, then reserve all
// three keys. Precedence of the returned conflict matches the check order.
var reserveScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then return "combo" end
if redis.call("EXISTS", KEYS[2]) == 1 then return "username" end
if redis.call("EXISTS", KEYS[3]) == 1 then return "email" end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("SET", KEYS[2], ARGV[1])
redis.call("SET", KEYS[3], ARGV[1])
return "ok"
`)

// ConstraintSet is a uniqueness registry shared across server processes,
// using a Lua script so check-then-reserve executes atomically in Redis.
type ConstraintSet struct {
	rdb *goredis.Client
}

func NewConstraintSet(rdb *goredis.Client) *ConstraintSet {
	return &ConstraintSet{rdb: rdb}
}

func (s *ConstraintSet) Reserve(ctx context.Context, username, email, aggregateID string) error {
	keys := []string{keyPair(username, email), keyUsername(username), keyEmail(email)}
	res, err := reserveScript.Run(ctx, s.rdb, keys, aggregateID).Text()
	if err != nil {
		return fmt.Errorf("reserve script: %w", err)
	}
	switch res {
	case "ok":
		return nil
	case "combo":
		return repository.ErrUsernameEmailComboExists
	case "username":
		return repository.ErrUsernameExists
	case "email":
		return repository.ErrEmailExists
	default:
		return fmt.Errorf("reserve script: unexpected reply %q", res)
	}
}

func (s *ConstraintSet) Release(ctx context.Context, username, email string) error {
	return s.rdb.Del(ctx, keyPair(username, email), keyUsername(username), keyEmail(email)).Err()
}

var _ repository.ConstraintSet = (*ConstraintSet)(nil)

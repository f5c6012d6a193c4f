package watcher

import (
	"fmt"
	"os/user"
	"strconv"
	"sync"

	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/common"
)

// UserResolver resolves ids through the system user and group databases.
// Successful lookups are cached for the lifetime of the resolver.
type UserResolver struct {
	numericFallback bool

	mu     sync.RWMutex
	users  map[uint32]string
	groups map[uint32]string

	lookupUser  func(id string) (string, error)
	lookupGroup func(id string) (string, error)
}

// NewUserResolver creates a resolver. With numericFallback, ids that cannot be
// resolved are rendered as decimal strings instead of failing.
func NewUserResolver(numericFallback bool) *UserResolver {
	return &UserResolver{
		numericFallback: numericFallback,
		users:           make(map[uint32]string),
		groups:          make(map[uint32]string),
		lookupUser: func(id string) (string, error) {
			u, err := user.LookupId(id)
			if err != nil {
				return "", err
			}
			return u.Username, nil
		},
		lookupGroup: func(id string) (string, error) {
			g, err := user.LookupGroupId(id)
			if err != nil {
				return "", err
			}
			return g.Name, nil
		},
	}
}

// UserName resolves a numeric user id
func (r *UserResolver) UserName(uid uint32) (string, error) {
	return r.resolve(uid, r.users, r.lookupUser, "user")
}

// GroupName resolves a numeric group id
func (r *UserResolver) GroupName(gid uint32) (string, error) {
	return r.resolve(gid, r.groups, r.lookupGroup, "group")
}

func (r *UserResolver) resolve(id uint32, cache map[uint32]string, lookup func(string) (string, error), what string) (string, error) {
	r.mu.RLock()
	name, ok := cache[id]
	r.mu.RUnlock()
	if ok {
		return name, nil
	}

	key := strconv.FormatUint(uint64(id), 10)
	name, err := lookup(key)
	if err != nil {
		if r.numericFallback {
			return key, nil
		}
		return "", fmt.Errorf("%w: %s id %s: %v", common.ErrIdentityResolution, what, key, err)
	}

	r.mu.Lock()
	cache[id] = name
	r.mu.Unlock()
	return name, nil
}

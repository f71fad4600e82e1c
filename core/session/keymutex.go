package session

import (
	"hash/fnv"
	"sync"
)

const keyMutexShards = 64

// KeyMutex serializes work per user key with a fixed set of striped locks.
// Two concurrent inbound events for the same user take the same shard, so
// the read-validate-write span of one event is indivisible per user.
type KeyMutex struct {
	shards [keyMutexShards]sync.Mutex
}

// Lock acquires the shard for key and returns the matching unlock function.
func (k *KeyMutex) Lock(key string) func() {
	m := &k.shards[shardIndex(key)]
	m.Lock()
	return m.Unlock
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % keyMutexShards
}

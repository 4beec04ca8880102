package metadata

import "sync"

// A set of mutexes, one per key. Entries are kept for the lifetime of the process.
type keyedMutex struct {
	mutex sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mutex.Lock()
	if k.locks == nil {
		k.locks = map[string]*sync.Mutex{}
	}
	keyLock, ok := k.locks[key]
	if !ok {
		keyLock = &sync.Mutex{}
		k.locks[key] = keyLock
	}
	k.mutex.Unlock()

	keyLock.Lock()
	return keyLock.Unlock
}

package datastore

import "sync"

// KeyMutexManager hands out one mutex per key so writers to different files
// proceed in parallel while writers to the same file are serialized.
type KeyMutexManager struct {
	mutexes map[string]*sync.Mutex
	mapLock sync.Mutex
}

// NewKeyMutexManager creates a new KeyMutexManager
func NewKeyMutexManager() *KeyMutexManager {
	return &KeyMutexManager{mutexes: make(map[string]*sync.Mutex)}
}

// GetMutex returns the mutex for key, creating it on first use
func (m *KeyMutexManager) GetMutex(key string) *sync.Mutex {
	m.mapLock.Lock()
	defer m.mapLock.Unlock()

	mutex, ok := m.mutexes[key]
	if !ok {
		mutex = &sync.Mutex{}
		m.mutexes[key] = mutex
	}
	return mutex
}

package store

// CacheWait flushes pending cache writes for test synchronization.
func CacheWait(s *Store) {
	s.cache.Wait()
}

// CacheClear drops all cached resolutions, for test isolation.
func CacheClear(s *Store) {
	s.cache.Clear()
}

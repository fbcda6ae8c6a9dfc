package core

// Option configures a Store at Open.
type Option func(*Store)

// WithInitialCapacity sets the number of slots the positional index starts
// with. The index doubles on demand, so this only avoids early rehashing.
func WithInitialCapacity(capacity int) Option {
	return func(s *Store) {
		s.initialCapacity = capacity
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSyncWrites makes every mutating operation flush the backing file to
// stable storage before returning.
func WithSyncWrites(enabled bool) Option {
	return func(s *Store) {
		s.syncWrites = enabled
	}
}

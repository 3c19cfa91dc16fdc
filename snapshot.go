package dyn

// Snapshot records the values a set of variables resolved to at capture time.
// Bindings never cross goroutines on their own; a Snapshot is the explicit
// hand-off for the cases that need it, typically capturing in the spawning
// goroutine and rebinding inside the spawned one:
//
//	snap := dyn.Capture(verbosity, tenant)
//	go func() {
//		snap.Do(worker)
//	}()
type Snapshot struct {
	entries []snapshotEntry
}

type snapshotEntry struct {
	source Variable
	value  any
}

// Capture records the current value of each variable in the calling
// goroutine. Variables that are unbound with no default are skipped; nil
// entries are ignored.
func Capture(vars ...Variable) Snapshot {
	var entries []snapshotEntry
	for _, v := range vars {
		if v == nil {
			continue
		}
		if value, ok := v.peek(); ok {
			entries = append(entries, snapshotEntry{source: v, value: value})
		}
	}
	return Snapshot{entries: entries}
}

// Len returns the number of captured values.
func (s Snapshot) Len() int {
	return len(s.entries)
}

// Do rebinds every captured value in the calling goroutine, runs fn, and
// releases the bindings in reverse order on every exit path including panics.
func (s Snapshot) Do(fn func()) error {
	releases := make([]func() error, 0, len(s.entries))
	defer func() {
		for i := len(releases) - 1; i >= 0; i-- {
			_ = releases[i]()
		}
	}()
	for _, entry := range s.entries {
		release, err := entry.source.bindValue(entry.value)
		if err != nil {
			return err
		}
		releases = append(releases, release)
	}
	fn()
	return nil
}

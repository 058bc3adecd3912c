package journal

// FailNextAppend is a test helper that makes the next Append on an in-memory
// journal return err without storing anything.
func FailNextAppend(j Journal, err error) {
	if mem, ok := j.(*inMemoryJournal); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.appendErr = err
	}
}

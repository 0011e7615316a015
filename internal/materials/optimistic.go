package materials

// optimistic applies next through set, runs persist, and puts the previous
// value back when persist fails. get and set do their own locking; nothing
// sequences two overlapping updates of the same value, so the last one to
// finish wins.
func optimistic[T any](get func() T, set func(T), next T, persist func() error) error {
	prev := get()
	set(next)
	if err := persist(); err != nil {
		set(prev)
		return err
	}
	return nil
}

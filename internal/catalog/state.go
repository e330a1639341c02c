package catalog

// LoadState tracks a collection fetch. An empty collection is LoadedEmpty,
// never Pending.
type LoadState int

const (
	Pending LoadState = iota
	LoadedEmpty
	LoadedNonEmpty
	Failed
)

// StateFor classifies a finished fetch.
func StateFor(n int, err error) LoadState {
	switch {
	case err != nil:
		return Failed
	case n == 0:
		return LoadedEmpty
	default:
		return LoadedNonEmpty
	}
}

func (s LoadState) Loaded() bool {
	return s == LoadedEmpty || s == LoadedNonEmpty
}

func (s LoadState) String() string {
	switch s {
	case Pending:
		return "pending"
	case LoadedEmpty:
		return "loaded-empty"
	case LoadedNonEmpty:
		return "loaded-nonempty"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

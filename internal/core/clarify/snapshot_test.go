package clarify

import "github.com/atvirokodosprendimai/saveclarify/internal/core/domain"

type fakeProp struct {
	name     string
	value    any
	modified bool
}

// fakeEntry is an in-memory EntitySnapshot for tests.
type fakeEntry struct {
	state domain.EntityState
	props []fakeProp
}

func (e *fakeEntry) State() domain.EntityState { return e.state }

func (e *fakeEntry) PropertyNames() []string {
	names := make([]string, 0, len(e.props))
	for _, p := range e.props {
		names = append(names, p.name)
	}
	return names
}

func (e *fakeEntry) CurrentValue(name string) (any, bool) {
	for _, p := range e.props {
		if p.name == name {
			return p.value, true
		}
	}
	return nil, false
}

func (e *fakeEntry) IsModified(name string) bool {
	for _, p := range e.props {
		if p.name == name {
			return p.modified
		}
	}
	return false
}

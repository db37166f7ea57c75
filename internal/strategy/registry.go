package strategy

import "sort"

type registryKey struct {
	id      string
	chainID uint64
}

// Registry resolves adapters by strategy ID and chain. Callers construct it
// explicitly and pass it where needed; there is no package-level instance.
type Registry struct {
	adapters map[registryKey]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[registryKey]Adapter)}
}

func (r *Registry) Register(a Adapter) {
	id := a.Identity()
	r.adapters[registryKey{id: id.ID, chainID: id.ChainID}] = a
}

func (r *Registry) Lookup(id string, chainID uint64) (Adapter, bool) {
	a, ok := r.adapters[registryKey{id: id, chainID: chainID}]
	return a, ok
}

// All returns every registered adapter ordered by ID then chain for
// deterministic iteration.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Identity(), out[j].Identity()
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.ChainID < b.ChainID
	})
	return out
}

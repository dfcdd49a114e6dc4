package model

// Registry is the read-only model catalog. It is built once at process
// start and is the only structure intentionally shared across sessions,
// which is safe because it is never mutated after construction.
type Registry struct {
	byID  map[string]Profile
	order []string
}

// NewRegistry builds a registry from the given profiles. Later duplicates
// of an ID replace earlier ones but keep the original position.
func NewRegistry(profiles ...Profile) *Registry {
	r := &Registry{byID: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if _, seen := r.byID[p.ID]; !seen {
			r.order = append(r.order, p.ID)
		}
		r.byID[p.ID] = p
	}
	return r
}

// NewBuiltinRegistry returns a registry over the static model table.
func NewBuiltinRegistry() *Registry {
	return NewRegistry(BuiltinProfiles()...)
}

// Get looks up a profile by ID.
func (r *Registry) Get(id string) (Profile, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// GetOrDefault looks up a profile by ID, falling back to DefaultProfile
// for unknown IDs. An unknown model must never fail a turn.
func (r *Registry) GetOrDefault(id string) Profile {
	if p, ok := r.byID[id]; ok {
		return p
	}
	return DefaultProfile
}

// All returns the profiles in registration order.
func (r *Registry) All() []Profile {
	out := make([]Profile, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// DisplayName returns the profile's display name, or the raw ID when the
// model is unknown.
func (r *Registry) DisplayName(id string) string {
	if p, ok := r.byID[id]; ok {
		return p.DisplayName
	}
	return id
}

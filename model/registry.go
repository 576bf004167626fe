package model

// Registry holds the schemas of all known record types. It replaces implicit
// type registration: each record type registers its schema once at program
// start, and request layers dispatch raw payloads by type name through it.
type Registry struct {
	names  []string
	byName map[string]*Schema
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Schema),
	}
}

// Register adds a schema to the registry. Registering the same type name
// again replaces the previous schema.
func (r *Registry) Register(s *Schema) {
	if _, ok := r.byName[s.Name()]; !ok {
		r.names = append(r.names, s.Name())
	}
	r.byName[s.Name()] = s
}

// Lookup returns the schema registered for the type name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Names returns the registered type names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

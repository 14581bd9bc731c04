package registry

// Scope is the ordered set of variables a block owns.
// An inline scope belongs to a branch or execute handler that runs
// synchronously inside its parent, so lookups fall through to the parent.
//
// A promoted variable is owned for cleanup only: it is killed with the
// scope but cannot be looked up by name.
type Scope struct {
	vars     []Variable
	promoted map[Variable]bool
	parent   *Scope
	inline   bool
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Variables returns the owned variables in declaration order.
func (s *Scope) Variables() []Variable {
	out := make([]Variable, len(s.vars))
	copy(out, s.vars)
	return out
}

// Len is the number of owned variables.
func (s *Scope) Len() int {
	return len(s.vars)
}

// Lookup finds an owned variable by source name. Later declarations win.
func (s *Scope) Lookup(name string) (Variable, bool) {
	for i := len(s.vars) - 1; i >= 0; i-- {
		if s.vars[i].SourceName() == name && !s.promoted[s.vars[i]] {
			return s.vars[i], true
		}
	}
	return nil, false
}

// Owns reports whether v belongs to s.
func (s *Scope) Owns(v Variable) bool {
	return s.index(v) >= 0
}

func (s *Scope) add(v Variable) {
	s.vars = append(s.vars, v)
}

func (s *Scope) addPromoted(v Variable) {
	if s.promoted == nil {
		s.promoted = make(map[Variable]bool)
	}
	s.vars = append(s.vars, v)
	s.promoted[v] = true
}

func (s *Scope) remove(v Variable) bool {
	i := s.index(v)
	if i < 0 {
		return false
	}
	delete(s.promoted, v)
	s.vars = append(s.vars[:i], s.vars[i+1:]...)
	return true
}

func (s *Scope) index(v Variable) int {
	for i, owned := range s.vars {
		if owned == v {
			return i
		}
	}
	return -1
}

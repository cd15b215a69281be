package symbols

import (
	"veld/internal/source"
)

// ScopeID is an index into the scope arena. Parents are stored as indices,
// not pointers, so the scope tree carries no ownership cycles.
type ScopeID int32

// NoScopeID marks a missing parent. A detached scope (inline assembly)
// stores it deliberately: variable capture from outer scopes is forbidden
// there, only the registered register set is visible.
const NoScopeID ScopeID = -1

// ObjectKind classifies scope entries.
type ObjectKind uint8

const (
	ObjVar ObjectKind = iota
	ObjConst
	ObjAsmRegister
	ObjGlobal
)

// Object is one entry registered in a scope.
type Object struct {
	Kind  ObjectKind
	Name  string
	Type  Type
	IsMut bool
}

// Scope is one lexical scope. Created on block entry; sealed (end position
// fixed) on block exit, at which point it is attached to its parent.
type Scope struct {
	Parent   ScopeID
	Detached bool
	Start    uint32
	End      uint32 // fixed at seal time
	Objects  []Object
	Children []ScopeID
	names    map[string]int // index into Objects
}

// Scopes is the scope arena.
type Scopes struct {
	arena []Scope
}

func NewScopes() *Scopes {
	return &Scopes{arena: make([]Scope, 0, 64)}
}

// New creates a scope under parent (NoScopeID for roots).
func (s *Scopes) New(parent ScopeID, start uint32) ScopeID {
	id := ScopeID(len(s.arena))
	s.arena = append(s.arena, Scope{
		Parent: parent,
		Start:  start,
		End:    start,
		names:  make(map[string]int),
	})
	return id
}

// NewDetached creates a scope with no parent link. Lookup never escapes it.
func (s *Scopes) NewDetached(start uint32) ScopeID {
	id := s.New(NoScopeID, start)
	s.arena[id].Detached = true
	return id
}

// Get returns the scope for a valid ID, nil otherwise.
func (s *Scopes) Get(id ScopeID) *Scope {
	if id <= NoScopeID || int(id) >= len(s.arena) {
		return nil
	}
	return &s.arena[id]
}

// Len returns the number of allocated scopes.
func (s *Scopes) Len() int { return len(s.arena) }

// Seal fixes the scope's end position and attaches it to its parent.
// Detached scopes seal without attaching.
func (s *Scopes) Seal(id ScopeID, end uint32) {
	sc := s.Get(id)
	if sc == nil {
		return
	}
	sc.End = end
	if sc.Detached || sc.Parent == NoScopeID {
		return
	}
	parent := s.Get(sc.Parent)
	if parent != nil {
		parent.Children = append(parent.Children, id)
	}
}

// Register adds obj to the scope; an existing name in the same scope is
// rejected.
func (s *Scopes) Register(id ScopeID, obj Object) bool {
	sc := s.Get(id)
	if sc == nil {
		return false
	}
	if _, exists := sc.names[obj.Name]; exists {
		return false
	}
	sc.names[obj.Name] = len(sc.Objects)
	sc.Objects = append(sc.Objects, obj)
	return true
}

// Lookup resolves name starting at id and walking parent links. Detached
// scopes stop the walk: outer variables are invisible inside them.
func (s *Scopes) Lookup(id ScopeID, name string) (*Object, bool) {
	for cur := id; cur != NoScopeID; {
		sc := s.Get(cur)
		if sc == nil {
			return nil, false
		}
		if idx, ok := sc.names[name]; ok {
			return &sc.Objects[idx], true
		}
		if sc.Detached {
			return nil, false
		}
		cur = sc.Parent
	}
	return nil, false
}

// Contains reports whether the sealed scope covers the given offset.
func (sc *Scope) Contains(span source.Span) bool {
	return span.Start >= sc.Start && span.End <= sc.End
}

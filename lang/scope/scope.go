// Package scope implements the lexical scope tree and the symbols bound to
// it. Scopes form a tree with parent back-references; each function body,
// compound block and control-flow body pushes a fresh child. Name lookup
// walks the parent chain. The tree outlives the AST: typed nodes carry
// handles to the scope they live in so later passes can re-enter it.
package scope

import (
	"github.com/dolthub/swiss"

	"nanocc/lang/types"
)

// A Scope holds the name bindings of one lexical block. C keeps ordinary
// identifiers, typedef names and struct/union/enum tags in distinct
// namespaces, so three separate maps are used.
type Scope struct {
	parent *Scope

	vars     *swiss.Map[string, types.Type]
	typedefs *swiss.Map[string, types.Type]
	tags     *swiss.Map[string, types.Type]

	// enum constants are compile-time integers, resolved to their value at
	// the point of reference rather than looked up at run time.
	enums *swiss.Map[string, int64]

	// funcs is non-nil only on the root scope: functions are file-scope
	// regardless of where their prototype appears.
	funcs *swiss.Map[string, types.Type]
}

// NewRoot returns a fresh root scope. The root is never popped.
func NewRoot() *Scope {
	s := newScope(nil)
	s.funcs = swiss.NewMap[string, types.Type](8)
	return s
}

func newScope(parent *Scope) *Scope {
	return &Scope{
		parent:   parent,
		vars:     swiss.NewMap[string, types.Type](4),
		typedefs: swiss.NewMap[string, types.Type](2),
		tags:     swiss.NewMap[string, types.Type](2),
		enums:    swiss.NewMap[string, int64](2),
	}
}

// Push creates and returns a child scope of s.
func (s *Scope) Push() *Scope { return newScope(s) }

// Parent returns the enclosing scope, nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Root walks the parent chain up to the root scope.
func (s *Scope) Root() *Scope {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

// DeclareVar binds name to t in s itself. A declaration always lands in the
// current scope; re-declaring a name in the same scope overwrites it.
func (s *Scope) DeclareVar(name string, t types.Type) {
	s.vars.Put(name, t)
}

// LookupVarLocal reports the type bound to name in s itself, ignoring
// enclosing scopes.
func (s *Scope) LookupVarLocal(name string) (types.Type, bool) {
	return s.vars.Get(name)
}

// ResolveVar walks the parent chain looking for name, returning the type and
// the scope in which the name was found. File-scope functions are consulted
// last, bound to the root scope.
func (s *Scope) ResolveVar(name string) (types.Type, *Scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.vars.Get(name); ok {
			return t, cur, true
		}
	}
	root := s.Root()
	if t, ok := root.funcs.Get(name); ok {
		return t, root, true
	}
	return nil, nil, false
}

// DeclareFunc registers a file-scope function symbol, regardless of the
// scope the declaration appeared in.
func (s *Scope) DeclareFunc(name string, t types.Type) {
	s.Root().funcs.Put(name, t)
}

// LookupFunc reports the file-scope function type bound to name.
func (s *Scope) LookupFunc(name string) (types.Type, bool) {
	return s.Root().funcs.Get(name)
}

// DeclareTypedef binds a typedef name in the current scope.
func (s *Scope) DeclareTypedef(name string, t types.Type) {
	s.typedefs.Put(name, t)
}

// ResolveTypedef walks the parent chain for a typedef name.
func (s *Scope) ResolveTypedef(name string) (types.Type, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.typedefs.Get(name); ok {
			return t, true
		}
	}
	return nil, false
}

// IsTypeName reports whether name denotes a type in s or an enclosing
// scope. The parser uses this to recognize casts and declaration starts.
func (s *Scope) IsTypeName(name string) bool {
	_, ok := s.ResolveTypedef(name)
	return ok
}

// DeclareTag binds a struct/union/enum tag in the current scope.
func (s *Scope) DeclareTag(tag string, t types.Type) {
	s.tags.Put(tag, t)
}

// ResolveTag walks the parent chain for a struct/union/enum tag.
func (s *Scope) ResolveTag(tag string) (types.Type, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.tags.Get(tag); ok {
			return t, true
		}
	}
	return nil, false
}

// DeclareEnumConst binds an enum constant to its integer value.
func (s *Scope) DeclareEnumConst(name string, v int64) {
	s.enums.Put(name, v)
}

// ResolveEnumConst walks the parent chain for an enum constant.
func (s *Scope) ResolveEnumConst(name string) (int64, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.enums.Get(name); ok {
			return v, true
		}
	}
	return 0, false
}

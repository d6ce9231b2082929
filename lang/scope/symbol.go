package scope

import "nanocc/lang/types"

// A Symbol is a resolved identifier: a name bound to the scope in which its
// declaration was found. Two symbols are equal exactly when both the name
// and the scope match, which makes Symbol usable as a map key in later
// passes (the scope handle compares by identity).
type Symbol struct {
	Name  string
	Scope *Scope
}

// Type reports the type currently bound to the symbol in its declaring
// scope. The binding can be rewritten between passes (the type resolver
// replaces the parser's raw type with its flattened form), which is why the
// type is looked up on demand rather than stored on the symbol.
func (s Symbol) Type() (types.Type, bool) {
	if s.Scope == nil {
		return nil, false
	}
	if t, ok := s.Scope.vars.Get(s.Name); ok {
		return t, true
	}
	if s.Scope.funcs != nil {
		if t, ok := s.Scope.funcs.Get(s.Name); ok {
			return t, true
		}
	}
	return nil, false
}

func (s Symbol) String() string { return s.Name }

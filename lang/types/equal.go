package types

// Equal reports whether a and b are compatible, i.e. Flat(a) == Flat(b)
// structurally. This is the single source of truth for type compatibility
// used by assignment, arithmetic, calls and ternary branches.
func Equal(a, b Type) bool {
	return equalFlat(Flat(a), Flat(b))
}

func equalFlat(a, b Type) bool {
	switch at := a.(type) {
	case *Basic:
		bt, ok := b.(*Basic)
		return ok && at.Kind == bt.Kind
	case *Pointer:
		bt, ok := b.(*Pointer)
		return ok && equalFlat(at.Elem, bt.Elem)
	case *Array:
		bt, ok := b.(*Array)
		if !ok || !equalFlat(at.Elem, bt.Elem) {
			return false
		}
		if at.Len == nil || bt.Len == nil {
			// an incomplete array is compatible with any length.
			return true
		}
		return *at.Len == *bt.Len
	case *Func:
		bt, ok := b.(*Func)
		if !ok || !equalFlat(at.Return, bt.Return) {
			return false
		}
		if len(at.Params) != len(bt.Params) {
			return false
		}
		for i := range at.Params {
			if !equalFlat(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return true
	case *Struct:
		bt, ok := b.(*Struct)
		return ok && at.Def == bt.Def
	case *Union:
		bt, ok := b.(*Union)
		return ok && at.Def == bt.Def
	case *Enum:
		bt, ok := b.(*Enum)
		return ok && at.Def == bt.Def
	default:
		return false
	}
}

// IsInteger reports whether Flat(t) is Int or Char, the only operand types
// the constant evaluator accepts.
func IsInteger(t Type) bool {
	b, ok := Flat(t).(*Basic)
	return ok && (b.Kind == Int || b.Kind == Char)
}

package types

// Flat collapses Typedef indirection, recursing through Pointer, Array and
// Func constructors, but stops as soon as it reaches a Struct, Union or
// Enum: those are shared, possibly self-referential, handles and recursing
// into their member types would not terminate for a type like
//
//	struct Node { struct Node *next; };
//
// Basic types flatten to themselves.
func Flat(t Type) Type {
	switch tt := t.(type) {
	case *Typedef:
		return Flat(tt.Target)
	case *Pointer:
		return &Pointer{Elem: Flat(tt.Elem)}
	case *Array:
		return &Array{Elem: Flat(tt.Elem), Len: tt.Len, LenExpr: tt.LenExpr}
	case *Func:
		params := make([]Type, len(tt.Params))
		for i, p := range tt.Params {
			params[i] = Flat(p)
		}
		return &Func{Return: Flat(tt.Return), Params: params, Variadic: tt.Variadic}
	default:
		// *Basic, *Struct, *Union, *Enum: nothing to flatten.
		return t
	}
}

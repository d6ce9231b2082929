package types

import (
	"strconv"
	"strings"
)

// ToRustFormat prints t the way the original compiler's test suite does,
// using Rust-style syntax: "[*int; 3]" for an array of pointers, "*[int; 3]"
// for a pointer to an array, "fn(int) -> *int" for a function returning a
// pointer, "*fn(int) -> int" for a pointer to a function.
func ToRustFormat(t Type) string {
	switch tt := t.(type) {
	case *Basic:
		return basicNames[tt.Kind]
	case *Pointer:
		return "*" + ToRustFormat(tt.Elem)
	case *Array:
		length := "?"
		if tt.Len != nil {
			length = strconv.Itoa(*tt.Len)
		}
		return "[" + ToRustFormat(tt.Elem) + "; " + length + "]"
	case *Func:
		parts := make([]string, len(tt.Params))
		for i, p := range tt.Params {
			parts[i] = ToRustFormat(p)
		}
		return "fn(" + strings.Join(parts, ", ") + ") -> " + ToRustFormat(tt.Return)
	case *Struct:
		return "struct " + tt.Def.Tag
	case *Union:
		return "union " + tt.Def.Tag
	case *Enum:
		return "enum " + tt.Def.Tag
	case *Typedef:
		return tt.Name
	default:
		return "<?>"
	}
}

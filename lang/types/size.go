package types

// CellSize returns the number of stack-IR cells a value of type t occupies.
// This is a code-generation concern, distinct from the C `sizeof` operator
// (which the constant evaluator always resolves to the placeholder value 4,
// see lang/consteval). The stack IR uses one cell per scalar (int, char,
// pointer); double is never generated but is given a nominal width of 3
// cells for the type system's own bookkeeping.
func CellSize(t Type) int {
	switch tt := Flat(t).(type) {
	case *Basic:
		switch tt.Kind {
		case Double:
			return 3
		default:
			return 1
		}
	case *Pointer:
		return 1
	case *Array:
		length := 0
		if tt.Len != nil {
			length = *tt.Len
		}
		return length * CellSize(tt.Elem)
	case *Struct:
		total := 0
		for _, f := range tt.Def.Fields {
			total += CellSize(f.Type)
		}
		return total
	case *Union:
		max := 0
		for _, f := range tt.Def.Fields {
			if sz := CellSize(f.Type); sz > max {
				max = sz
			}
		}
		return max
	case *Enum:
		return 1
	default:
		return 1
	}
}

package vm_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"nanocc/lang/ir"
	"nanocc/lang/irresolve"
	"nanocc/lang/parser"
	"nanocc/lang/sema"
	"nanocc/lang/simplify"
	"nanocc/lang/stack"
	"nanocc/lang/vm"

	"github.com/stretchr/testify/require"
)

// compile runs the whole pipeline down to resolved stack instructions.
func compile(t *testing.T, src string) []stack.Inst {
	t.Helper()
	raw, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	typed, err := sema.Resolve(simplify.Program(raw))
	require.NoError(t, err)
	prog, err := ir.Generate(typed)
	require.NoError(t, err)
	insts, err := irresolve.Resolve(prog)
	require.NoError(t, err)
	return insts
}

// run executes src and returns main's return value plus anything written
// through putchar.
func run(t *testing.T, src, input string) (int, string) {
	t.Helper()
	insts := compile(t, src)
	var out bytes.Buffer
	m := &vm.Machine{In: strings.NewReader(input), Out: &out}
	require.NoError(t, m.Run(insts))
	return int(int16(m.Top())), out.String()
}

func expectReturn(t *testing.T, want int, src string) {
	t.Helper()
	got, _ := run(t, src, "")
	require.Equal(t, want, got, "program:\n%s", src)
}

func TestReturnConstant(t *testing.T) {
	src := "int main(void) { return 42; }"
	insts := compile(t, src)

	// the machine halts with the return value as the only stack cell.
	m := &vm.Machine{}
	require.NoError(t, m.Run(insts))
	require.Equal(t, []vm.Word{42}, m.Stack)
}

func TestSumLoop(t *testing.T) {
	expectReturn(t, 10, `
		int main(void) {
			int i = 0, s = 0;
			for (i = 0; i < 5; i = i + 1) s = s + i;
			return s;
		}
	`)
}

func TestPointerRoundTrip(t *testing.T) {
	expectReturn(t, 8, `
		int main(void) {
			int x = 7;
			int *p = &x;
			*p = *p + 1;
			return x;
		}
	`)
}

func TestTypedefEquivalence(t *testing.T) {
	expectReturn(t, 5, `
		typedef int T;
		int f(T x) { return x + 1; }
		int main(void) { return f(4); }
	`)
}

func TestStructMember(t *testing.T) {
	expectReturn(t, 5, `
		struct P { int a; int b; };
		int main(void) {
			struct P p;
			p.a = 2;
			p.b = 3;
			return p.a + p.b;
		}
	`)
}

func TestWhileLoop(t *testing.T) {
	expectReturn(t, 45, `
		int main(void) {
			int i = 0, s = 0;
			while (i < 10) { s = s + i; i = i + 1; }
			return s;
		}
	`)
}

func TestDoWhile(t *testing.T) {
	expectReturn(t, 10, `
		int main(void) {
			int i = 0, s = 0;
			do { s = s + i; i = i + 1; } while (i < 5);
			return s;
		}
	`)
}

func TestBreakAndContinue(t *testing.T) {
	expectReturn(t, 16, `
		int main(void) {
			int i, s = 0;
			for (i = 0; i < 100; i = i + 1) {
				if (i % 2 == 0) continue;
				if (i > 7) break;
				s = s + i;
			}
			return s;
		}
	`)
}

func TestBreakUnwindsBlockLocals(t *testing.T) {
	expectReturn(t, 7, `
		int main(void) {
			int i, s = 0;
			for (i = 0; i < 10; i = i + 1) {
				int t = i;
				if (t == 7) { s = t; break; }
			}
			return s;
		}
	`)
}

func TestIfElseChain(t *testing.T) {
	expectReturn(t, 2, `
		int classify(int n) {
			if (n < 10) return 1;
			else if (n < 100) return 2;
			else return 3;
		}
		int main(void) { return classify(50); }
	`)
}

func TestNestedBlocksAndShadowing(t *testing.T) {
	expectReturn(t, 42, `
		int main(void) {
			int x = 1;
			{
				int y = 41;
				x = x + y;
			}
			return x;
		}
	`)
}

func TestRecursion(t *testing.T) {
	expectReturn(t, 120, `
		int fact(int n) {
			if (n < 2) return 1;
			return n * fact(n - 1);
		}
		int main(void) { return fact(5); }
	`)
}

func TestMultipleCallsAndArgs(t *testing.T) {
	expectReturn(t, 21, `
		int add(int a, int b) { return a + b; }
		int main(void) { return add(add(1, 2), add(add(3, 4), 11)); }
	`)
}

func TestPointerArgument(t *testing.T) {
	expectReturn(t, 6, `
		int bump(int *p) { *p = *p + 1; return 0; }
		int main(void) {
			int x = 5;
			bump(&x);
			return x;
		}
	`)
}

func TestArraySubscript(t *testing.T) {
	expectReturn(t, 12, `
		int main(void) {
			int a[3] = {2, 4, 6};
			return a[0] + a[1] + a[2];
		}
	`)
}

func TestArrayWriteThroughIndex(t *testing.T) {
	expectReturn(t, 30, `
		int main(void) {
			int a[3];
			int i;
			for (i = 0; i < 3; i = i + 1) a[i] = i * 10;
			return a[0] + a[1] + a[2];
		}
	`)
}

func TestTernary(t *testing.T) {
	expectReturn(t, 7, `
		int main(void) {
			int x = 3;
			return x < 5 ? 7 : 9;
		}
	`)
}

func TestTernaryInLoopCondition(t *testing.T) {
	expectReturn(t, 6, `
		int main(void) {
			int i, s = 0;
			for (i = 0; i < (1 ? 4 : 9); i = i + 1) s = s + i;
			return s;
		}
	`)
}

func TestSwitch(t *testing.T) {
	src := `
		int pick(int n) {
			int r = 0;
			switch (n) {
			case 1:
				r = 10;
				break;
			case 2:
				r = 20;
				break;
			default:
				r = 99;
			}
			return r;
		}
		int main(void) { return pick(%d); }
	`
	for _, c := range []struct{ in, want int }{{1, 10}, {2, 20}, {3, 99}} {
		expectReturn(t, c.want, fmt.Sprintf(src, c.in))
	}
}

func TestSwitchFallThrough(t *testing.T) {
	expectReturn(t, 30, `
		int main(void) {
			int r = 0;
			switch (1) {
			case 1:
				r = r + 10;
			case 2:
				r = r + 20;
				break;
			case 3:
				r = r + 40;
			}
			return r;
		}
	`)
}

func TestLogicalOperators(t *testing.T) {
	expectReturn(t, 1, "int main(void) { return (1 && 0) || (2 > 1); }")
	expectReturn(t, 0, "int main(void) { return !(3 < 4); }")
}

func TestBitwiseAndShift(t *testing.T) {
	expectReturn(t, 16, "int main(void) { return 1 << 4; }")
	expectReturn(t, 2, "int main(void) { return 6 & 3; }")
	expectReturn(t, 7, "int main(void) { return 6 | 3; }")
	expectReturn(t, 5, "int main(void) { return 6 ^ 3; }")
	expectReturn(t, 4, "int main(void) { return 16 >> 2; }")
}

func TestCharArithmetic(t *testing.T) {
	expectReturn(t, 65, `
		int main(void) {
			char c = 'A';
			return c;
		}
	`)
}

func TestCompoundAssignAndIncrement(t *testing.T) {
	expectReturn(t, 9, `
		int main(void) {
			int x = 3;
			x += 2;
			x++;
			++x;
			x -= 1;
			x *= 3;
			x /= 2;
			return x;
		}
	`)
}

func TestGotoForwards(t *testing.T) {
	expectReturn(t, 1, `
		int main(void) {
			int x = 1;
			goto done;
			x = 99;
			done:
			return x;
		}
	`)
}

func TestPutchar(t *testing.T) {
	got, out := run(t, `
		int main(void) {
			putchar((int)'H');
			putchar((int)'i');
			return 0;
		}
	`, "")
	require.Equal(t, 0, got)
	require.Equal(t, "Hi", out)
}

func TestGetchar(t *testing.T) {
	got, _ := run(t, "int main(void) { return getchar(); }", "X")
	require.Equal(t, 'X', rune(got))
}

func TestCommaExpression(t *testing.T) {
	expectReturn(t, 3, `
		int main(void) {
			int x = 0, y = 0;
			y = (x = 1, x + 2);
			return y;
		}
	`)
}

func TestAssignmentYieldsValue(t *testing.T) {
	expectReturn(t, 5, `
		int main(void) {
			int x = 0, y = 0;
			y = (x = 5);
			return y;
		}
	`)
}

func TestEnumValues(t *testing.T) {
	expectReturn(t, 3, `
		enum Color { RED, GREEN, BLUE };
		int main(void) { return GREEN + 1 + RED + BLUE - 1; }
	`)
}

func TestStructAssignmentCopies(t *testing.T) {
	expectReturn(t, 5, `
		struct P { int a; int b; };
		int main(void) {
			struct P p;
			struct P q;
			p.a = 2;
			p.b = 3;
			q = p;
			p.a = 100;
			return q.a + q.b;
		}
	`)
}

// the net stack delta of a whole program run is exactly one cell: the
// value main returned.
func TestStackBalance(t *testing.T) {
	srcs := []string{
		"int main(void) { return 42; }",
		"int main(void) { int i, s = 0; for (i = 0; i < 5; i = i + 1) s = s + i; return s; }",
		"int f(int a) { return a; } int main(void) { f(1); f(2); return f(3); }",
	}
	for _, src := range srcs {
		m := &vm.Machine{}
		require.NoError(t, m.Run(compile(t, src)))
		require.Len(t, m.Stack, 1, "program:\n%s", src)
	}
}

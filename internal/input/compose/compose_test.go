package compose

import (
	"testing"

	"github.com/dshills/keyrelay/internal/input/key"
)

func dead(r rune) uint32 {
	return uint32(r) | key.CombiningAccent
}

func TestDeadChar(t *testing.T) {
	tests := []struct {
		name   string
		accent rune
		c      rune
		want   rune
	}{
		{"acute e", '´', 'e', 'é'},
		{"acute E", '´', 'E', 'É'},
		{"grave a", '`', 'a', 'à'},
		{"circumflex o", '^', 'o', 'ô'},
		{"tilde n", '~', 'n', 'ñ'},
		{"diaeresis u", '¨', 'u', 'ü'},
		{"cedilla c", '¸', 'c', 'ç'},
		{"caron s", 'ˇ', 's', 'š'},
		{"ring a", '˚', 'a', 'å'},
		{"combining mark", '\u0301', 'a', 'á'},
		{"accent twice", '^', '^', '^'},
		{"accent then space", '´', ' ', '´'},
		{"no composition", '´', 'q', 0},
		{"two different accents", '´', '`', 0},
		{"unknown accent", 'x', 'e', 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeadChar(tt.accent, tt.c); got != tt.want {
				t.Errorf("DeadChar(%q, %q) = %q (%U), want %q", tt.accent, tt.c, got, got, tt.want)
			}
		})
	}
}

func TestResolveZeroLeavesStateUntouched(t *testing.T) {
	r := NewResolver()
	if _, ok := r.Resolve(dead('´')); ok {
		t.Fatal("accent produced a character")
	}

	if ch, ok := r.Resolve(0); ok {
		t.Fatalf("Resolve(0) = %q, want nothing", ch)
	}
	if p, ok := r.Pending(); !ok || p != '´' {
		t.Fatalf("Pending() = %q,%v after Resolve(0), want acute", p, ok)
	}
}

func TestResolvePlainCharacter(t *testing.T) {
	r := NewResolver()
	ch, ok := r.Resolve('a')
	if !ok || ch != 'a' {
		t.Fatalf("Resolve('a') = %q,%v", ch, ok)
	}
	if _, pending := r.Pending(); pending {
		t.Error("plain character left a pending accent")
	}
}

func TestResolveSequences(t *testing.T) {
	tests := []struct {
		name  string
		input []uint32
		want  []rune // 0 means "no character reported"
	}{
		{"accent then letter", []uint32{dead('´'), 'e'}, []rune{0, 'é'}},
		{"accent then unmatched letter", []uint32{dead('´'), 'q'}, []rune{0, 'q'}},
		{"accent then space", []uint32{dead('~'), ' '}, []rune{0, '~'}},
		{"same accent twice then letter", []uint32{dead('^'), dead('^'), 'o'}, []rune{0, 0, 'ô'}},
		{"incompatible accents reset", []uint32{dead('´'), dead('`'), 'e'}, []rune{0, 0, 'e'}},
		{"state clears after use", []uint32{dead('`'), 'a', 'a'}, []rune{0, 'à', 'a'}},
		{"combining mark accent", []uint32{dead('\u0308'), 'o'}, []rune{0, 'ö'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver()
			for i, cp := range tt.input {
				ch, ok := r.Resolve(cp)
				if tt.want[i] == 0 {
					if ok {
						t.Fatalf("step %d: Resolve(%#x) = %q, want nothing", i, cp, ch)
					}
					continue
				}
				if !ok || ch != tt.want[i] {
					t.Fatalf("step %d: Resolve(%#x) = %q,%v, want %q", i, cp, ch, ok, tt.want[i])
				}
			}
		})
	}
}

func TestResolveTwoAccentsAccumulate(t *testing.T) {
	calls := 0
	r := NewResolverWithFunc(func(accent, c rune) rune {
		calls++
		return accent + c
	})

	r.Resolve(dead(1))
	r.Resolve(dead(2))
	if p, ok := r.Pending(); !ok || p != 3 {
		t.Fatalf("Pending() = %d,%v, want 3", p, ok)
	}
	if calls != 1 {
		t.Errorf("combine called %d times, want 1", calls)
	}
}

func TestResolveFailureSentinelFallsBack(t *testing.T) {
	r := NewResolverWithFunc(func(_, _ rune) rune { return -1 })

	r.Resolve(dead('´'))
	ch, ok := r.Resolve('e')
	if !ok || ch != 'e' {
		t.Fatalf("Resolve after failed combine = %q,%v, want 'e'", ch, ok)
	}
	if _, pending := r.Pending(); pending {
		t.Error("failed combine left a pending accent")
	}
}

func TestResolveFailedAccentCombineEmptiesState(t *testing.T) {
	r := NewResolverWithFunc(func(_, _ rune) rune { return -1 })

	r.Resolve(dead('´'))
	r.Resolve(dead('`'))
	if _, pending := r.Pending(); pending {
		t.Error("failed accent combine should leave the slot empty")
	}
}

func TestReset(t *testing.T) {
	r := NewResolver()
	r.Resolve(dead('^'))
	r.Reset()
	if ch, ok := r.Resolve('o'); !ok || ch != 'o' {
		t.Errorf("Resolve after Reset = %q,%v, want 'o'", ch, ok)
	}
}

func TestSnapshotRestore(t *testing.T) {
	r := NewResolver()
	r.Resolve(dead('´'))

	saved := r.Snapshot()
	if ch, ok := r.Resolve('e'); !ok || ch != 'é' {
		t.Fatalf("Resolve('e') = %q,%v, want 'é'", ch, ok)
	}
	r.Restore(saved)
	if ch, ok := r.Resolve('a'); !ok || ch != 'á' {
		t.Errorf("Resolve('a') after Restore = %q,%v, want 'á'", ch, ok)
	}

	r.Restore(0)
	if _, pending := r.Pending(); pending {
		t.Error("Restore(0) left a pending accent")
	}
}

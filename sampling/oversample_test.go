package sampling

import (
	"fmt"
	"reflect"
	"testing"
)

func TestDrawCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		n, f, s, want int
	}{
		{50, 5, 5, 50},
		{10, 3, 4, 8},
		{1, 1, 5, 1},
		{0, 5, 5, 0},
		{30, 5, 4, 38},
	}
	for _, tc := range cases {
		if got := DrawCount(tc.n, tc.f, tc.s); got != tc.want {
			t.Fatalf("DrawCount(%d,%d,%d)=%d, want %d", tc.n, tc.f, tc.s, got, tc.want)
		}
	}
}

func stratumOf(label string, n int) Stratum {
	st := Stratum{Label: label}
	for i := 0; i < n; i++ {
		st.Members = append(st.Members, fmt.Sprintf("%s-%02d", label, i))
	}
	return st
}

func TestDrawStratum_ShortfallWithoutReplacement(t *testing.T) {
	t.Parallel()

	for _, policy := range []DrawPolicy{DrawOrdered, DrawRandom} {
		d := NewDrawer(policy, 7).DrawStratum(stratumOf("Low", 3), 5)
		if len(d.Drawn) != 3 {
			t.Fatalf("%s: len(drawn)=%d, want 3", policy, len(d.Drawn))
		}
		if d.Shortfall != 2 || d.Requested != 5 || d.Available != 3 {
			t.Fatalf("%s: draw=%+v", policy, d)
		}
		seen := make(map[string]bool)
		for _, id := range d.Drawn {
			if seen[id] {
				t.Fatalf("%s: %s drawn twice", policy, id)
			}
			seen[id] = true
		}
	}
}

func TestDrawStratum_OrderedTakesInputOrder(t *testing.T) {
	t.Parallel()

	d := NewDrawer(DrawOrdered, 0).DrawStratum(stratumOf("High", 10), 3)
	want := []string{"High-00", "High-01", "High-02"}
	if !reflect.DeepEqual(d.Drawn, want) {
		t.Fatalf("drawn=%v, want %v", d.Drawn, want)
	}
	if d.Shortfall != 0 {
		t.Fatalf("Shortfall=%d, want 0", d.Shortfall)
	}
}

func TestDrawStratum_RandomIsSeeded(t *testing.T) {
	t.Parallel()

	st := stratumOf("Medium", 20)
	a := NewDrawer(DrawRandom, 42).DrawStratum(st, 20)
	b := NewDrawer(DrawRandom, 42).DrawStratum(st, 20)
	if !reflect.DeepEqual(a.Drawn, b.Drawn) {
		t.Fatalf("same seed gave different orders:\n%v\n%v", a.Drawn, b.Drawn)
	}
	c := NewDrawer(DrawRandom, 43).DrawStratum(st, 20)
	if reflect.DeepEqual(a.Drawn, c.Drawn) {
		t.Fatalf("different seeds gave the same order")
	}

	seen := make(map[string]bool)
	for _, id := range a.Drawn {
		seen[id] = true
	}
	if len(seen) != 20 {
		t.Fatalf("permutation lost members: %d", len(seen))
	}
}

func TestDrawAll_PreservesStratumOrder(t *testing.T) {
	t.Parallel()

	draws := NewDrawer(DrawRandom, 1).DrawAll([]Stratum{stratumOf("a", 4), stratumOf("b", 0), stratumOf("c", 2)}, 3)
	if len(draws) != 3 {
		t.Fatalf("len(draws)=%d, want 3", len(draws))
	}
	labels := []string{draws[0].Label, draws[1].Label, draws[2].Label}
	if !reflect.DeepEqual(labels, []string{"a", "b", "c"}) {
		t.Fatalf("labels=%v", labels)
	}
	if draws[1].Shortfall != 3 || len(draws[1].Drawn) != 0 {
		t.Fatalf("empty stratum draw=%+v", draws[1])
	}
	if draws[2].Shortfall != 1 {
		t.Fatalf("c shortfall=%d, want 1", draws[2].Shortfall)
	}
}

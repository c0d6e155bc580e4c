package sampling

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"strconv"
)

// Draw is the outcome of sampling one stratum.
type Draw struct {
	Label     string   `json:"label" yaml:"label"`
	Requested int      `json:"requested" yaml:"requested"`
	Available int      `json:"available" yaml:"available"`
	Shortfall int      `json:"shortfall" yaml:"shortfall"`
	Drawn     []string `json:"-" yaml:"-"`
}

// DrawCount is the per-stratum draw size ceil(n*factor/strata).
func DrawCount(n, factor, strata int) int {
	if n <= 0 || factor <= 0 || strata <= 0 {
		return 0
	}
	total := n * factor
	return (total + strata - 1) / strata
}

// Drawer draws members without replacement under a fixed policy and seed.
type Drawer struct {
	policy DrawPolicy
	seed   int64
}

func NewDrawer(policy DrawPolicy, seed int64) Drawer {
	return Drawer{policy: policy, seed: seed}
}

// DrawStratum takes up to want members of st. Shortfall is recorded, never an error.
func (d Drawer) DrawStratum(st Stratum, want int) Draw {
	if want < 0 {
		want = 0
	}
	ordered := d.order(st)
	n := want
	if n > len(ordered) {
		n = len(ordered)
	}
	return Draw{
		Label:     st.Label,
		Requested: want,
		Available: len(st.Members),
		Shortfall: want - n,
		Drawn:     append([]string(nil), ordered[:n]...),
	}
}

// DrawAll draws want members from every stratum, in stratum order.
func (d Drawer) DrawAll(strata []Stratum, want int) []Draw {
	out := make([]Draw, 0, len(strata))
	for _, st := range strata {
		out = append(out, d.DrawStratum(st, want))
	}
	return out
}

func (d Drawer) order(st Stratum) []string {
	if d.policy != DrawRandom {
		return st.Members
	}
	type keyed struct {
		id  string
		key uint64
		pos int
	}
	ks := make([]keyed, len(st.Members))
	prefix := strconv.FormatInt(d.seed, 10) + "|" + st.Label + "|"
	for i, id := range st.Members {
		ks[i] = keyed{id: id, key: stableUint64(prefix + id), pos: i}
	}
	sort.Slice(ks, func(i, j int) bool {
		if ks[i].key != ks[j].key {
			return ks[i].key < ks[j].key
		}
		return ks[i].pos < ks[j].pos
	})
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.id
	}
	return out
}

func stableUint64(input string) uint64 {
	sum := sha256.Sum256([]byte(input))
	return binary.BigEndian.Uint64(sum[:8])
}

package network

import (
	"fmt"
	"strings"
)

// BaseMVA is the system base the per-unit values refer to.
const BaseMVA = 1.0

// CalculateDependentValues fills the per-unit impedances on a BaseMVA base.
// Line impedances are converted with z_base = v_nom(bus0)^2 / BaseMVA.
// Transformer impedances are rescaled from their own rating.
func CalculateDependentValues(n *Network) error {
	vNom := n.BusVNom()
	for i := range n.Lines {
		l := &n.Lines[i]
		v, ok := vNom[l.Bus0]
		if !ok || v == 0 {
			return fmt.Errorf("line %q: bus %q has no nominal voltage", l.Name, l.Bus0)
		}
		zBase := v * v / BaseMVA
		l.RPU = l.R / zBase
		l.XPU = l.X / zBase
		l.BPU = l.B * zBase
		l.GPU = l.G * zBase
	}
	for i := range n.Transformers {
		t := &n.Transformers[i]
		if t.SNom == 0 {
			return fmt.Errorf("transformer %q has no rating", t.Name)
		}
		scale := t.SNom / BaseMVA
		t.RPU = t.R / scale
		t.XPU = t.X / scale
		t.BPU = t.B * scale
		t.GPU = t.G * scale
	}
	return nil
}

// AggregateParallelTransformers merges transformers between the same pair
// of buses into one with the parallel impedance 1/sum(1/z) and the summed
// rating. The merged transformer keeps the attributes of the group's first
// member and its name without the trailing "_<n>" instance suffix. Groups
// of one are left untouched, so the function is idempotent.
func AggregateParallelTransformers(trafos []Transformer) []Transformer {
	type key struct{ bus0, bus1 string }
	groups := map[key][]int{}
	var order []key
	for i, t := range trafos {
		k := key{t.Bus0, t.Bus1}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	out := make([]Transformer, 0, len(order))
	names := map[string]bool{}
	for _, k := range order {
		members := groups[k]
		merged := trafos[members[0]]
		if len(members) > 1 {
			var admittance complex128
			short := false
			var sNom float64
			for _, i := range members {
				z := complex(trafos[i].R, trafos[i].X)
				if z == 0 {
					short = true
				} else {
					admittance += 1 / z
				}
				sNom += trafos[i].SNom
			}
			z := complex(0, 0)
			if !short && admittance != 0 {
				z = 1 / admittance
			}
			merged.R = real(z)
			merged.X = imag(z)
			merged.SNom = sNom
			merged.Name = trimInstanceSuffix(merged.Name)
			// per-unit values are stale until recalculated
			merged.RPU, merged.XPU, merged.BPU, merged.GPU = 0, 0, 0, 0
		}
		if names[merged.Name] {
			continue
		}
		names[merged.Name] = true
		out = append(out, merged)
	}
	return out
}

func trimInstanceSuffix(name string) string {
	i := strings.LastIndex(name, "_")
	if i <= 0 {
		return name
	}
	return name[:i]
}

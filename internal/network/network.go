package network

import (
	"fmt"
	"time"

	"grid-constraints/internal/frame"
)

// Bus control types.
const (
	ControlPQ    = "PQ"
	ControlPV    = "PV"
	ControlSlack = "Slack"
)

type Bus struct {
	Name      string  `json:"name"`
	VNom      float64 `json:"v_nom"` // kV
	VMagPUSet float64 `json:"v_mag_pu_set"`
	VMagPUMin float64 `json:"v_mag_pu_min"`
	VMagPUMax float64 `json:"v_mag_pu_max"`
	Control   string  `json:"control"`
}

// Line impedances are in Ohm and Siemens. The *PU fields are filled by
// CalculateDependentValues.
type Line struct {
	Name string  `json:"name"`
	Bus0 string  `json:"bus0"`
	Bus1 string  `json:"bus1"`
	R    float64 `json:"r"`
	X    float64 `json:"x"`
	B    float64 `json:"b"`
	G    float64 `json:"g"`
	SNom float64 `json:"s_nom"`

	RPU float64 `json:"r_pu"`
	XPU float64 `json:"x_pu"`
	BPU float64 `json:"b_pu"`
	GPU float64 `json:"g_pu"`
}

// Transformer impedances are per unit on the transformer's own rating.
// Parallel transformers share bus0 and bus1 and carry a trailing "_<n>"
// instance suffix in their name.
type Transformer struct {
	Name       string  `json:"name"`
	Bus0       string  `json:"bus0"`
	Bus1       string  `json:"bus1"`
	R          float64 `json:"r"`
	X          float64 `json:"x"`
	B          float64 `json:"b"`
	G          float64 `json:"g"`
	SNom       float64 `json:"s_nom"`
	TapRatio   float64 `json:"tap_ratio"`
	PhaseShift float64 `json:"phase_shift"`

	RPU float64 `json:"r_pu"`
	XPU float64 `json:"x_pu"`
	BPU float64 `json:"b_pu"`
	GPU float64 `json:"g_pu"`
}

type Generator struct {
	Name   string  `json:"name"`
	Bus    string  `json:"bus"`
	PSet   float64 `json:"p_set"`
	QSet   float64 `json:"q_set"`
	PMaxPU float64 `json:"p_max_pu"`
	PMinPU float64 `json:"p_min_pu"`
	PNom   float64 `json:"p_nom"`
}

// Load is any consumer. Charging points and heat pumps are loads too; COP
// and PMax are only set for heat pumps.
type Load struct {
	Name string  `json:"name"`
	Bus  string  `json:"bus"`
	PSet float64 `json:"p_set"`
	QSet float64 `json:"q_set"`
	COP  float64 `json:"cop,omitempty"`
	PMax float64 `json:"p_max,omitempty"`
}

type StorageUnit struct {
	Name                 string  `json:"name"`
	Bus                  string  `json:"bus"`
	PSet                 float64 `json:"p_set"`
	QSet                 float64 `json:"q_set"`
	PMaxPU               float64 `json:"p_max_pu"`
	PMinPU               float64 `json:"p_min_pu"`
	StateOfChargeInitial float64 `json:"state_of_charge_initial"`
}

// Series holds active and reactive set points per component and snapshot.
type Series struct {
	P *frame.Frame `json:"p_set"`
	Q *frame.Frame `json:"q_set"`
}

// Network is a solved per-unit network snapshot.
type Network struct {
	ID           string        `json:"id"`
	Snapshots    []time.Time   `json:"snapshots"`
	Buses        []Bus         `json:"buses"`
	Lines        []Line        `json:"lines"`
	Transformers []Transformer `json:"transformers"`
	Generators   []Generator   `json:"generators"`
	Loads        []Load        `json:"loads"`
	StorageUnits []StorageUnit `json:"storage_units"`

	GeneratorsT   Series `json:"generators_t"`
	LoadsT        Series `json:"loads_t"`
	StorageUnitsT Series `json:"storage_units_t"`
}

// FlexibilityBands are the power and energy envelopes of flexible charging
// points, one column per charging point.
type FlexibilityBands struct {
	UpperPower  *frame.Frame `json:"upper_power"`
	LowerEnergy *frame.Frame `json:"lower_energy"`
	UpperEnergy *frame.Frame `json:"upper_energy"`
}

// Validate checks name uniqueness and that every component sits on a known bus.
func (n *Network) Validate() error {
	buses := map[string]bool{}
	for _, b := range n.Buses {
		if buses[b.Name] {
			return fmt.Errorf("bus %q defined twice", b.Name)
		}
		buses[b.Name] = true
	}
	check := func(kind, name string, refs ...string) error {
		for _, r := range refs {
			if !buses[r] {
				return fmt.Errorf("%s %q references unknown bus %q", kind, name, r)
			}
		}
		return nil
	}
	seen := map[string]bool{}
	unique := func(kind, name string) error {
		key := kind + "/" + name
		if seen[key] {
			return fmt.Errorf("%s %q defined twice", kind, name)
		}
		seen[key] = true
		return nil
	}
	for _, l := range n.Lines {
		if err := unique("line", l.Name); err != nil {
			return err
		}
		if err := check("line", l.Name, l.Bus0, l.Bus1); err != nil {
			return err
		}
	}
	// parallel transformers may share a name prefix but not a full name
	for _, t := range n.Transformers {
		if err := unique("transformer", t.Name); err != nil {
			return err
		}
		if err := check("transformer", t.Name, t.Bus0, t.Bus1); err != nil {
			return err
		}
	}
	for _, g := range n.Generators {
		if err := unique("generator", g.Name); err != nil {
			return err
		}
		if err := check("generator", g.Name, g.Bus); err != nil {
			return err
		}
	}
	for _, l := range n.Loads {
		if err := unique("load", l.Name); err != nil {
			return err
		}
		if err := check("load", l.Name, l.Bus); err != nil {
			return err
		}
	}
	for _, s := range n.StorageUnits {
		if err := unique("storage unit", s.Name); err != nil {
			return err
		}
		if err := check("storage unit", s.Name, s.Bus); err != nil {
			return err
		}
	}
	return nil
}

// BusVNom returns the nominal voltage of every bus by name.
func (n *Network) BusVNom() map[string]float64 {
	out := make(map[string]float64, len(n.Buses))
	for _, b := range n.Buses {
		out[b.Name] = b.VNom
	}
	return out
}

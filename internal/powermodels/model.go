package powermodels

import "strconv"

// Model is the PowerModels network data structure. Every component table
// is keyed by a dense 1-based index written as a string.
type Model struct {
	Name          string  `json:"name"`
	BaseMVA       float64 `json:"baseMVA"`
	SourceVersion int     `json:"source_version"`
	SourceType    string  `json:"sourcetype"`
	PerUnit       bool    `json:"per_unit"`
	TimeElapsed   float64 `json:"time_elapsed"`

	Bus             map[string]Bus             `json:"bus"`
	Gen             map[string]Gen             `json:"gen"`
	Branch          map[string]Branch          `json:"branch"`
	Load            map[string]Load            `json:"load"`
	Storage         map[string]Storage         `json:"storage"`
	Electromobility map[string]Electromobility `json:"electromobility"`
	Heatpumps       map[string]Heatpump        `json:"heatpumps"`

	// Not supported; always empty.
	DCLine map[string]any `json:"dcline"`
	Switch map[string]any `json:"switch"`
	Shunt  map[string]any `json:"shunt"`
	DSM    map[string]any `json:"dsm"`

	TimeSeries TimeSeries `json:"time_series"`

	// Index maps component names to their keys and back.
	Index Index `json:"-"`
}

type Bus struct {
	Index   int     `json:"index"`
	BusI    int     `json:"bus_i"`
	Zone    int     `json:"zone"`
	BusType int     `json:"bus_type"`
	VMax    float64 `json:"vmax"`
	VMin    float64 `json:"vmin"`
	VA      float64 `json:"va"`
	VM      float64 `json:"vm"`
	BaseKV  float64 `json:"base_kv"`
}

type Gen struct {
	PG        float64   `json:"pg"`
	QG        float64   `json:"qg"`
	PMax      float64   `json:"pmax"`
	PMin      float64   `json:"pmin"`
	QMax      float64   `json:"qmax"`
	QMin      float64   `json:"qmin"`
	VG        float64   `json:"vg"`
	MBase     float64   `json:"mbase"`
	GenBus    int       `json:"gen_bus"`
	GenStatus int       `json:"gen_status"`
	Index     int       `json:"index"`
	Model     int       `json:"model"`
	NCost     int       `json:"ncost"`
	Cost      []float64 `json:"cost"`
}

type Branch struct {
	Name        string  `json:"name"`
	BrR         float64 `json:"br_r"`
	BrX         float64 `json:"br_x"`
	FBus        int     `json:"f_bus"`
	TBus        int     `json:"t_bus"`
	GTo         float64 `json:"g_to"`
	GFr         float64 `json:"g_fr"`
	BTo         float64 `json:"b_to"`
	BFr         float64 `json:"b_fr"`
	Shift       float64 `json:"shift"`
	BrStatus    float64 `json:"br_status"`
	RateA       float64 `json:"rate_a"`
	RateB       float64 `json:"rate_b"`
	RateC       float64 `json:"rate_c"`
	AngMin      float64 `json:"angmin"`
	AngMax      float64 `json:"angmax"`
	Transformer bool    `json:"transformer"`
	Tap         float64 `json:"tap"`
	Index       int     `json:"index"`
}

type Load struct {
	PD      float64 `json:"pd"`
	QD      float64 `json:"qd"`
	LoadBus int     `json:"load_bus"`
	Status  bool    `json:"status"`
	Index   int     `json:"index"`
}

type Storage struct {
	X                   float64 `json:"x"`
	R                   float64 `json:"r"`
	PS                  float64 `json:"ps"`
	QS                  float64 `json:"qs"`
	PMax                float64 `json:"pmax"`
	PMin                float64 `json:"pmin"`
	PLoss               float64 `json:"p_loss"`
	QMax                float64 `json:"qmax"`
	QMin                float64 `json:"qmin"`
	QLoss               float64 `json:"q_loss"`
	Energy              float64 `json:"energy"`
	EnergyRating        float64 `json:"energy_rating"`
	ThermalRating       float64 `json:"thermal_rating"`
	ChargeRating        float64 `json:"charge_rating"`
	DischargeRating     float64 `json:"discharge_rating"`
	ChargeEfficiency    float64 `json:"charge_efficiency"`
	DischargeEfficiency float64 `json:"discharge_efficiency"`
	StorageBus          int     `json:"storage_bus"`
	Status              bool    `json:"status"`
	Index               int     `json:"index"`
}

type Electromobility struct {
	PD    float64 `json:"pd"`
	QD    float64 `json:"qd"`
	PMax  float64 `json:"p_max"`
	EMin  float64 `json:"e_min"`
	EMax  float64 `json:"e_max"`
	CPBus int     `json:"cp_bus"`
	Index int     `json:"index"`
}

type Heatpump struct {
	PD    float64 `json:"pd"`
	QD    float64 `json:"qd"`
	PMax  float64 `json:"p_max"`
	COP   float64 `json:"cop"`
	HPBus int     `json:"hp_bus"`
	Index int     `json:"index"`
}

type TimeSeries struct {
	Gen             map[string]GenSeries      `json:"gen"`
	Load            map[string]LoadSeries     `json:"load"`
	Storage         map[string]StorageSeries  `json:"storage"`
	Electromobility map[string]FlexSeries     `json:"electromobility"`
	Heatpumps       map[string]HeatpumpSeries `json:"heatpumps"`
	NumSteps        int                       `json:"num_steps"`
}

type GenSeries struct {
	PG []float64 `json:"pg"`
	QG []float64 `json:"qg"`
}

type LoadSeries struct {
	PD []float64 `json:"pd"`
	QD []float64 `json:"qd"`
}

type StorageSeries struct {
	PS []float64 `json:"ps"`
	QS []float64 `json:"qs"`
}

// FlexSeries is the envelope a flexible charging point must stay in.
type FlexSeries struct {
	PMax []float64 `json:"p_max"`
	EMin []float64 `json:"e_min"`
	EMax []float64 `json:"e_max"`
}

type HeatpumpSeries struct {
	PD []float64 `json:"pd"`
}

// Mapping is a bijection between component names and dense 1-based keys.
type Mapping struct {
	names []string
	pos   map[string]int
}

func newMapping(names []string) *Mapping {
	m := &Mapping{names: append([]string(nil), names...), pos: make(map[string]int, len(names))}
	for i, n := range names {
		m.pos[n] = i + 1
	}
	return m
}

// Of returns the 1-based index of name.
func (m *Mapping) Of(name string) (int, bool) {
	i, ok := m.pos[name]
	return i, ok
}

// Name returns the component at 1-based index i.
func (m *Mapping) Name(i int) (string, bool) {
	if i < 1 || i > len(m.names) {
		return "", false
	}
	return m.names[i-1], true
}

// Key returns the table key of name.
func (m *Mapping) Key(name string) (string, bool) {
	i, ok := m.Of(name)
	if !ok {
		return "", false
	}
	return strconv.Itoa(i), true
}

func (m *Mapping) Len() int { return len(m.names) }

func (m *Mapping) Names() []string { return m.names }

// Index holds the name mapping of every component table.
type Index struct {
	Bus             *Mapping
	Gen             *Mapping
	Branch          *Mapping
	Load            *Mapping
	Storage         *Mapping
	Electromobility *Mapping
	Heatpumps       *Mapping
}

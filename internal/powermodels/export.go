package powermodels

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"grid-constraints/internal/config"
	"grid-constraints/internal/frame"
	"grid-constraints/internal/network"

	"go.uber.org/zap"
)

var (
	// ErrSlackMissing is returned if the network has no slack generator.
	ErrSlackMissing = errors.New("slack generator missing")
	// ErrUnknownComponent is returned for flexible loads that are not loads
	// of the network.
	ErrUnknownComponent = errors.New("unknown component")
	// ErrNoBandProvider is returned if flexible charging points are given
	// without a flexibility band provider.
	ErrNoBandProvider = errors.New("no flexibility band provider")
)

// Bus voltage limits are clamped to this band.
const (
	maxVMax = 1.05
	minVMin = 0.985
)

// BandProvider supplies flexibility bands of charging points.
type BandProvider interface {
	FlexibilityBands(ctx context.Context, grid string, useCases []string) (*network.FlexibilityBands, error)
}

type Exporter struct {
	cfg   config.PowerModelsConfig
	bands BandProvider
	log   *zap.Logger
}

// NewExporter builds an Exporter. bands may be nil if no flexible charging
// points are exported.
func NewExporter(cfg config.PowerModelsConfig, bands BandProvider, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{cfg: cfg, bands: bands, log: log}
}

// Export converts n into the PowerModels structure. flexibleCPs and
// flexibleHPs name the loads that are charging points and heat pumps to be
// optimized; they are left out of the plain load table. n is not modified.
func (e *Exporter) Export(ctx context.Context, n *network.Network, flexibleCPs, flexibleHPs []string) (*Model, error) {
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("invalid network: %w", err)
	}
	net := *n
	net.Lines = append([]network.Line(nil), n.Lines...)
	net.Transformers = network.AggregateParallelTransformers(n.Transformers)
	if err := network.CalculateDependentValues(&net); err != nil {
		return nil, err
	}

	b := &builder{net: &net, pm: newModel()}
	b.pm.Name = fmt.Sprintf("ding0_%s_t_%d", net.ID, len(net.Snapshots))

	flexCP, err := b.splitLoads(flexibleCPs, flexibleHPs)
	if err != nil {
		return nil, err
	}

	b.buildBus()
	if err := b.buildGen(e.cfg.SlackGenerator); err != nil {
		return nil, err
	}
	if err := b.buildBranch(); err != nil {
		return nil, err
	}
	b.buildStorage()
	b.buildLoad()
	b.buildElectromobility()
	b.buildHeatpumps()

	var bands *network.FlexibilityBands
	if len(flexCP) > 0 {
		if e.bands == nil {
			return nil, ErrNoBandProvider
		}
		bands, err = e.bands.FlexibilityBands(ctx, net.ID, e.cfg.FlexibilityUseCases)
		if err != nil {
			return nil, fmt.Errorf("flexibility bands: %w", err)
		}
		if bands == nil {
			return nil, fmt.Errorf("flexibility bands: provider returned no bands for %q", net.ID)
		}
	} else {
		e.log.Debug("there are no flexible charging points in network")
	}
	if len(flexibleHPs) == 0 {
		e.log.Debug("there are no flexible heat pumps in network")
	}
	if err := b.buildTimeSeries(bands); err != nil {
		return nil, err
	}

	e.log.Info("exported network",
		zap.String("name", b.pm.Name),
		zap.Int("buses", len(b.pm.Bus)),
		zap.Int("branches", len(b.pm.Branch)),
		zap.Int("gens", len(b.pm.Gen)),
		zap.Int("loads", len(b.pm.Load)),
		zap.Int("storage", len(b.pm.Storage)),
		zap.Int("electromobility", len(b.pm.Electromobility)),
		zap.Int("heatpumps", len(b.pm.Heatpumps)),
	)
	return b.pm, nil
}

func newModel() *Model {
	return &Model{
		BaseMVA:         network.BaseMVA,
		SourceVersion:   2,
		SourceType:      "eDisGo",
		PerUnit:         true,
		TimeElapsed:     0,
		Bus:             map[string]Bus{},
		Gen:             map[string]Gen{},
		Branch:          map[string]Branch{},
		Load:            map[string]Load{},
		Storage:         map[string]Storage{},
		Electromobility: map[string]Electromobility{},
		Heatpumps:       map[string]Heatpump{},
		DCLine:          map[string]any{},
		Switch:          map[string]any{},
		Shunt:           map[string]any{},
		DSM:             map[string]any{},
		TimeSeries: TimeSeries{
			Gen:             map[string]GenSeries{},
			Load:            map[string]LoadSeries{},
			Storage:         map[string]StorageSeries{},
			Electromobility: map[string]FlexSeries{},
			Heatpumps:       map[string]HeatpumpSeries{},
		},
	}
}

type builder struct {
	net *network.Network
	pm  *Model

	plain []network.Load
	cps   []network.Load
	hps   []network.Load
}

func (b *builder) busIndex(name string) int {
	i, _ := b.pm.Index.Bus.Of(name)
	return i
}

// splitLoads separates flexible charging points and heat pumps from the
// plain loads.
func (b *builder) splitLoads(flexibleCPs, flexibleHPs []string) ([]network.Load, error) {
	byName := make(map[string]network.Load, len(b.net.Loads))
	for _, l := range b.net.Loads {
		byName[l.Name] = l
	}
	flexible := map[string]bool{}
	pick := func(names []string) ([]network.Load, error) {
		var out []network.Load
		for _, name := range names {
			l, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("%w: load %q", ErrUnknownComponent, name)
			}
			if flexible[name] {
				return nil, fmt.Errorf("load %q is flexible twice", name)
			}
			flexible[name] = true
			out = append(out, l)
		}
		return out, nil
	}
	var err error
	if b.cps, err = pick(flexibleCPs); err != nil {
		return nil, err
	}
	if b.hps, err = pick(flexibleHPs); err != nil {
		return nil, err
	}
	for _, l := range b.net.Loads {
		if !flexible[l.Name] {
			b.plain = append(b.plain, l)
		}
	}
	return b.cps, nil
}

func busType(control string) int {
	switch control {
	case network.ControlPQ:
		return 1
	case network.ControlPV:
		return 2
	case network.ControlSlack:
		return 3
	default:
		return 4
	}
}

func (b *builder) buildBus() {
	names := make([]string, len(b.net.Buses))
	for i, bus := range b.net.Buses {
		names[i] = bus.Name
		idx := i + 1
		b.pm.Bus[strconv.Itoa(idx)] = Bus{
			Index:   idx,
			BusI:    idx,
			Zone:    1,
			BusType: busType(bus.Control),
			VMax:    math.Min(bus.VMagPUMax, maxVMax),
			VMin:    math.Max(bus.VMagPUMin, minVMin),
			VA:      0,
			VM:      bus.VMagPUSet,
			BaseKV:  bus.VNom,
		}
	}
	b.pm.Index.Bus = newMapping(names)
}

func (b *builder) buildGen(slackName string) error {
	slackBus := ""
	for _, g := range b.net.Generators {
		if g.Name == slackName {
			slackBus = g.Bus
			break
		}
	}
	if slackBus == "" {
		return fmt.Errorf("%w: no generator named %q", ErrSlackMissing, slackName)
	}
	key := strconv.Itoa(b.busIndex(slackBus))
	bus := b.pm.Bus[key]
	bus.BusType = 3
	b.pm.Bus[key] = bus

	names := make([]string, len(b.net.Generators))
	for i, g := range b.net.Generators {
		names[i] = g.Name
		idx := i + 1
		b.pm.Gen[strconv.Itoa(idx)] = Gen{
			PG:        g.PSet,
			QG:        g.QSet,
			PMax:      g.PMaxPU,
			PMin:      g.PMinPU,
			QMax:      1,
			QMin:      0,
			VG:        1,
			MBase:     g.PNom,
			GenBus:    b.busIndex(g.Bus),
			GenStatus: 1,
			Index:     idx,
			Model:     2,
			NCost:     3,
			Cost:      []float64{120, 20, 0},
		}
	}
	b.pm.Index.Gen = newMapping(names)
	return nil
}

// buildBranch emits lines followed by the aggregated transformers.
func (b *builder) buildBranch() error {
	var names []string
	add := func(br Branch) {
		idx := len(names) + 1
		br.Index = idx
		br.BrStatus = 1
		br.RateB = 250
		br.RateC = 250
		br.AngMin = -math.Pi / 6
		br.AngMax = math.Pi / 6
		b.pm.Branch[strconv.Itoa(idx)] = br
		names = append(names, br.Name)
	}
	for _, l := range b.net.Lines {
		add(Branch{
			Name:  l.Name,
			BrR:   l.RPU,
			BrX:   l.XPU,
			FBus:  b.busIndex(l.Bus0),
			TBus:  b.busIndex(l.Bus1),
			GTo:   l.GPU / 2,
			GFr:   l.GPU / 2,
			BTo:   l.BPU / 2,
			BFr:   l.BPU / 2,
			Shift: 0,
			RateA: l.SNom,
			Tap:   1,
		})
	}
	for _, t := range b.net.Transformers {
		tap := t.TapRatio
		if tap == 0 {
			tap = 1
		}
		add(Branch{
			Name:        t.Name,
			BrR:         t.RPU,
			BrX:         t.XPU,
			FBus:        b.busIndex(t.Bus0),
			TBus:        b.busIndex(t.Bus1),
			GTo:         t.GPU / 2,
			GFr:         t.GPU / 2,
			BTo:         t.BPU / 2,
			BFr:         t.BPU / 2,
			Shift:       t.PhaseShift,
			RateA:       t.SNom,
			Transformer: true,
			Tap:         tap,
		})
	}
	m := newMapping(names)
	if m.Len() != len(m.pos) {
		return fmt.Errorf("branch names are not unique across lines and transformers")
	}
	b.pm.Index.Branch = m
	return nil
}

func (b *builder) buildStorage() {
	names := make([]string, len(b.net.StorageUnits))
	for i, s := range b.net.StorageUnits {
		names[i] = s.Name
		idx := i + 1
		b.pm.Storage[strconv.Itoa(idx)] = Storage{
			PS:                  s.PSet,
			QS:                  s.QSet,
			PMax:                s.PMaxPU,
			PMin:                s.PMinPU,
			QMax:                1,
			Energy:              s.StateOfChargeInitial,
			ChargeEfficiency:    1,
			DischargeEfficiency: 1,
			StorageBus:          b.busIndex(s.Bus),
			Status:              true,
			Index:               idx,
		}
	}
	b.pm.Index.Storage = newMapping(names)
}

func (b *builder) buildLoad() {
	names := make([]string, len(b.plain))
	for i, l := range b.plain {
		names[i] = l.Name
		idx := i + 1
		b.pm.Load[strconv.Itoa(idx)] = Load{
			PD:      l.PSet,
			QD:      l.QSet,
			LoadBus: b.busIndex(l.Bus),
			Status:  true,
			Index:   idx,
		}
	}
	b.pm.Index.Load = newMapping(names)
}

func (b *builder) buildElectromobility() {
	names := make([]string, len(b.cps))
	for i, l := range b.cps {
		names[i] = l.Name
		idx := i + 1
		b.pm.Electromobility[strconv.Itoa(idx)] = Electromobility{
			PD:    l.PSet,
			QD:    l.QSet,
			PMax:  1,
			EMin:  0,
			EMax:  1,
			CPBus: b.busIndex(l.Bus),
			Index: idx,
		}
	}
	b.pm.Index.Electromobility = newMapping(names)
}

func (b *builder) buildHeatpumps() {
	names := make([]string, len(b.hps))
	for i, l := range b.hps {
		names[i] = l.Name
		idx := i + 1
		b.pm.Heatpumps[strconv.Itoa(idx)] = Heatpump{
			PD:    l.PSet,
			QD:    l.QSet,
			PMax:  l.PMax,
			COP:   l.COP,
			HPBus: b.busIndex(l.Bus),
			Index: idx,
		}
	}
	b.pm.Index.Heatpumps = newMapping(names)
}

// buildTimeSeries attaches set point series keyed like the component tables.
// Components without a series are left out.
func (b *builder) buildTimeSeries(bands *network.FlexibilityBands) error {
	ts := &b.pm.TimeSeries
	ts.NumSteps = len(b.net.Snapshots)

	for _, name := range b.pm.Index.Gen.Names() {
		p, q, ok, err := b.series(b.net.GeneratorsT, name)
		if err != nil {
			return fmt.Errorf("generator %q: %w", name, err)
		}
		if ok {
			key, _ := b.pm.Index.Gen.Key(name)
			ts.Gen[key] = GenSeries{PG: p, QG: q}
		}
	}
	for _, name := range b.pm.Index.Load.Names() {
		p, q, ok, err := b.series(b.net.LoadsT, name)
		if err != nil {
			return fmt.Errorf("load %q: %w", name, err)
		}
		if ok {
			key, _ := b.pm.Index.Load.Key(name)
			ts.Load[key] = LoadSeries{PD: p, QD: q}
		}
	}
	for _, name := range b.pm.Index.Storage.Names() {
		p, q, ok, err := b.series(b.net.StorageUnitsT, name)
		if err != nil {
			return fmt.Errorf("storage unit %q: %w", name, err)
		}
		if ok {
			key, _ := b.pm.Index.Storage.Key(name)
			ts.Storage[key] = StorageSeries{PS: p, QS: q}
		}
	}
	for _, name := range b.pm.Index.Electromobility.Names() {
		key, _ := b.pm.Index.Electromobility.Key(name)
		var fs FlexSeries
		var err error
		if fs.PMax, err = b.bandColumn(bands.UpperPower, "upper_power", name); err != nil {
			return err
		}
		if fs.EMin, err = b.bandColumn(bands.LowerEnergy, "lower_energy", name); err != nil {
			return err
		}
		if fs.EMax, err = b.bandColumn(bands.UpperEnergy, "upper_energy", name); err != nil {
			return err
		}
		ts.Electromobility[key] = fs
	}
	for _, name := range b.pm.Index.Heatpumps.Names() {
		p, _, ok, err := b.series(b.net.LoadsT, name)
		if err != nil {
			return fmt.Errorf("heat pump %q: %w", name, err)
		}
		if ok {
			key, _ := b.pm.Index.Heatpumps.Key(name)
			ts.Heatpumps[key] = HeatpumpSeries{PD: p}
		}
	}
	return nil
}

// series returns the P and Q set points of name. A missing Q series is
// reported as zeros.
func (b *builder) series(s network.Series, name string) (p, q []float64, ok bool, err error) {
	p, ok = s.P.Column(name)
	if !ok {
		return nil, nil, false, nil
	}
	if len(p) != len(b.net.Snapshots) {
		return nil, nil, false, fmt.Errorf("series has %d values for %d snapshots", len(p), len(b.net.Snapshots))
	}
	q, qok := s.Q.Column(name)
	if !qok {
		q = make([]float64, len(p))
	}
	return p, q, true, nil
}

func (b *builder) bandColumn(f *frame.Frame, band, name string) ([]float64, error) {
	col, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("flexibility band %s has no charging point %q", band, name)
	}
	if len(col) != len(b.net.Snapshots) {
		return nil, fmt.Errorf("flexibility band %s of %q has %d values for %d snapshots", band, name, len(col), len(b.net.Snapshots))
	}
	return col, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/wildstyl3r/picc/internal/constants"
	"github.com/wildstyl3r/picc/internal/mcc"
)

var (
	ErrConfig      = errors.New("config: invalid configuration")
	ErrUnsupported = errors.New("config: unsupported configuration")
)

type Config struct {
	OutputDir string  `yaml:"outputDir"`
	MakeDir   bool    `yaml:"makeDir"`
	Seed      uint64  `yaml:"seed"`
	Steps     int     `yaml:"steps"`
	Dt        float64 `yaml:"dt"` // [s]
	Geometry  string  `yaml:"geometry"`
	Threads   int     `yaml:"threads"`
	Verbose   bool    `yaml:"verbose"`

	InputUnits  []string `yaml:"inputUnits"`
	OutputUnits []string `yaml:"outputUnits"`

	Grid       GridParameters               `yaml:"grid"`
	Species    map[string]SpeciesParameters `yaml:"species"`
	Collisions []CollisionParameters        `yaml:"collisions"`
}

type GridParameters struct {
	Lo    [3]float64 `yaml:"lo"`
	Hi    [3]float64 `yaml:"hi"`
	Cells [3]int     `yaml:"cells"`
}

type SpeciesParameters struct {
	Preset      string     `yaml:"preset"` // "electron" or "proton"
	Charge      float64    `yaml:"charge"` // [e]
	Mass        float64    `yaml:"mass"`   // [amu]
	Count       int        `yaml:"count"`  // macroparticles in the initial load
	Density     float64    `yaml:"density"`
	Temperature float64    `yaml:"temperature"`
	Drift       [3]float64 `yaml:"drift"`
}

// ChargeSI and MassSI resolve presets into [C] and [kg].
func (sp SpeciesParameters) ChargeSI() float64 {
	switch sp.Preset {
	case "electron":
		return -constants.ElectronCharge
	case "proton":
		return constants.ElectronCharge
	}
	return sp.Charge * constants.ElectronCharge
}

func (sp SpeciesParameters) MassSI() float64 {
	switch sp.Preset {
	case "electron":
		return constants.ElectornMass
	case "proton":
		return constants.ProtonMass
	}
	return sp.Mass * constants.AtomicMassUnit
}

type BackgroundParameters struct {
	Mass           float64 `yaml:"mass"` // [amu]
	Density        float64 `yaml:"density"`
	Pressure       float64 `yaml:"pressure"`
	Temperature    float64 `yaml:"temperature"`
	DensityProfile string  `yaml:"densityProfile"` // two columns: x [m], density factor
}

// GasDensity is the background density [m^-3], from the pressure when no
// density is given.
func (bp BackgroundParameters) GasDensity() float64 {
	if bp.Density > 0 {
		return bp.Density
	}
	if bp.Temperature <= 0 {
		return 0
	}
	return bp.Pressure / (constants.KBolzmann * bp.Temperature)
}

type ProcessParameters struct {
	Name      string    `yaml:"name"`
	Kind      string    `yaml:"kind"`
	Threshold float64   `yaml:"threshold"` // [eV]
	File      string    `yaml:"file"`
	Energy    []float64 `yaml:"energy"` // [eV]
	Sigma     []float64 `yaml:"sigma"`  // [m^2]
}

const (
	Coulomb       = "coulomb"
	BackgroundMCC = "background_mcc"
	Reaction      = "reaction"
)

type CollisionParameters struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Species []string `yaml:"species"`
	NDt     int      `yaml:"ndt"`

	CoulombLog float64 `yaml:"coulombLog"`

	Background        BackgroundParameters `yaml:"background"`
	Processes         []ProcessParameters  `yaml:"processes"`
	LXCat             string               `yaml:"lxcat"`
	LXCatStep         float64              `yaml:"lxcatStep"` // [eV]
	ScanMax           float64              `yaml:"scanMax"`   // [eV]
	ScanStep          float64              `yaml:"scanStep"`  // [eV]
	IonizationSpecies []string             `yaml:"ionizationSpecies"`

	Products     []string `yaml:"products"`
	ProductCount int      `yaml:"productCount"`
	Multiplier   float64  `yaml:"multiplier"`
	EnergyCost   float64  `yaml:"energyCost"` // [eV]
}

var defaultValues = map[string]any{
	"OutputDir": ".",
	"MakeDir":   true,
	"Seed":      uint64(1),
	"Steps":     1,
	"Geometry":  "3d",
}

var collisionDefaults = CollisionParameters{
	NDt:          1,
	LXCatStep:    0.01,
	ScanMax:      mcc.DefaultScanMax,
	ScanStep:     mcc.DefaultScanStep,
	ProductCount: 1,
	Multiplier:   1.,
}

var defaultUnits = []string{"m", "s", "K", "Pa"}

// Load reads a .toml or .yaml configuration, fills defaults, converts
// input units to SI and validates the result.
func Load(path string) (*Config, error) {
	var c Config
	var defined func(field string) bool
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, &c)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		// toml decoding matches keys case-insensitively, so must this
		defined = func(field string) bool {
			for _, key := range meta.Keys() {
				if len(key) == 1 && strings.EqualFold(key[0], field) {
					return true
				}
			}
			return false
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		var keys map[string]any
		if err := yaml.Unmarshal(data, &keys); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		defined = func(field string) bool {
			_, some := keys[yamlKey(field)]
			return some
		}
	default:
		return nil, fmt.Errorf("%w: unknown config format %q", ErrUnsupported, filepath.Ext(path))
	}

	if err := c.unify(defined); err != nil {
		return nil, err
	}
	return &c, nil
}

func yamlKey(field string) string {
	f, ok := reflect.TypeOf(Config{}).FieldByName(field)
	if !ok {
		return field
	}
	return strings.Split(f.Tag.Get("yaml"), ",")[0]
}

func (c *Config) unify(defined func(string) bool) error {
	cr := reflect.ValueOf(c).Elem()
	for field, value := range defaultValues {
		if !defined(field) {
			cr.FieldByName(field).Set(reflect.ValueOf(value))
		}
	}
	for i := range c.Collisions {
		c.Collisions[i].fillDefaults()
	}

	var conflicts []string
	c.InputUnits, conflicts = checkUnits(c.InputUnits)
	if len(conflicts) > 0 {
		return fmt.Errorf("%w: input unit conflict %v", ErrConfig, conflicts)
	}
	if len(c.OutputUnits) == 0 {
		c.OutputUnits = c.InputUnits
	}
	c.OutputUnits, conflicts = checkUnits(c.OutputUnits)
	if len(conflicts) > 0 {
		return fmt.Errorf("%w: output unit conflict %v", ErrConfig, conflicts)
	}

	toSI(reflect.ValueOf(c).Elem(), "", c.InputUnits)
	return c.validate()
}

func (cp *CollisionParameters) fillDefaults() {
	dst := reflect.ValueOf(cp).Elem()
	def := reflect.ValueOf(collisionDefaults)
	for i := range dst.NumField() {
		if f := def.Field(i); !f.IsZero() && dst.Field(i).IsZero() {
			dst.Field(i).Set(f)
		}
	}
}

var valueUnits = map[string][]UnitElement{
	"Dt":          {{Class: Time, Power: 1}},
	"Lo":          {{Class: Length, Power: 1}},
	"Hi":          {{Class: Length, Power: 1}},
	"Density":     {{Class: Length, Power: -3}},
	"Pressure":    {{Class: Pressure, Power: 1}},
	"Temperature": {{Class: Temperature, Power: 1}},
	"Drift":       {{Class: Length, Power: 1}, {Class: Time, Power: -1}},
}

// toSI converts, in place, every float field (or float array) named in
// valueUnits found anywhere below v.
func toSI(v reflect.Value, name string, units []string) {
	switch v.Kind() {
	case reflect.Float64:
		if classes, some := valueUnits[name]; some {
			v.SetFloat(SI(v.Float(), classes, units, true))
		}
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Float64 {
			for i := range v.Len() {
				toSI(v.Index(i), name, units)
			}
		}
	case reflect.Struct:
		for i := range v.NumField() {
			toSI(v.Field(i), v.Type().Field(i).Name, units)
		}
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Struct {
			for i := range v.Len() {
				toSI(v.Index(i), name, units)
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			elem := reflect.New(iter.Value().Type()).Elem()
			elem.Set(iter.Value())
			toSI(elem, name, units)
			v.SetMapIndex(iter.Key(), elem)
		}
	}
}

var supportedGeometries = []string{"3d", "xz"}

func (c *Config) validate() error {
	if c.Geometry == "rz" {
		return fmt.Errorf("%w: geometry %q: collisions need cartesian cells", ErrUnsupported, c.Geometry)
	}
	if !slices.Contains(supportedGeometries, c.Geometry) {
		return fmt.Errorf("%w: unknown geometry %q", ErrConfig, c.Geometry)
	}
	if c.Dt <= 0 || c.Steps < 0 || c.Threads < 0 {
		return fmt.Errorf("%w: dt %v, steps %d, threads %d", ErrConfig, c.Dt, c.Steps, c.Threads)
	}
	for d := range 3 {
		if c.Grid.Cells[d] <= 0 || !(c.Grid.Hi[d] > c.Grid.Lo[d]) {
			return fmt.Errorf("%w: grid axis %d: [%v, %v] with %d cells", ErrConfig, d, c.Grid.Lo[d], c.Grid.Hi[d], c.Grid.Cells[d])
		}
	}
	if c.Geometry == "xz" && c.Grid.Cells[1] != 1 {
		return fmt.Errorf("%w: xz geometry needs exactly one cell along y", ErrConfig)
	}
	if len(c.Species) == 0 {
		return fmt.Errorf("%w: no species", ErrConfig)
	}
	for name, sp := range c.Species {
		if sp.Preset != "" && sp.Preset != "electron" && sp.Preset != "proton" {
			return fmt.Errorf("%w: species %s: unknown preset %q", ErrConfig, name, sp.Preset)
		}
		if sp.MassSI() <= 0 || sp.Count < 0 || sp.Density < 0 || sp.Temperature < 0 {
			return fmt.Errorf("%w: species %s: mass, count, density and temperature must be non-negative, mass positive", ErrConfig, name)
		}
	}
	for i := range c.Collisions {
		if err := c.Collisions[i].validate(c.Species); err != nil {
			return fmt.Errorf("collision %d (%s): %w", i, c.Collisions[i].Name, err)
		}
	}
	return nil
}

func (cp *CollisionParameters) validate(species map[string]SpeciesParameters) error {
	known := func(names ...string) error {
		for _, n := range names {
			if _, some := species[n]; !some {
				return fmt.Errorf("%w: unknown species %q", ErrConfig, n)
			}
		}
		return nil
	}
	if err := known(cp.Species...); err != nil {
		return err
	}
	if cp.NDt < 1 {
		return fmt.Errorf("%w: ndt %d", ErrConfig, cp.NDt)
	}

	switch cp.Type {
	case Coulomb:
		if len(cp.Species) != 2 {
			return fmt.Errorf("%w: coulomb collisions need two species", ErrConfig)
		}
	case BackgroundMCC:
		if len(cp.Species) != 1 {
			return fmt.Errorf("%w: background collisions need one species", ErrConfig)
		}
		bg := cp.Background
		if bg.Density > 0 && bg.Pressure > 0 {
			return fmt.Errorf("%w: background density and pressure are mutually exclusive", ErrConfig)
		}
		if bg.Mass <= 0 || bg.Temperature < 0 || bg.GasDensity() < 0 {
			return fmt.Errorf("%w: background mass %v, temperature %v", ErrConfig, bg.Mass, bg.Temperature)
		}
		if err := cp.validateProcesses(); err != nil {
			return err
		}
		ionizes := slices.ContainsFunc(cp.Processes, func(p ProcessParameters) bool {
			return strings.EqualFold(p.Kind, "ionization")
		})
		if ionizes && len(cp.IonizationSpecies) == 0 {
			return fmt.Errorf("%w: an ionization process needs ionizationSpecies", ErrConfig)
		}
		if len(cp.IonizationSpecies) > 0 {
			if len(cp.IonizationSpecies) != 2 {
				return fmt.Errorf("%w: ionization species are [electrons, ions]", ErrConfig)
			}
			if err := known(cp.IonizationSpecies...); err != nil {
				return err
			}
		}
	case Reaction:
		if len(cp.Species) != 2 || len(cp.Products) == 0 {
			return fmt.Errorf("%w: reactions need two species and at least one product", ErrConfig)
		}
		if err := known(cp.Products...); err != nil {
			return err
		}
		if cp.EnergyCost != 0 && len(cp.Products) != 2 {
			return fmt.Errorf("%w: an energy cost needs exactly two products", ErrConfig)
		}
		if cp.Multiplier < 1 || cp.ProductCount < 1 {
			return fmt.Errorf("%w: multiplier %v, product count %d", ErrConfig, cp.Multiplier, cp.ProductCount)
		}
		if len(cp.Processes) != 1 || cp.LXCat != "" {
			return fmt.Errorf("%w: a reaction has exactly one process", ErrConfig)
		}
		return cp.validateProcesses()
	default:
		return fmt.Errorf("%w: collision type %q", ErrUnsupported, cp.Type)
	}
	return nil
}

func (cp *CollisionParameters) validateProcesses() error {
	if len(cp.Processes) == 0 && cp.LXCat == "" {
		return fmt.Errorf("%w: no processes", ErrConfig)
	}
	for _, p := range cp.Processes {
		inline := len(p.Energy) > 0 || len(p.Sigma) > 0
		if inline == (p.File != "") {
			return fmt.Errorf("%w: process %s needs either a file or an inline table", ErrConfig, p.Name)
		}
	}
	return nil
}

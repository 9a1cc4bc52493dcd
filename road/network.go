// Package road loads road networks from YAML and builds them into a
// traffic.World. A network names its crosses, the streets between them and
// the garages hanging off them; every reference is by name.
package road

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed city.yaml
var defaultCity []byte

// Point is a position on the ground plane
type Point struct {
	X float64 `yaml:"x"`
	Z float64 `yaml:"z"`
}

// Network is the YAML topology file
type Network struct {
	Name    string   `yaml:"name" validate:"required"`
	Crosses []Cross  `yaml:"crosses" validate:"required,min=1,dive"`
	Streets []Street `yaml:"streets" validate:"dive"`
	Garages []Garage `yaml:"garages" validate:"dive"`
}

// Cross is an intersection. Priority, Yield and Lights are optional; a cross
// with none of them admits vehicles round robin.
type Cross struct {
	Name            string    `yaml:"name" validate:"required"`
	Pos             Point     `yaml:"pos"`
	AllowedInFlight int       `yaml:"allowedInFlight" validate:"gte=0"`
	Priority        *Priority `yaml:"priority"`
	Yield           []Yield   `yaml:"yield" validate:"dive"`
	Lights          *Lights   `yaml:"lights"`
}

// Priority names the main road of a cross; minor lanes give way to it
type Priority struct {
	Major []string `yaml:"major" validate:"min=1,max=2,dive,required"`
	Minor []string `yaml:"minor" validate:"max=2,dive,required"`
}

// Yield is a single give-way rule between two lanes at a cross
type Yield struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required,nefield=From"`
}

// Lights turns a cross into a signalled cross. Unset durations fall back to
// traffic.DefaultLightTimings.
type Lights struct {
	GroupA     []string `yaml:"groupA" validate:"min=1,dive,required"`
	GreenA     *float64 `yaml:"greenA" validate:"omitempty,gt=0"`
	YellowA    *float64 `yaml:"yellowA" validate:"omitempty,gte=0"`
	ClearanceA *float64 `yaml:"clearanceA" validate:"omitempty,gte=0"`
	GreenB     *float64 `yaml:"greenB" validate:"omitempty,gt=0"`
	YellowB    *float64 `yaml:"yellowB" validate:"omitempty,gte=0"`
	ClearanceB *float64 `yaml:"clearanceB" validate:"omitempty,gte=0"`
}

// Street is a two-way lane between two crosses
type Street struct {
	Name string `yaml:"name" validate:"required"`
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required,nefield=From"`
}

// Garage spawns vehicles onto a lane leading to Cross and takes them back.
// Zero intervals and a missing bus ratio use traffic.DefaultGarageConfig.
type Garage struct {
	Name            string   `yaml:"name" validate:"required"`
	Pos             Point    `yaml:"pos"`
	Cross           string   `yaml:"cross" validate:"required"`
	SpawnInterval   float64  `yaml:"spawnInterval" validate:"gte=0"`
	DespawnInterval float64  `yaml:"despawnInterval" validate:"gte=0"`
	MaxVehicles     int      `yaml:"maxVehicles" validate:"gte=0"`
	BusRatio        *float64 `yaml:"busRatio" validate:"omitempty,gte=0,lte=1"`
}

// Parse decodes and validates a network. Unknown keys are rejected.
func Parse(data []byte) (*Network, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var n Network
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("failed to decode network: %w", err)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// Load reads a network file. An empty path loads the built-in city.
func Load(path string) (*Network, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open network file: %w", err)
	}
	n, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// Default returns the built-in city
func Default() (*Network, error) {
	return Parse(defaultCity)
}

// Validate checks field constraints and that every name reference resolves
func (n *Network) Validate() error {
	if err := validator.New().Struct(n); err != nil {
		return fmt.Errorf("invalid network: %w", err)
	}

	var errs []error
	crosses := map[string]bool{}
	for _, c := range n.Crosses {
		if crosses[c.Name] {
			errs = append(errs, fmt.Errorf("cross %q: %w", c.Name, ErrDuplicateName))
		}
		crosses[c.Name] = true
	}

	lanes := map[string]bool{}
	addLane := func(kind, name string) {
		if lanes[name] {
			errs = append(errs, fmt.Errorf("%s %q: %w", kind, name, ErrDuplicateName))
		}
		lanes[name] = true
	}
	for _, s := range n.Streets {
		addLane("street", s.Name)
		for _, ref := range []string{s.From, s.To} {
			if !crosses[ref] {
				errs = append(errs, fmt.Errorf("street %q: cross %q: %w", s.Name, ref, ErrUnknownName))
			}
		}
	}
	for _, g := range n.Garages {
		addLane("garage", g.Name)
		if !crosses[g.Cross] {
			errs = append(errs, fmt.Errorf("garage %q: cross %q: %w", g.Name, g.Cross, ErrUnknownName))
		}
	}

	for _, c := range n.Crosses {
		var refs []string
		if c.Priority != nil {
			refs = append(refs, c.Priority.Major...)
			refs = append(refs, c.Priority.Minor...)
		}
		for _, y := range c.Yield {
			refs = append(refs, y.From, y.To)
		}
		if c.Lights != nil {
			refs = append(refs, c.Lights.GroupA...)
		}
		for _, ref := range refs {
			if !lanes[ref] {
				errs = append(errs, fmt.Errorf("cross %q: lane %q: %w", c.Name, ref, ErrUnknownName))
			}
		}
	}

	return errors.Join(errs...)
}

var (
	ErrDuplicateName = errors.New("duplicate name")
	ErrUnknownName   = errors.New("unknown name")
)

package road

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/golangdaddy/trafficsim/pkg/geom"
	"github.com/golangdaddy/trafficsim/traffic"
)

// Index maps the names of a built network to world identifiers
type Index struct {
	Crosses map[string]traffic.CrossID
	Lanes   map[string]traffic.LaneID
}

// CrossName returns the name of a cross, or "" when it is unknown
func (ix *Index) CrossName(id traffic.CrossID) string {
	name, _ := lo.FindKey(ix.Crosses, id)
	return name
}

// LaneName returns the name of a lane, or "" when it is unknown
func (ix *Index) LaneName(id traffic.LaneID) string {
	name, _ := lo.FindKey(ix.Lanes, id)
	return name
}

func (p Point) vec() geom.Vec3 {
	return geom.V(p.X, 0, p.Z)
}

// Build adds the network to an empty world and configures its crosses
func (n *Network) Build(w *traffic.World, log zerolog.Logger) (*Index, error) {
	ix := &Index{
		Crosses: make(map[string]traffic.CrossID, len(n.Crosses)),
		Lanes:   make(map[string]traffic.LaneID, len(n.Streets)+len(n.Garages)),
	}

	for _, c := range n.Crosses {
		id, err := w.AddCross(c.Name, c.Pos.vec())
		if err != nil {
			return nil, err
		}
		ix.Crosses[c.Name] = id
	}

	for _, s := range n.Streets {
		id, err := w.AddStreet(s.Name, ix.Crosses[s.From], ix.Crosses[s.To])
		if err != nil {
			return nil, err
		}
		ix.Lanes[s.Name] = id
	}

	for _, g := range n.Garages {
		id, err := w.AddGarage(g.Name, g.Pos.vec(), ix.Crosses[g.Cross], g.config())
		if err != nil {
			return nil, err
		}
		ix.Lanes[g.Name] = id
	}

	for _, c := range n.Crosses {
		if err := n.configureCross(w, ix, c); err != nil {
			return nil, fmt.Errorf("cross %q: %w", c.Name, err)
		}
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("network", n.Name).
		Int("crosses", len(n.Crosses)).
		Int("streets", len(n.Streets)).
		Int("garages", len(n.Garages)).
		Msg("network built")

	return ix, nil
}

func (n *Network) configureCross(w *traffic.World, ix *Index, c Cross) error {
	id := ix.Crosses[c.Name]
	lane := func(name string) traffic.LaneID {
		return ix.Lanes[name]
	}

	if c.AllowedInFlight > 0 {
		if err := w.SetAllowedInFlight(id, c.AllowedInFlight); err != nil {
			return err
		}
	}

	if c.Priority != nil {
		s := []traffic.LaneID{traffic.NoLane, traffic.NoLane, traffic.NoLane, traffic.NoLane}
		for i, name := range c.Priority.Major {
			s[i] = lane(name)
		}
		for i, name := range c.Priority.Minor {
			s[2+i] = lane(name)
		}
		if err := w.SetDefaultPriority(id, s[0], s[1], s[2], s[3]); err != nil {
			return err
		}
	}

	for _, y := range c.Yield {
		if err := w.SetYield(id, lane(y.From), lane(y.To)); err != nil {
			return err
		}
	}

	if c.Lights != nil {
		groupA := lo.Map(c.Lights.GroupA, func(name string, _ int) traffic.LaneID {
			return lane(name)
		})
		if err := w.SetLights(id, c.Lights.timings(), groupA...); err != nil {
			return err
		}
	}

	return nil
}

func (l *Lights) timings() traffic.LightTimings {
	t := traffic.DefaultLightTimings()
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{l.GreenA, &t.GreenA},
		{l.YellowA, &t.YellowA},
		{l.ClearanceA, &t.ClearanceA},
		{l.GreenB, &t.GreenB},
		{l.YellowB, &t.YellowB},
		{l.ClearanceB, &t.ClearanceB},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return t
}

func (g Garage) config() traffic.GarageConfig {
	cfg := traffic.DefaultGarageConfig()
	if g.SpawnInterval > 0 {
		cfg.SpawnInterval = g.SpawnInterval
	}
	if g.DespawnInterval > 0 {
		cfg.DespawnInterval = g.DespawnInterval
	}
	if g.BusRatio != nil {
		cfg.BusRatio = *g.BusRatio
	}
	cfg.MaxVehicles = g.MaxVehicles
	return cfg
}

package ui

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/bitmapfont/v4"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/rs/zerolog"

	"github.com/golangdaddy/trafficsim/config"
	"github.com/golangdaddy/trafficsim/pkg/geom"
	"github.com/golangdaddy/trafficsim/traffic"
)

var (
	backgroundColor = color.RGBA{30, 30, 40, 255}
	streetColor     = color.RGBA{70, 70, 80, 255}
	garageColor     = color.RGBA{60, 90, 70, 255}
	markingColor    = color.RGBA{200, 200, 200, 255}
	crossColor      = color.RGBA{90, 90, 100, 255}
	goColor         = color.RGBA{60, 220, 90, 255}
	stopColor       = color.RGBA{230, 50, 50, 255}
	hudColor        = color.RGBA{230, 230, 230, 255}
)

const (
	laneWidth  = 0.3
	crossSize  = 0.6
	lampSize   = 0.1
	lampInset  = 0.2
	hudLineGap = 20.0
	maxSpeedUp = 16.0
)

// Camera maps world XZ coordinates onto the screen. Z grows downwards.
type Camera struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Project returns the screen position of a world point
func (c Camera) Project(p geom.Vec3) (float64, float64) {
	return p.X*c.Scale + c.OffsetX, p.Z*c.Scale + c.OffsetY
}

// FitCamera centres the bounding box of the lanes on a width x height screen
// at the given scale.
func FitCamera(lanes []traffic.LaneSnapshot, width, height int, scale float64) Camera {
	if len(lanes) == 0 {
		return Camera{Scale: scale, OffsetX: float64(width) / 2, OffsetY: float64(height) / 2}
	}
	minX, minZ := math.Inf(1), math.Inf(1)
	maxX, maxZ := math.Inf(-1), math.Inf(-1)
	for _, l := range lanes {
		for _, p := range []geom.Vec3{l.Begin, l.End} {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minZ, maxZ = math.Min(minZ, p.Z), math.Max(maxZ, p.Z)
		}
	}
	return Camera{
		Scale:   scale,
		OffsetX: float64(width)/2 - (minX+maxX)/2*scale,
		OffsetY: float64(height)/2 - (minZ+maxZ)/2*scale,
	}
}

// CityView is the top-down viewer of a running world. It advances the world
// by one tick per frame.
type CityView struct {
	world  *traffic.World
	cfg    config.ViewerConfig
	delta  float64
	log    zerolog.Logger
	camera Camera
	face   text.Face

	lanes  []traffic.LaneSnapshot
	paused bool
	speed  float64
}

// NewCityView creates a viewer for w stepping delta seconds per tick
func NewCityView(w *traffic.World, cfg config.ViewerConfig, delta float64, log zerolog.Logger) *CityView {
	lanes := w.Lanes()
	return &CityView{
		world:  w,
		cfg:    cfg,
		delta:  delta,
		log:    log,
		camera: FitCamera(lanes, cfg.Width, cfg.Height, cfg.Scale),
		face:   text.NewGoXFace(bitmapfont.Face),
		lanes:  lanes,
		speed:  1,
	}
}

// Update handles input and steps the world
func (cv *CityView) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		cv.paused = !cv.paused
		cv.log.Info().Bool("paused", cv.paused).Msg("Toggled pause")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && cv.speed < maxSpeedUp {
		cv.speed *= 2
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && cv.speed > 1 {
		cv.speed /= 2
	}

	if cv.paused {
		// Single step
		if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
			cv.world.Update(cv.delta)
		}
		return nil
	}
	for range int(cv.speed) {
		cv.world.Update(cv.delta)
	}
	return nil
}

// Draw renders the city
func (cv *CityView) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	for _, l := range cv.lanes {
		cv.drawLane(screen, l)
	}
	for _, c := range cv.world.Crosses() {
		cv.drawCross(screen, c)
	}
	for _, v := range cv.world.Vehicles() {
		RenderVehicle(screen, cv.camera, v)
	}
	cv.drawHUD(screen)
}

func (cv *CityView) drawLane(screen *ebiten.Image, l traffic.LaneSnapshot) {
	x, y := cv.camera.Project(l.Begin)
	angle := l.End.Sub(l.Begin).AngleXZ() * math.Pi / 180
	length := l.Length * cv.camera.Scale
	width := laneWidth * cv.camera.Scale

	clr := streetColor
	if l.Kind == traffic.LaneGarage {
		clr = garageColor
	}
	fillRect(screen, x, y, 0, width/2, length, width, angle, clr)
	// Centre line between the two directions
	fillRect(screen, x, y, 0, 0.5, length, 1, angle, markingColor)
}

func (cv *CityView) drawCross(screen *ebiten.Image, c traffic.CrossSnapshot) {
	x, y := cv.camera.Project(c.Pos)
	size := crossSize * cv.camera.Scale
	fillRect(screen, x, y, size/2, size/2, size, size, 0, crossColor)

	if c.Kind != traffic.Signalled {
		return
	}
	lamp := lampSize * cv.camera.Scale
	for _, a := range c.Approaches {
		l := cv.lanes[a.Lane]
		// Incoming lane direction points away from the cross for backward arrivals
		dir := l.End.Sub(l.Begin).Normalize()
		if a.Arrival == traffic.Forward {
			dir = dir.Scale(-1)
		}
		lx, ly := cv.camera.Project(c.Pos.Add(dir.Scale(lampInset)))
		clr := stopColor
		if a.Go {
			clr = goColor
		}
		fillRect(screen, lx, ly, lamp/2, lamp/2, lamp, lamp, 0, clr)
	}
}

func (cv *CityView) drawHUD(screen *ebiten.Image) {
	stats := cv.world.Stats()
	lines := []string{
		fmt.Sprintf("t=%.1fs tick=%d speed=x%.0f", stats.Time, stats.Tick, cv.speed),
		fmt.Sprintf("vehicles=%d in flight=%d", stats.Vehicles, stats.InFlight),
		fmt.Sprintf("spawned=%d despawned=%d admitted=%d", stats.Spawned, stats.Despawned, stats.Admitted),
	}
	if cv.paused {
		lines = append(lines, "PAUSED (space to resume, . to step)")
	}
	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(8, 8+float64(i)*hudLineGap)
		op.ColorScale.ScaleWithColor(hudColor)
		text.Draw(screen, line, cv.face, op)
	}
}

// Layout returns the configured logical screen size
func (cv *CityView) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cv.cfg.Width, cv.cfg.Height
}

// Run opens the window and blocks until it is closed
func Run(cv *CityView) error {
	ebiten.SetWindowSize(cv.cfg.Width, cv.cfg.Height)
	ebiten.SetWindowTitle(cv.cfg.Title)
	if cv.cfg.TPS > 0 {
		ebiten.SetTPS(cv.cfg.TPS)
	}
	return ebiten.RunGame(cv)
}

package ui

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/golangdaddy/trafficsim/models"
	"github.com/golangdaddy/trafficsim/traffic"
)

var (
	carColor     = color.RGBA{100, 150, 255, 255}
	busColor     = color.RGBA{240, 190, 60, 255}
	outlineColor = color.RGBA{20, 20, 20, 255}
	glassColor   = color.RGBA{150, 200, 255, 200}
	brakeColor   = color.RGBA{255, 40, 40, 255}
	blinkerColor = color.RGBA{255, 160, 0, 255}
)

// vehicleWidth is the drawn width of every vehicle in world units
const vehicleWidth = 0.12

// pixel is a 1x1 white image scaled into every rectangle drawn
var pixel *ebiten.Image

func whitePixel() *ebiten.Image {
	if pixel == nil {
		pixel = ebiten.NewImage(1, 1)
		pixel.Fill(color.White)
	}
	return pixel
}

// fillRect draws a w x h rectangle whose local origin (ox, oy) is placed at
// screen point (x, y) and rotated by angle radians around it.
func fillRect(screen *ebiten.Image, x, y, ox, oy, w, h, angle float64, clr color.Color) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(-ox, -oy)
	op.GeoM.Rotate(angle)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	screen.DrawImage(whitePixel(), op)
}

// RenderVehicle renders a top-down view of a vehicle. The snapshot position
// is the front bumper; the body extends backwards along the heading.
func RenderVehicle(screen *ebiten.Image, cam Camera, v traffic.VehicleSnapshot) {
	x, y := cam.Project(v.Position)
	angle := v.Heading * math.Pi / 180
	length := v.Specs.Length * cam.Scale
	width := vehicleWidth * cam.Scale

	body := carColor
	if v.Kind == models.KindBus {
		body = busColor
	}

	if v.Kind == models.KindBus && v.Articulation != 0 {
		half := length / 2
		renderBody(screen, x, y, half, width, angle, body, v)
		// Rear half pivots at the joint
		jx := x - math.Cos(angle)*half
		jy := y - math.Sin(angle)*half
		rear := angle + v.Articulation*math.Pi/180
		fillRect(screen, jx, jy, half, width/2, half, width, rear, outlineColor)
		fillRect(screen, jx, jy, half-1, width/2-1, half-2, width-2, rear, body)
		renderTail(screen, jx, jy, half, width, rear, v)
		return
	}

	renderBody(screen, x, y, length, width, angle, body, v)
	renderTail(screen, x, y, length, width, angle, v)
}

func renderBody(screen *ebiten.Image, x, y, length, width, angle float64, body color.Color, v traffic.VehicleSnapshot) {
	fillRect(screen, x, y, length, width/2, length, width, angle, outlineColor)
	fillRect(screen, x, y, length-1, width/2-1, length-2, width-2, angle, body)

	// Windshield at the front
	glass := length * 0.2
	fillRect(screen, x, y, glass+length*0.15, width*0.3, glass, width*0.6, angle, glassColor)

	if v.BlinkerLit() {
		// Lamp on the indicated front corner; positive turns bend towards +Z
		oy := width / 2
		if v.Blinker.Side > 0 {
			oy = -width/2 + 3
		}
		fillRect(screen, x, y, 3, oy, 3, 3, angle, blinkerColor)
	}
}

// renderTail draws the brake lights at the rear of the body segment that
// ends length pixels behind (x, y).
func renderTail(screen *ebiten.Image, x, y, length, width, angle float64, v traffic.VehicleSnapshot) {
	if !v.Braking {
		return
	}
	fillRect(screen, x, y, length, width/2, 2, 3, angle, brakeColor)
	fillRect(screen, x, y, length, -width/2+3, 2, 3, angle, brakeColor)
}

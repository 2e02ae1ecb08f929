package enrich

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Approximate kilometers per degree, used by the equirectangular projection.
const (
	kmPerDegreeLat = 110.574
	kmPerDegreeLon = 111.320
)

// nrgbaToRGBA converts color.NRGBA to color.RGBA by premultiplying alpha
// This is needed for the canvas library which expects premultiplied RGBA
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

var (
	districtFill    = color.NRGBA{100, 149, 237, 90} // Cornflower blue
	districtStroke  = color.NRGBA{0, 0, 139, 255}    // Dark blue
	listingColor    = color.NRGBA{128, 128, 128, 200}
	listingInColor  = color.NRGBA{220, 20, 60, 255} // Crimson
	facilityPalette = []color.NRGBA{
		{0, 100, 0, 255},    // Dark green
		{184, 134, 11, 255}, // Dark goldenrod
		{139, 0, 139, 255},  // Dark magenta
		{0, 139, 139, 255},  // Dark cyan
	}
)

// MapRenderer draws district polygons, facility points and listing locations
// as a map. Coordinates use an equirectangular projection around the mean
// latitude; one canvas unit (mm) corresponds to 1/Scale kilometers.
type MapRenderer struct {
	Districts  []*Polygon
	Facilities []*FacilitySet
	Listings   []LatLon

	Scale       float64 // canvas mm per km
	Padding     float64 // canvas mm
	PointRadius float64 // canvas mm
	Resolution  canvas.Resolution
}

// NewMapRenderer creates a renderer with default settings.
func NewMapRenderer(districts []*Polygon, facilities []*FacilitySet, listings []LatLon) *MapRenderer {
	return &MapRenderer{
		Districts:   districts,
		Facilities:  facilities,
		Listings:    listings,
		Scale:       5,
		Padding:     10,
		PointRadius: 0.8,
		Resolution:  canvas.DPI(150),
	}
}

// DatasetLocations returns the valid coordinates of every row in ds.
func DatasetLocations(ds *Dataset) []LatLon {
	out := make([]LatLon, 0, ds.Len())
	for _, r := range ds.Rows() {
		if ll, ok := r.LatLon(); ok {
			out = append(out, ll)
		}
	}
	return out
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// projection maps geographic coordinates onto canvas millimeters.
type projection struct {
	minX, minY float64
	cosLat     float64
	scale      float64
	padding    float64
	width      float64
	height     float64
}

func (p projection) point(ll LatLon) (float64, float64) {
	x := ll.Lon * kmPerDegreeLon * p.cosLat * p.scale
	y := ll.Lat * kmPerDegreeLat * p.scale
	return x - p.minX + p.padding, y - p.minY + p.padding
}

func (r *MapRenderer) project() (projection, error) {
	var all []LatLon
	for _, d := range r.Districts {
		for _, pt := range d.Ring {
			all = append(all, LatLon{Lat: pt.Lat(), Lon: pt.Lon()})
		}
	}
	for _, set := range r.Facilities {
		for _, f := range set.Facilities() {
			all = append(all, f.Location)
		}
	}
	all = append(all, r.Listings...)
	if len(all) == 0 {
		return projection{}, fmt.Errorf("render: nothing to draw")
	}

	var latSum float64
	for _, ll := range all {
		latSum += ll.Lat
	}
	p := projection{
		cosLat:  math.Cos(latSum / float64(len(all)) * math.Pi / 180),
		scale:   r.Scale,
		padding: r.Padding,
	}

	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, ll := range all {
		x := ll.Lon * kmPerDegreeLon * p.cosLat * p.scale
		y := ll.Lat * kmPerDegreeLat * p.scale
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	p.minX, p.minY = minX, minY
	p.width = (maxX - minX) + 2*r.Padding
	p.height = (maxY - minY) + 2*r.Padding
	return p, nil
}

// RenderToSVG writes the map as an SVG to the provided writer
func (r *MapRenderer) RenderToSVG(w io.Writer) error {
	p, err := r.project()
	if err != nil {
		return err
	}
	svgRenderer := svg.New(w, p.width, p.height, nil)
	r.renderToCanvas(svgRenderer, p)
	return svgRenderer.Close()
}

// RenderToPNG writes the map as a PNG with a legend to the provided writer
func (r *MapRenderer) RenderToPNG(w io.Writer) error {
	p, err := r.project()
	if err != nil {
		return err
	}
	rast := rasterizer.New(p.width, p.height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, p)
	r.drawLegend(rast)
	return png.Encode(w, rast)
}

func (r *MapRenderer) renderToCanvas(renderer canvasRenderer, p projection) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(p.width, p.height), bgStyle, canvas.Identity)

	districtStyle := canvas.DefaultStyle
	districtStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(districtFill)}
	districtStyle.Stroke = canvas.Paint{Color: nrgbaToRGBA(districtStroke)}
	districtStyle.StrokeWidth = 0.5

	for _, d := range r.Districts {
		cp := &canvas.Path{}
		for i, pt := range d.Ring {
			x, y := p.point(LatLon{Lat: pt.Lat(), Lon: pt.Lon()})
			if i == 0 {
				cp.MoveTo(x, y)
			} else {
				cp.LineTo(x, y)
			}
		}
		cp.Close()
		renderer.RenderPath(cp, districtStyle, canvas.Identity)
	}

	for _, ll := range r.Listings {
		c := listingColor
		for _, d := range r.Districts {
			if d.Contains(ll) {
				c = listingInColor
				break
			}
		}
		r.drawPoint(renderer, p, ll, c, r.PointRadius)
	}

	for i, set := range r.Facilities {
		c := facilityPalette[i%len(facilityPalette)]
		for _, f := range set.Facilities() {
			r.drawPoint(renderer, p, f.Location, c, r.PointRadius*2)
		}
	}
}

func (r *MapRenderer) drawPoint(renderer canvasRenderer, p projection, ll LatLon, c color.NRGBA, radius float64) {
	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: nrgbaToRGBA(c)}
	style.Stroke = canvas.Paint{Color: canvas.Transparent}
	x, y := p.point(ll)
	renderer.RenderPath(canvas.Circle(radius).Translate(x, y), style, canvas.Identity)
}

// drawLegend labels facility sets in the top-left corner of a raster image.
func (r *MapRenderer) drawLegend(img *rasterizer.Rasterizer) {
	y := 18
	for i, set := range r.Facilities {
		c := facilityPalette[i%len(facilityPalette)]
		for dy := 0; dy < 10; dy++ {
			for dx := 0; dx < 10; dx++ {
				img.Set(10+dx, y+dy-9, c)
			}
		}
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.Black),
			Face: basicfont.Face7x13,
			Dot:  fixed.Point26_6{X: fixed.I(26), Y: fixed.I(y)},
		}
		d.DrawString(fmt.Sprintf("%s (%d)", set.Name(), set.Len()))
		y += 16
	}
}

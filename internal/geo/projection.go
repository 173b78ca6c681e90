package geo

import "math"

const (
	// MaxZoom matches the tile server's deepest level.
	MaxZoom = 19
	// MinZoom is the whole-world view.
	MinZoom = 1

	maxMercatorLat = 85.0511287798

	// A terminal cell covers roughly 8x16 pixels of a 256px tile.
	tileSize   = 256.0
	cellWidth  = 8.0
	cellHeight = 16.0
)

// Projection maps between lat/lng and terminal cells using Web Mercator.
// Center is drawn at the middle cell of a Width x Height grid.
type Projection struct {
	Center LatLng
	Zoom   int
	Width  int
	Height int
}

// ClampZoom bounds z to [MinZoom, MaxZoom].
func ClampZoom(z int) int {
	return max(MinZoom, min(MaxZoom, z))
}

func worldSize(zoom int) float64 {
	return tileSize * math.Exp2(float64(zoom))
}

func project(p LatLng, zoom int) (x, y float64) {
	lat := math.Max(-maxMercatorLat, math.Min(maxMercatorLat, p.Lat))
	size := worldSize(zoom)
	x = (p.Lng + 180) / 360 * size
	sin := math.Sin(toRad(lat))
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * size
	return x, y
}

func unproject(x, y float64, zoom int) LatLng {
	size := worldSize(zoom)
	lng := x/size*360 - 180
	n := math.Pi - 2*math.Pi*y/size
	lat := toDeg(math.Atan(math.Sinh(n)))
	return LatLng{Lat: lat, Lng: lng}
}

// ToCell returns the cell containing p. ok is false when the cell is
// outside the grid.
func (pr Projection) ToCell(p LatLng) (col, row int, ok bool) {
	cx, cy := project(pr.Center, pr.Zoom)
	px, py := project(p, pr.Zoom)

	col = int(math.Floor((px-cx)/cellWidth)) + pr.Width/2
	row = int(math.Floor((py-cy)/cellHeight)) + pr.Height/2
	ok = col >= 0 && col < pr.Width && row >= 0 && row < pr.Height
	return col, row, ok
}

// FromCell returns the coordinate at the center of the given cell.
func (pr Projection) FromCell(col, row int) LatLng {
	cx, cy := project(pr.Center, pr.Zoom)
	px := cx + (float64(col-pr.Width/2)+0.5)*cellWidth
	py := cy + (float64(row-pr.Height/2)+0.5)*cellHeight
	p := unproject(px, py, pr.Zoom)
	p.Lat = math.Max(-90, math.Min(90, p.Lat))
	p.Lng = wrapLng(p.Lng)
	return p
}

// Pan moves the center by whole cells.
func (pr Projection) Pan(dCol, dRow int) Projection {
	cx, cy := project(pr.Center, pr.Zoom)
	size := worldSize(pr.Zoom)
	cy = math.Max(0, math.Min(size, cy+float64(dRow)*cellHeight))
	pr.Center = unproject(cx+float64(dCol)*cellWidth, cy, pr.Zoom)
	pr.Center.Lng = wrapLng(pr.Center.Lng)
	return pr
}

// MetersPerCell approximates the horizontal ground distance of one cell at
// the projection center.
func (pr Projection) MetersPerCell() float64 {
	return cellWidth * 2 * math.Pi * earthRadiusM * math.Cos(toRad(pr.Center.Lat)) / worldSize(pr.Zoom)
}

func wrapLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}

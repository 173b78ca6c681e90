package geometry

import (
	"fmt"

	"github.com/zjrosen/geosift/internal/geo"
	"github.com/zjrosen/geosift/internal/log"
)

// ReplaceMarkers destroys the previous result markers and creates one per
// row with valid lat/lon fields. Row numbers in popups are 1-based and count
// skipped rows. Returns the number of markers created.
func (o *Overlay) ReplaceMarkers(rows []map[string]any) int {
	o.results = o.results[:0]

	for i, row := range rows {
		p, ok := geo.FromAny(row["lat"], row["lon"])
		if !ok {
			continue
		}
		s := newShape(KindMarker)
		s.Geometry.Point = p
		s.Style = MarkerStyle
		s.Popup = fmt.Sprintf("%s\n%s\n%s Row: %d",
			field(row, "name"), field(row, "address"), field(row, "city"), i+1)
		o.results = append(o.results, s)
	}

	log.Debug(log.CatGeom, "result markers replaced", "rows", len(rows), "markers", len(o.results))
	return len(o.results)
}

// ResultMarkers returns the markers created from the latest results.
func (o *Overlay) ResultMarkers() []*Shape {
	return append([]*Shape(nil), o.results...)
}

// CountInRegion returns how many result markers fall inside the drawn
// rectangle or circle. ok is false when no region is drawn.
func (o *Overlay) CountInRegion() (n int, ok bool) {
	region := o.Region()
	if region == nil {
		return 0, false
	}
	for _, m := range o.results {
		if region.Contains(m.Geometry.Point) {
			n++
		}
	}
	return n, true
}

func field(row map[string]any, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

package scheduler

import (
	"math"

	"github.com/alexanderramin/lotplan/internal/domain"
)

const (
	linkStub         = 15.0
	defaultRowHeight = 24.0
)

type Point struct {
	X, Y float64
}

// RouteLink returns the orthogonal polyline drawn for a link between the
// handle at src (on the source block) and the handle at dst (on the target
// block). Each end leaves its handle horizontally, outward from the block,
// for a short stub before turning.
func RouteLink(lt domain.LinkType, src, dst Point, rowHeight float64) []Point {
	if rowHeight <= 0 {
		rowHeight = defaultRowHeight
	}
	clearance := rowHeight + 6
	srcEP, dstEP := lt.Endpoints()

	p2 := Point{X: stubX(src.X, srcEP), Y: src.Y}
	p5 := Point{X: stubX(dst.X, dstEP), Y: dst.Y}
	dy := math.Abs(src.Y - dst.Y)

	switch {
	case dy < 1:
		// Same row: detour above when the route runs forward, below otherwise.
		mid := src.Y + clearance
		if p2.X <= p5.X {
			mid = src.Y - clearance
		}
		return []Point{src, p2, {p2.X, mid}, {p5.X, mid}, p5, dst}
	case dy < 2*clearance:
		return []Point{src, p2, {p2.X, dst.Y}, p5, dst}
	default:
		mid := src.Y - clearance
		if dst.Y > src.Y {
			mid = src.Y + clearance
		}
		return []Point{src, p2, {p2.X, mid}, {p5.X, mid}, p5, dst}
	}
}

func stubX(x float64, ep domain.Endpoint) float64 {
	if ep == domain.EndpointStart {
		return x - linkStub
	}
	return x + linkStub
}

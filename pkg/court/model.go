package court

import "math"

//DefaultNetOffset is the share of the 12-13 center line span the net row sits above the
//center line midpoint. Empirical, tuned on the reference camera.
const DefaultNetOffset = 0.10

//Sidelines is a pair of court side lines, each one going from a north to a south point.
//In image space they converge, so x along each line is interpolated from y.
type Sidelines struct {
	northLeft, southLeft   Point
	northRight, southRight Point
}

//LeftX is the left sideline x at height y. y is not range-checked.
func (s Sidelines) LeftX(y float64) float64 {
	return interpolateX(s.northLeft, s.southLeft, y)
}

//RightX is the right sideline x at height y. y is not range-checked.
func (s Sidelines) RightX(y float64) float64 {
	return interpolateX(s.northRight, s.southRight, y)
}

//YExtent returns the north and south baseline rows
func (s Sidelines) YExtent() (yMin, yMax float64) {
	return s.northLeft.Y, s.southLeft.Y
}

func interpolateX(a, b Point, y float64) float64 {
	return a.X + (b.X-a.X)*(y-a.Y)/(b.Y-a.Y)
}

//Model is the perspective-aware boundary geometry derived from one Calibration.
//It is immutable once built and safe for concurrent use.
type Model struct {
	calibration Calibration
	netOffset   float64
	netY        float64
	singles     Sidelines
	doubles     *Sidelines
}

//Option tunes Build
type Option func(*buildOptions)

type buildOptions struct {
	netOffset float64
}

//WithNetOffset replaces DefaultNetOffset
func WithNetOffset(k float64) Option {
	return func(o *buildOptions) {
		o.netOffset = k
	}
}

func newBuildOptions(opts []Option) buildOptions {
	o := buildOptions{netOffset: DefaultNetOffset}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

//Build validates a calibration and derives its boundary functions and net row.
//Any returned error matches ErrInvalidCalibration.
func Build(c Calibration, opts ...Option) (*Model, error) {
	o := newBuildOptions(opts)
	if math.IsNaN(o.netOffset) || math.IsInf(o.netOffset, 0) {
		return nil, invalid(-1, "net offset %v is not a finite number", o.netOffset)
	}

	if len(c.Points) < PointsNum {
		return nil, invalid(-1, "got %d points, need %d", len(c.Points), PointsNum)
	}

	for _, i := range requiredPoints {
		p, ok := c.At(i)
		if !ok {
			return nil, invalid(i, "is missing")
		}
		if !finite(p) {
			return nil, invalid(i, "has a non finite coordinate (%v, %v)", p.X, p.Y)
		}
	}

	m := &Model{calibration: c.Clone(), netOffset: o.netOffset}
	m.calibration.Points = m.calibration.Points[:PointsNum]

	var err error
	if m.singles, err = sidelines(m.calibration, NorthLeft, SouthLeft, NorthRight, SouthRight); err != nil {
		return nil, err
	}

	if d, err := sidelines(m.calibration, DoublesNorthLeft, DoublesSouthLeft, DoublesNorthRight, DoublesSouthRight); err == nil {
		m.doubles = &d
	}

	north, _ := m.calibration.At(CenterNorth)
	south, _ := m.calibration.At(CenterSouth)
	m.netY = (north.Y+south.Y)/2 - o.netOffset*(south.Y-north.Y)

	return m, nil
}

func sidelines(c Calibration, nl, sl, nr, sr int) (Sidelines, error) {
	idx := []int{nl, sl, nr, sr}
	pts := make([]Point, len(idx))
	for k, i := range idx {
		p, ok := c.At(i)
		if !ok {
			return Sidelines{}, invalid(i, "is missing")
		}
		if !finite(p) {
			return Sidelines{}, invalid(i, "has a non finite coordinate (%v, %v)", p.X, p.Y)
		}
		pts[k] = p
	}

	if pts[0].Y == pts[1].Y {
		return Sidelines{}, invalid(sl, "has the same y as point %d (%v), sideline has no vertical span", nl, pts[0].Y)
	}
	if pts[2].Y == pts[3].Y {
		return Sidelines{}, invalid(sr, "has the same y as point %d (%v), sideline has no vertical span", nr, pts[2].Y)
	}

	return Sidelines{northLeft: pts[0], southLeft: pts[1], northRight: pts[2], southRight: pts[3]}, nil
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

//LeftBoundaryX interpolates the left singles sideline (points 4 to 5) at height y
func (m *Model) LeftBoundaryX(y float64) float64 {
	return m.singles.LeftX(y)
}

//RightBoundaryX interpolates the right singles sideline (points 6 to 7) at height y
func (m *Model) RightBoundaryX(y float64) float64 {
	return m.singles.RightX(y)
}

//NetY is the derived row of the net
func (m *Model) NetY() float64 {
	return m.netY
}

//SinglesYExtent returns the north (Y4) and south (Y5) baseline rows
func (m *Model) SinglesYExtent() (yMin, yMax float64) {
	return m.singles.YExtent()
}

//Singles returns the singles sidelines
func (m *Model) Singles() Sidelines {
	return m.singles
}

//Doubles returns the outer doubles sidelines (points 0 to 2 and 1 to 3), ok is false when
//the calibration does not place them.
func (m *Model) Doubles() (Sidelines, bool) {
	if m.doubles == nil {
		return Sidelines{}, false
	}
	return *m.doubles, true
}

func (m *Model) NetOffset() float64 {
	return m.netOffset
}

//Calibration returns a copy of the calibration the model was built from
func (m *Model) Calibration() Calibration {
	return m.calibration.Clone()
}

package court

import (
	"crypto/sha1"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

//PointsNum is the number of calibrated court keypoints
const PointsNum = 14

//Keypoint indexes, following the court detector's output order.
//North is the top of the frame (smaller y), south is the bottom.
const (
	DoublesNorthLeft  = 0
	DoublesNorthRight = 1
	DoublesSouthLeft  = 2
	DoublesSouthRight = 3
	NorthLeft         = 4 //singles baseline, north-left corner
	SouthLeft         = 5
	NorthRight        = 6
	SouthRight        = 7
	ServiceNorthLeft  = 8
	ServiceNorthRight = 9
	ServiceSouthLeft  = 10
	ServiceSouthRight = 11
	CenterNorth       = 12 //center line, north end
	CenterSouth       = 13
)

//requiredPoints are the keypoints without which no decision can be made
var requiredPoints = []int{NorthLeft, SouthLeft, NorthRight, SouthRight, CenterNorth, CenterSouth}

//Point is a pixel coordinate on the frame
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

//Calibration holds the 14 court keypoints of one camera setup. A nil entry is a point the
//court detector could not place.
type Calibration struct {
	Points []*Point `json:"points" yaml:"points"`
}

//NewCalibration copies given points into a new Calibration
func NewCalibration(points ...Point) Calibration {
	c := Calibration{Points: make([]*Point, len(points))}
	for i := range points {
		p := points[i]
		c.Points[i] = &p
	}
	return c
}

//At returns the point at index i, ok is false when it's missing
func (c Calibration) At(i int) (Point, bool) {
	if i < 0 || i >= len(c.Points) || c.Points[i] == nil {
		return Point{}, false
	}
	return *c.Points[i], true
}

//Clone returns a deep copy, so the result shares no pointers with c
func (c Calibration) Clone() Calibration {
	out := Calibration{Points: make([]*Point, len(c.Points))}
	for i, p := range c.Points {
		if p != nil {
			cp := *p
			out.Points[i] = &cp
		}
	}
	return out
}

//Unstretch snaps the sideline keypoints onto the x of their south (bottom) counterpart, so
//the singles and doubles sidelines become vertical in image space. c is left untouched.
//Snaps whose source point is missing are skipped.
func Unstretch(c Calibration) Calibration {
	out := c.Clone()
	snap := func(dst, src int) {
		if dst >= len(out.Points) || src >= len(out.Points) {
			return
		}
		if out.Points[dst] == nil || out.Points[src] == nil {
			return
		}
		out.Points[dst].X = out.Points[src].X
	}

	snap(DoublesNorthLeft, DoublesSouthLeft)
	snap(DoublesNorthRight, DoublesSouthRight)
	snap(NorthLeft, SouthLeft)
	snap(ServiceNorthLeft, SouthLeft)
	snap(ServiceSouthLeft, SouthLeft)
	snap(NorthRight, SouthRight)
	snap(ServiceNorthRight, SouthRight)
	snap(ServiceSouthRight, SouthRight)
	snap(CenterNorth, CenterSouth)

	return out
}

//Key builds the cache key of a calibration and a net offset coefficient. Equal contents
//always produce the same key, whatever the pointers are.
func Key(c Calibration, netOffset float64) string {
	parts := make([]string, 0, PointsNum+1)
	for i := 0; i < PointsNum; i++ {
		p, ok := c.At(i)
		if !ok {
			parts = append(parts, "-")
			continue
		}
		parts = append(parts, canonicalFloat(p.X)+","+canonicalFloat(p.Y))
	}
	parts = append(parts, canonicalFloat(netOffset))

	h := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

func canonicalFloat(f float64) string {
	if f == 0 {
		f = 0 //folds -0 into 0
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

//Package fault judges a ball bounce against the court lines.
//
//All comparisons are exact and inclusive: a bounce on a sideline, a baseline or the net
//row is on the court. A bounce on the net row counts for the north half.
package fault

import (
	"errors"
	"fmt"

	"github.com/chenBenjamin97/tennis-line-judge/pkg/court"
)

//ErrNoDoubles is returned by EvaluateDoubles when the calibration lacks the doubles corners
var ErrNoDoubles = errors.New("court model has no doubles sidelines")

//Verdict is the outcome of one bounce, with what it was computed from
type Verdict struct {
	Ball          court.Point `json:"ball"`
	Player        Player      `json:"player"`
	In            bool        `json:"in"`
	NorthSide     bool        `json:"northSide"`
	InHalf        bool        `json:"inHalf"`
	InFullSingles bool        `json:"inFullSingles"`
	LeftX         float64     `json:"leftX"`
	RightX        float64     `json:"rightX"`
	NetY          float64     `json:"netY"`
}

//Decide reports whether ball is a good bounce for player on the singles court
func Decide(model *court.Model, ball court.Point, player Player) (bool, error) {
	v, err := Evaluate(model, ball, player)
	if err != nil {
		return false, err
	}
	return v.In, nil
}

//Evaluate is Decide keeping the intermediate results, for callers that log them
func Evaluate(model *court.Model, ball court.Point, player Player) (Verdict, error) {
	if model == nil {
		return Verdict{}, fmt.Errorf("Evaluate: nil model, got '%w'", &court.CalibrationError{Index: -1, Reason: "no court model"})
	}
	return judge(model.Singles(), model.NetY(), ball, player)
}

//EvaluateDoubles applies the same rules as Evaluate inside the outer doubles lines
func EvaluateDoubles(model *court.Model, ball court.Point, player Player) (Verdict, error) {
	if model == nil {
		return Verdict{}, fmt.Errorf("EvaluateDoubles: nil model, got '%w'", &court.CalibrationError{Index: -1, Reason: "no court model"})
	}
	lines, ok := model.Doubles()
	if !ok {
		return Verdict{}, ErrNoDoubles
	}
	return judge(lines, model.NetY(), ball, player)
}

func judge(lines court.Sidelines, netY float64, ball court.Point, player Player) (Verdict, error) {
	if !player.Valid() {
		return Verdict{}, &PlayerError{Value: player.String()}
	}

	v := Verdict{Ball: ball, Player: player, NetY: netY}
	v.LeftX = lines.LeftX(ball.Y)
	v.RightX = lines.RightX(ball.Y)
	yMin, yMax := lines.YExtent()

	v.NorthSide = ball.Y <= netY
	inWidth := v.LeftX <= ball.X && ball.X <= v.RightX

	if v.NorthSide {
		v.InHalf = inWidth && yMin <= ball.Y && ball.Y <= netY
	} else {
		v.InHalf = inWidth && netY <= ball.Y && ball.Y <= yMax
	}
	v.InFullSingles = inWidth && yMin <= ball.Y && ball.Y <= yMax

	switch player {
	case All:
		v.In = v.InFullSingles
	case BottomPlayer:
		//a bounce in your own half is a fault
		v.In = v.NorthSide && v.InHalf
	case TopPlayer:
		v.In = !v.NorthSide && v.InHalf
	}

	return v, nil
}

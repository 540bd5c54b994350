package video

import "github.com/chenBenjamin97/tennis-line-judge/pkg/court"

//ballDetection is one ball bounding box center found by the ball tracker
type ballDetection struct {
	BallX      float64 `json:"Ball_X"`
	BallY      float64 `json:"Ball_Y"`
	Confidence float64 `json:"confidence"`
}

//frameRecord is one line of the ball tracker's output
type frameRecord struct {
	Frame       int             `json:"frame"`
	FPS         float64         `json:"fps"`
	TotalFrames int             `json:"total_frames"`
	NoDetection *bool           `json:"no_detection"`
	Detections  []ballDetection `json:"detections"`
}

//hasBall is false when the tracker flagged the frame as empty or did not say
func (r *frameRecord) hasBall() bool {
	return r.NoDetection != nil && !*r.NoDetection && len(r.Detections) > 0
}

//FrameBall is the ball position the tracker kept for a frame
type FrameBall struct {
	Frame      int
	Ball       court.Point
	Confidence float64
}

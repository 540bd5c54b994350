package video

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chenBenjamin97/tennis-line-judge/pkg/court"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/logger"
	"go.uber.org/zap"
)

//maxLineSize bounds a single tracker line, detections lists are short
const maxLineSize = 1 << 20

//scanRecords reads the ball tracker's JSON lines output and calls fn for every record it
//could decode, until fn returns false. Broken lines are logged and skipped, same as the
//tracker's own log prints.
func scanRecords(r io.Reader, fn func(rec *frameRecord) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "{") { //not a record
			continue
		}

		rec := frameRecord{}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			logger.Log().Warn("scanRecords: skipping malformed line", zap.Int("line", lineNum), zap.Error(err))
			continue
		}

		if !fn(&rec) {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanRecords: Error reading tracker output, got '%w'", err)
	}
	return nil
}

//BallAt returns the ball position of given frame: the first detection of the first record of
//this frame which has one. found is false when the tracker saw no ball at this frame.
func BallAt(r io.Reader, frame int) (ball court.Point, found bool, err error) {
	err = scanRecords(r, func(rec *frameRecord) bool {
		if rec.Frame != frame || !rec.hasBall() {
			return true
		}
		det := rec.Detections[0]
		ball = court.Point{X: det.BallX, Y: det.BallY}
		found = true
		return false
	})
	return ball, found, err
}

//BallAtFile is BallAt over a tracker output file
func BallAtFile(filePath string, frame int) (court.Point, bool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return court.Point{}, false, fmt.Errorf("BallAtFile: Could not open '%s', got '%w'", filePath, err)
	}
	defer f.Close()

	return BallAt(f, frame)
}

//ReadDetections returns every frame where the tracker found the ball, in file order
func ReadDetections(r io.Reader) ([]FrameBall, error) {
	balls := make([]FrameBall, 0)
	err := scanRecords(r, func(rec *frameRecord) bool {
		if rec.hasBall() {
			det := rec.Detections[0]
			balls = append(balls, FrameBall{
				Frame:      rec.Frame,
				Ball:       court.Point{X: det.BallX, Y: det.BallY},
				Confidence: det.Confidence,
			})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return balls, nil
}

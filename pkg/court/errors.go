package court

import (
	"errors"
	"fmt"
)

//ErrInvalidCalibration is matched by every error returned from Build
var ErrInvalidCalibration = errors.New("invalid court calibration")

//CalibrationError tells which keypoint made a calibration unusable. Index is -1 when the
//problem is not tied to a single point (too few points, nil model).
type CalibrationError struct {
	Index  int
	Reason string
}

func (e *CalibrationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s", ErrInvalidCalibration, e.Reason)
	}
	return fmt.Sprintf("%v: point %d %s", ErrInvalidCalibration, e.Index, e.Reason)
}

func (e *CalibrationError) Is(target error) bool {
	return target == ErrInvalidCalibration
}

func invalid(index int, format string, args ...interface{}) error {
	return &CalibrationError{Index: index, Reason: fmt.Sprintf(format, args...)}
}

package utils

import (
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
)

//ErrNoCalibration is returned when a calibration name does not match any file
var ErrNoCalibration = errors.New("no such calibration")

//calibrationExts are the file extensions a calibration may be stored with
var calibrationExts = []string{".json", ".yaml", ".yml"}

//InSlice returns true if given string appears in given slice
func InSlice(lookingFor string, slice []string) bool {
	for _, s := range slice {
		if s == lookingFor {
			return true
		}
	}

	return false
}

//ListDir returns a list of files/ directories in given path
func ListDir(path string) ([]string, error) {
	names := make([]string, 0)
	if files, err := ioutil.ReadDir(path); err != nil {
		return nil, fmt.Errorf("ListDir: Error, got '%v'", err)
	} else {
		for _, f := range files {
			names = append(names, f.Name())
		}
	}

	return names, nil
}

//ListCalibrations returns the names, without extension, of the calibration files in given path
func ListCalibrations(path string) ([]string, error) {
	files, err := ListDir(path)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f))
		if !InSlice(ext, calibrationExts) {
			continue
		}
		if name := strings.TrimSuffix(f, filepath.Ext(f)); !InSlice(name, names) {
			names = append(names, name)
		}
	}

	return names, nil
}

//CalibrationPath resolves a calibration name to its file in given directory. Names are plain
//file names, anything that could walk out of dir is refused.
func CalibrationPath(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("CalibrationPath: Invalid calibration name '%s', got '%w'", name, ErrNoCalibration)
	}

	files, err := ListDir(dir)
	if err != nil {
		return "", err
	}
	for _, ext := range calibrationExts {
		if InSlice(name+ext, files) {
			return filepath.Join(dir, name+ext), nil
		}
	}

	return "", fmt.Errorf("CalibrationPath: '%s', got '%w'", name, ErrNoCalibration)
}

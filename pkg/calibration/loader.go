//Package calibration reads court keypoints written by the court detector.
package calibration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/chenBenjamin97/tennis-line-judge/pkg/court"
	"github.com/go-resty/resty/v2"
	"gopkg.in/yaml.v3"
)

//Supported payload formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

//ErrMissingPoints is returned when a payload has no "points" list
var ErrMissingPoints = errors.New("calibration payload has no points")

//payload tells an absent "points" key apart from an empty list
type payload struct {
	Points *[]*court.Point `json:"points" yaml:"points"`
}

//Parse decodes a calibration payload. Points may be null, Build decides if they are needed.
func Parse(data []byte, format string) (court.Calibration, error) {
	var p payload

	switch strings.ToLower(format) {
	case FormatJSON, "":
		if err := json.Unmarshal(data, &p); err != nil {
			return court.Calibration{}, fmt.Errorf("Parse: Could not decode json, got '%w'", err)
		}
	case FormatYAML, "yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return court.Calibration{}, fmt.Errorf("Parse: Could not decode yaml, got '%w'", err)
		}
	default:
		return court.Calibration{}, fmt.Errorf("Parse: Unsupported format '%s'", format)
	}

	if p.Points == nil {
		return court.Calibration{}, ErrMissingPoints
	}
	return court.Calibration{Points: *p.Points}, nil
}

//FormatOf guesses the payload format from a file name, json when unknown
func FormatOf(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

//ReadFile returns the raw content of a calibration file together with its format
func ReadFile(filePath string) ([]byte, string, error) {
	data, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("ReadFile: Could not read '%s', got '%w'", filePath, err)
	}
	return data, FormatOf(filePath), nil
}

//LoadFile reads and parses a calibration file
func LoadFile(filePath string) (court.Calibration, error) {
	data, format, err := ReadFile(filePath)
	if err != nil {
		return court.Calibration{}, err
	}
	return Parse(data, format)
}

//Fetcher downloads calibrations published over HTTP, e.g. by the court detection job
type Fetcher struct {
	client *resty.Client
}

//NewFetcher returns a Fetcher that gives up after timeout and retries failed requests retries times
func NewFetcher(timeout time.Duration, retries int) *Fetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(100*time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		}).
		SetHeader("Accept", "application/json, application/yaml")
	return &Fetcher{client: client}
}

//Fetch downloads and parses the calibration at rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (court.Calibration, error) {
	data, format, err := f.FetchRaw(ctx, rawURL)
	if err != nil {
		return court.Calibration{}, err
	}
	return Parse(data, format)
}

//FetchRaw downloads the payload at rawURL without parsing it
func (f *Fetcher) FetchRaw(ctx context.Context, rawURL string) ([]byte, string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("Fetch: Request to '%s' failed, got '%w'", rawURL, err)
	}
	if resp.IsError() {
		return nil, "", fmt.Errorf("Fetch: '%s' answered %s", rawURL, resp.Status())
	}
	return resp.Body(), formatOfResponse(rawURL, resp.Header().Get("Content-Type")), nil
}

func formatOfResponse(rawURL, contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if strings.Contains(mediaType, "yaml") {
			return FormatYAML
		}
		if strings.Contains(mediaType, "json") {
			return FormatJSON
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		return FormatOf(path.Base(u.Path))
	}
	return FormatJSON
}

//IsRemote reports whether source is an http(s) URL rather than a file path
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

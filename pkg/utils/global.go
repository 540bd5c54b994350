package utils

import (
	"time"

	"github.com/chenBenjamin97/tennis-line-judge/pkg/court"
	"github.com/spf13/viper"
)

//Configuration keys, as found in config.yaml
const (
	KeyHTTPPort        = "http.port"
	KeyCalibrationsDir = "directory.calibrations"
	KeyNetOffset       = "court.net_offset"
	KeyUnstretch       = "court.unstretch"
	KeyDefaultPlayer   = "judge.default_player"
	KeyLogMode         = "log.mode"
	KeyFetchTimeout    = "fetch.timeout"
	KeyFetchRetries    = "fetch.retries"
	KeyTerrain         = "terrain"
	KeyBalls           = "balle"
	KeyFrame           = "frame"
	KeyPlayer          = "player"
	KeyServe           = "serve"
	KeyDoubles         = "doubles"
	KeyRally           = "rally"
)

//DefaultTerrainPath is where the court detection job writes its keypoints
const DefaultTerrainPath = "./output/terrain/terrain_points.json"

//DefaultBallsPath is where the ball tracker writes its detections
const DefaultBallsPath = "./output/balle/balle.jsonl"

//NoFrame marks a run without a frame to judge
const NoFrame = -1

//SetDefaults registers every default value, config.yaml and flags override them
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyHTTPPort, "8080")
	v.SetDefault(KeyCalibrationsDir, "./output/terrain")
	v.SetDefault(KeyNetOffset, court.DefaultNetOffset)
	v.SetDefault(KeyUnstretch, false)
	v.SetDefault(KeyDefaultPlayer, "all")
	v.SetDefault(KeyLogMode, "production")
	v.SetDefault(KeyFetchTimeout, 5*time.Second)
	v.SetDefault(KeyFetchRetries, 2)
	v.SetDefault(KeyTerrain, DefaultTerrainPath)
	v.SetDefault(KeyBalls, DefaultBallsPath)
	v.SetDefault(KeyFrame, NoFrame)
}

//CourtOptions returns the court model options set in configuration
func CourtOptions(v *viper.Viper) []court.Option {
	return []court.Option{court.WithNetOffset(v.GetFloat64(KeyNetOffset))}
}

//PrepareCalibration applies the configured preprocessing before a model is built
func PrepareCalibration(v *viper.Viper, c court.Calibration) court.Calibration {
	if v.GetBool(KeyUnstretch) {
		return court.Unstretch(c)
	}
	return c
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chenBenjamin97/tennis-line-judge/pkg/api"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/calibration"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/court"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/fault"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/logger"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/metrics"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/utils"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/video"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

//errNoBall is returned when the tracker has nothing for the requested frame
var errNoBall = errors.New("no ball detected")

func main() {
	flags := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	configPath := flags.String("config", "", "config file, ./config.yaml when empty")
	flags.String(utils.KeyTerrain, utils.DefaultTerrainPath, "court keypoints file or http(s) URL")
	flags.String(utils.KeyBalls, utils.DefaultBallsPath, "ball tracker output (jsonl)")
	flags.Int(utils.KeyFrame, utils.NoFrame, "frame of the bounce to judge")
	flags.String(utils.KeyPlayer, "", "player who hit the ball: bottom_player, top_player or all")
	flags.Bool(utils.KeyServe, false, "serve the HTTP API even when --frame is given")
	flags.Bool(utils.KeyDoubles, false, "judge against the outer doubles sidelines")
	flags.Bool(utils.KeyRally, false, "judge every frame the ball tracker found the ball in")
	flags.Parse(os.Args[1:])

	v := viper.GetViper()
	utils.SetDefaults(v)
	if err := v.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Could not bind flags, got '%v'\n", err)
		os.Exit(1)
	}

	if err := readConfig(v, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Could not read config file, got '%v'\n", err)
		os.Exit(1)
	}

	if err := logger.Init(v.GetString(utils.KeyLogMode)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Could not init logger, got '%v'\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	rally := v.GetBool(utils.KeyRally)
	if (rally || v.GetInt(utils.KeyFrame) != utils.NoFrame) && !v.GetBool(utils.KeyServe) {
		var err error
		if rally {
			err = judgeRally(context.Background(), v, os.Stdout)
		} else {
			err = judgeFrame(context.Background(), v, os.Stdout)
		}
		switch {
		case err == nil:
		case errors.Is(err, errNoBall) && rally:
			fmt.Printf("No detection in %s\n", v.GetString(utils.KeyBalls))
		case errors.Is(err, errNoBall):
			fmt.Printf("No detection for frame %d\n", v.GetInt(utils.KeyFrame))
		case errors.Is(err, court.ErrInvalidCalibration):
			logger.Log().Error("Court calibration is unusable, the camera must be calibrated again", zap.Error(err))
			logger.Sync()
			os.Exit(1)
		default:
			logger.Log().Error("Could not judge frame", zap.Error(err))
			logger.Sync()
			os.Exit(1)
		}
		return
	}

	if v.GetString(utils.KeyLogMode) != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.SetRouter(v, metrics.New())
	logger.Log().Info("Serving line calls",
		zap.String("port", v.GetString(utils.KeyHTTPPort)),
		zap.String("calibrations", v.GetString(utils.KeyCalibrationsDir)),
		zap.Float64("netOffset", v.GetFloat64(utils.KeyNetOffset)),
	)
	if err := r.Run(":" + v.GetString(utils.KeyHTTPPort)); err != nil {
		logger.Log().Fatal("Server stopped", zap.Error(err))
	}
}

//readConfig loads the config file. Without an explicit path a missing ./config.yaml is fine,
//defaults and flags are enough.
func readConfig(v *viper.Viper, configPath string) error {
	if configPath != "" {
		v.SetConfigFile(configPath)
		return v.ReadInConfig()
	}

	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

//judge holds what a CLI run needs to call bounces
type judge struct {
	model   *court.Model
	player  fault.Player
	doubles bool
}

func newJudge(ctx context.Context, v *viper.Viper) (*judge, error) {
	tag := v.GetString(utils.KeyPlayer)
	if tag == "" {
		tag = v.GetString(utils.KeyDefaultPlayer)
	}
	player, err := fault.ParsePlayer(tag)
	if err != nil {
		return nil, err
	}

	cal, err := loadCalibration(ctx, v)
	if err != nil {
		return nil, err
	}
	model, err := court.Build(utils.PrepareCalibration(v, cal), utils.CourtOptions(v)...)
	if err != nil {
		return nil, err
	}

	return &judge{model: model, player: player, doubles: v.GetBool(utils.KeyDoubles)}, nil
}

func (j *judge) evaluate(frame int, ball court.Point) (fault.Verdict, error) {
	evaluate := fault.Evaluate
	if j.doubles {
		evaluate = fault.EvaluateDoubles
	}
	verdict, err := evaluate(j.model, ball, j.player)
	if err != nil {
		return verdict, err
	}

	logger.Log().Debug("Judged bounce",
		zap.Int("frame", frame),
		zap.Stringer("player", j.player),
		zap.Bool("doubles", j.doubles),
		zap.Float64("leftX", verdict.LeftX),
		zap.Float64("rightX", verdict.RightX),
		zap.Float64("netY", verdict.NetY),
		zap.Bool("northSide", verdict.NorthSide),
	)
	return verdict, nil
}

func printVerdict(out io.Writer, frame int, verdict fault.Verdict) {
	fmt.Fprintf(out, "Frame %d : x=%v, y=%v\n", frame, verdict.Ball.X, verdict.Ball.Y)
	if verdict.In {
		fmt.Fprintln(out, "Ball IN!")
	} else {
		fmt.Fprintln(out, "Fault!")
	}
}

//judgeFrame judges the bounce the ball tracker saw at the configured frame and writes the
//verdict to out
func judgeFrame(ctx context.Context, v *viper.Viper, out io.Writer) error {
	j, err := newJudge(ctx, v)
	if err != nil {
		return err
	}

	frame := v.GetInt(utils.KeyFrame)
	ball, found, err := video.BallAtFile(v.GetString(utils.KeyBalls), frame)
	if err != nil {
		return err
	}
	if !found {
		return errNoBall
	}

	verdict, err := j.evaluate(frame, ball)
	if err != nil {
		return err
	}
	printVerdict(out, frame, verdict)
	return nil
}

//judgeRally judges the ball position of every frame the tracker found it in, in file order
func judgeRally(ctx context.Context, v *viper.Viper, out io.Writer) error {
	j, err := newJudge(ctx, v)
	if err != nil {
		return err
	}

	ballsPath := v.GetString(utils.KeyBalls)
	f, err := os.Open(ballsPath)
	if err != nil {
		return fmt.Errorf("judgeRally: Could not open '%s', got '%w'", ballsPath, err)
	}
	defer f.Close()

	balls, err := video.ReadDetections(f)
	if err != nil {
		return err
	}
	if len(balls) == 0 {
		return errNoBall
	}

	faults := 0
	for _, b := range balls {
		verdict, err := j.evaluate(b.Frame, b.Ball)
		if err != nil {
			return err
		}
		if !verdict.In {
			faults++
		}
		printVerdict(out, b.Frame, verdict)
	}

	logger.Log().Info("Judged rally", zap.Int("frames", len(balls)), zap.Int("faults", faults))
	return nil
}

func loadCalibration(ctx context.Context, v *viper.Viper) (court.Calibration, error) {
	source := v.GetString(utils.KeyTerrain)
	if calibration.IsRemote(source) {
		f := calibration.NewFetcher(v.GetDuration(utils.KeyFetchTimeout), v.GetInt(utils.KeyFetchRetries))
		return f.Fetch(ctx, source)
	}
	return calibration.LoadFile(source)
}

package api

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/chenBenjamin97/tennis-line-judge/pkg/calibration"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/court"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/fault"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/logger"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/metrics"
	"github.com/chenBenjamin97/tennis-line-judge/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var errMissingBall = errors.New("ball position needs both x and y")

//RequestIDHeader carries the id every request is logged with
const RequestIDHeader = "X-Request-ID"

type decideRequest struct {
	Calibration string   `json:"calibration" binding:"required"`
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	Player      string   `json:"player"`
	Doubles     bool     `json:"doubles"`
}

type decideResponse struct {
	RequestID   string `json:"requestId"`
	Calibration string `json:"calibration"`
	fault.Verdict
}

type courtResponse struct {
	Name      string  `json:"name"`
	NetY      float64 `json:"netY"`
	NetOffset float64 `json:"netOffset"`
	YMin      float64 `json:"yMin"`
	YMax      float64 `json:"yMax"`
	Doubles   bool    `json:"doubles"`
}

type errorResponse struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error"`
}

//server holds what handlers share. Models are cached by the content of their calibration
//file, so an edited file is picked up on the next request.
type server struct {
	conf    *viper.Viper
	models  *court.Cache
	metrics *metrics.Recorder
}

//SetRouter builds the HTTP API over the calibrations directory of conf
func SetRouter(conf *viper.Viper, rec *metrics.Recorder) *gin.Engine {
	s := &server{conf: conf, models: court.NewCache(rec), metrics: rec}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())

	r.GET("/metrics", gin.WrapH(rec.Handler()))

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/Calibrations", func(ctx *gin.Context) {
		if names, err := utils.ListCalibrations(conf.GetString(utils.KeyCalibrationsDir)); err != nil {
			abort(ctx, http.StatusInternalServerError, err)
		} else {
			ctx.JSON(http.StatusOK, names)
		}
	})

	apiRoutes.GET("/Court", func(ctx *gin.Context) {
		name := ctx.Query("name")
		if name == "" {
			ctx.Status(http.StatusNotAcceptable) //missing url parameter
			return
		}

		m, err := s.model(name)
		if err != nil {
			abort(ctx, statusOf(err), err)
			return
		}

		yMin, yMax := m.SinglesYExtent()
		_, doubles := m.Doubles()
		ctx.JSON(http.StatusOK, courtResponse{
			Name:      name,
			NetY:      m.NetY(),
			NetOffset: m.NetOffset(),
			YMin:      yMin,
			YMax:      yMax,
			Doubles:   doubles,
		})
	})

	apiRoutes.POST("/Decide", func(ctx *gin.Context) {
		var req decideRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			abort(ctx, http.StatusBadRequest, err)
			return
		}
		if req.X == nil || req.Y == nil {
			abort(ctx, http.StatusBadRequest, errMissingBall)
			return
		}

		tag := req.Player
		if tag == "" {
			tag = conf.GetString(utils.KeyDefaultPlayer)
		}
		player, err := fault.ParsePlayer(tag)
		if err != nil {
			abort(ctx, http.StatusBadRequest, err)
			return
		}

		m, err := s.model(req.Calibration)
		if err != nil {
			abort(ctx, statusOf(err), err)
			return
		}

		evaluate := fault.Evaluate
		if req.Doubles {
			evaluate = fault.EvaluateDoubles
		}
		verdict, err := evaluate(m, court.Point{X: *req.X, Y: *req.Y}, player)
		if err != nil {
			abort(ctx, statusOf(err), err)
			return
		}
		s.metrics.Decision(player.String(), verdict.In)

		logger.Log().Info("api/Decide: judged bounce",
			zap.String("requestId", ctx.GetString(RequestIDHeader)),
			zap.String("calibration", req.Calibration),
			zap.Float64("x", verdict.Ball.X),
			zap.Float64("y", verdict.Ball.Y),
			zap.Stringer("player", player),
			zap.Bool("doubles", req.Doubles),
			zap.Bool("northSide", verdict.NorthSide),
			zap.Bool("in", verdict.In),
		)

		ctx.JSON(http.StatusOK, decideResponse{
			RequestID:   ctx.GetString(RequestIDHeader),
			Calibration: req.Calibration,
			Verdict:     verdict,
		})
	})

	return r
}

//model returns the court model of the named calibration file, parsing it only when its
//content was not seen before
func (s *server) model(name string) (*court.Model, error) {
	filePath, err := utils.CalibrationPath(s.conf.GetString(utils.KeyCalibrationsDir), name)
	if err != nil {
		return nil, err
	}

	data, format, err := calibration.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	opts := utils.CourtOptions(s.conf)
	return s.models.Load(s.rawKey(data), func() (*court.Model, error) {
		cal, err := calibration.Parse(data, format)
		if err != nil {
			return nil, err
		}
		return court.Build(utils.PrepareCalibration(s.conf, cal), opts...)
	})
}

func (s *server) rawKey(data []byte) string {
	h := sha1.New()
	h.Write(data)
	h.Write([]byte("|" + strconv.FormatFloat(s.conf.GetFloat64(utils.KeyNetOffset), 'g', -1, 64)))
	h.Write([]byte("|" + strconv.FormatBool(s.conf.GetBool(utils.KeyUnstretch))))
	return hex.EncodeToString(h.Sum(nil))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, utils.ErrNoCalibration):
		return http.StatusNotFound
	case errors.Is(err, fault.ErrInvalidPlayer):
		return http.StatusBadRequest
	case errors.Is(err, court.ErrInvalidCalibration), errors.Is(err, calibration.ErrMissingPoints),
		errors.Is(err, fault.ErrNoDoubles):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abort(ctx *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Log().Error("api: request failed", zap.String("requestId", ctx.GetString(RequestIDHeader)), zap.Error(err))
	}
	ctx.AbortWithStatusJSON(status, errorResponse{RequestID: ctx.GetString(RequestIDHeader), Error: err.Error()})
}

//requestID keeps the caller's X-Request-ID or makes a new one
func requestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		ctx.Set(RequestIDHeader, id)
		ctx.Header(RequestIDHeader, id)
		ctx.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logger.Log().Info("api: request",
			zap.String("requestId", ctx.GetString(RequestIDHeader)),
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

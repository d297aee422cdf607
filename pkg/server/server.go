package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/internal/config"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/board"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/services"
	"github.com/typeWolffo/zpi-wsiz/pkg/db"
	"github.com/typeWolffo/zpi-wsiz/pkg/utils/timeparse"
)

const (
	dayLayout       = "2006-01-02"
	shutdownTimeout = 10 * time.Second
)

// Options holds the collaborators of a Server
type Options struct {
	Store     services.BoardStore
	Projector schedule.SchedulerProjector
	// Notifier receives every settled mutation, in addition to the response
	Notifier board.Notifier
	Config   *config.Config
	Location *time.Location
	Logger   *zap.Logger
	Now      func() time.Time
}

// Server exposes the board over HTTP. Each request opens its own board for
// the requested day and waits for its mutations to settle before replying.
type Server struct {
	store     services.BoardStore
	projector schedule.SchedulerProjector
	notifier  board.Notifier
	cfg       *config.Config
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a Server
func New(opts Options) *Server {
	s := &Server{
		store:     opts.Store,
		projector: opts.Projector,
		notifier:  opts.Notifier,
		cfg:       opts.Config,
		loc:       opts.Location,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if s.cfg == nil {
		s.cfg = &config.Config{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handler returns the gin engine serving the board API
func (s *Server) Handler() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.RegisterRoutes(router)
	return router
}

// RegisterRoutes mounts the board API under /api/board
func (s *Server) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/board")
	{
		api.GET("", s.getBoard)
		api.GET("/overlaps", s.getOverlaps)
		api.GET("/timeslots", s.getTimeSlots)
		api.POST("/relocate", s.relocate)
		api.POST("/resize", s.resize)
		api.POST("/appointments", s.createAppointment)
		api.POST("/distribute", s.distribute)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Board API listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to serve board API: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down board API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down board API: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		s.logger.Debug("HTTP request",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// recorder keeps the notifications raised while a request's board is open
type recorder struct {
	mu    sync.Mutex
	items []board.Notification
}

func (r *recorder) Notify(n board.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recorder) failure() (board.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.Level == board.LevelError {
			return n, true
		}
	}
	return board.Notification{}, false
}

// withBoard opens a board for day, runs fn and waits for its mutations.
// A failed mutation is reported instead of fn's result.
func (s *Server) withBoard(ctx *gin.Context, dayParam string, fn func(b *board.Board) (any, error)) {
	day, err := services.ParseDay(s.cfg, dayParam, s.now(), s.loc)
	if err != nil {
		s.fail(ctx, http.StatusBadRequest, err.Error())
		return
	}

	rec := &recorder{}
	b, err := services.OpenBoard(ctx.Request.Context(), s.store, s.logger, services.BoardOptions{
		Day:       day,
		Projector: s.projector,
		Notifier:  board.Tee(rec, s.notifier),
	})
	if err != nil {
		s.logger.Error("Failed to open board", zap.Error(err))
		s.fail(ctx, http.StatusBadGateway, "Failed to load board")
		return
	}
	defer b.Close()

	data, err := fn(b)
	if err != nil {
		s.fail(ctx, statusFor(err), err.Error())
		return
	}
	b.Wait()

	if n, failed := rec.failure(); failed {
		status := http.StatusBadGateway
		if errors.Is(n.Err, db.ErrNotFound) {
			status = http.StatusNotFound
		}
		s.fail(ctx, status, n.Message)
		return
	}

	ctx.JSON(http.StatusOK, envelope{Data: data})
}

func (s *Server) fail(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, errorBody{Message: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, board.ErrUnknownAppointment), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrGestureInProgress), errors.Is(err, board.ErrDuplicateAppointment):
		return http.StatusConflict
	case errors.Is(err, board.ErrNoMechanics):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) getBoard(ctx *gin.Context) {
	s.withBoard(ctx, ctx.Query("day"), func(b *board.Board) (any, error) {
		return toBoardDTO(b), nil
	})
}

func (s *Server) getOverlaps(ctx *gin.Context) {
	s.withBoard(ctx, ctx.Query("day"), func(b *board.Board) (any, error) {
		return toOverlapDTOs(b.CheckInvariant()), nil
	})
}

func (s *Server) getTimeSlots(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, envelope{Data: toTimeSlotDTOs(board.TimeSlots())})
}

func (s *Server) relocate(ctx *gin.Context) {
	var req relocateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.fail(ctx, http.StatusBadRequest, err.Error())
		return
	}
	start, err := timeparse.TimeOfDay(req.Start)
	if err != nil {
		s.fail(ctx, http.StatusBadRequest, err.Error())
		return
	}

	s.withBoard(ctx, req.Day, func(b *board.Board) (any, error) {
		result, err := services.MoveAppointment(b, req.AppointmentID, req.MechanicID, start)
		if err != nil {
			return nil, err
		}
		return resultDTO{Outcome: result.Outcome.String(), Appointment: toAppointmentDTO(result.Appointment)}, nil
	})
}

func (s *Server) resize(ctx *gin.Context) {
	var req resizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.fail(ctx, http.StatusBadRequest, err.Error())
		return
	}

	s.withBoard(ctx, req.Day, func(b *board.Board) (any, error) {
		result, err := services.ResizeAppointment(b, req.AppointmentID, req.Duration)
		if err != nil {
			return nil, err
		}
		return resultDTO{Outcome: result.Outcome.String(), Appointment: toAppointmentDTO(result.Appointment)}, nil
	})
}

func (s *Server) createAppointment(ctx *gin.Context) {
	var req createRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.fail(ctx, http.StatusBadRequest, err.Error())
		return
	}

	s.withBoard(ctx, req.Day, func(b *board.Board) (any, error) {
		appointment, err := services.AddAppointment(b, services.NewOrder{
			Description: req.Description,
			MechanicID:  req.MechanicID,
			VehicleID:   req.VehicleID,
			Duration:    req.Duration,
		})
		if err != nil {
			return nil, err
		}
		return toAppointmentDTO(appointment), nil
	})
}

func (s *Server) distribute(ctx *gin.Context) {
	var req distributeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.fail(ctx, http.StatusBadRequest, err.Error())
		return
	}
	day, err := services.ParseDay(s.cfg, req.Day, s.now(), s.loc)
	if err != nil {
		s.fail(ctx, http.StatusBadRequest, err.Error())
		return
	}

	result, err := services.DistributeUnassigned(ctx.Request.Context(), s.store, s.projector, s.logger, day, req.Apply)
	if err != nil {
		s.logger.Error("Auto-distribution failed", zap.Error(err))
		s.fail(ctx, http.StatusBadGateway, "Failed to distribute appointments")
		return
	}
	ctx.JSON(http.StatusOK, envelope{Data: toDistributeDTO(result)})
}

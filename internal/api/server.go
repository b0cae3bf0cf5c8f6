package api

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/convivia/school-wellbeing-backend/internal/alerts"
	"github.com/convivia/school-wellbeing-backend/internal/audit"
	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/incidents"
	"github.com/convivia/school-wellbeing-backend/internal/messaging"
	"github.com/convivia/school-wellbeing-backend/internal/metrics"
	"github.com/convivia/school-wellbeing-backend/internal/notify"
	"github.com/convivia/school-wellbeing-backend/internal/pulse"
	"github.com/convivia/school-wellbeing-backend/internal/reports"
)

type Options struct {
	Addr      string
	Env       string // dev|prod
	JWTSecret string
	TokenTTL  time.Duration
	Location  *time.Location // calendar for daily-log day boundaries

	DB        *sql.DB
	Log       *zap.SugaredLogger
	Hub       *notify.Hub
	Evaluator *alerts.Evaluator
	Messaging *messaging.Service
	Pulse     *pulse.Service
	Incidents *incidents.Service
	Reports   *reports.Service
	Audit     *audit.Recorder
}

type Server interface {
	http.Handler
	Start() error
	Stop(ctx context.Context) error
}

type server struct {
	opts *Options
	app  *echo.Echo
	log  *zap.SugaredLogger
}

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
		log:  opts.Log.With("component", "api"),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(s.requestLogger)
	s.app.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	if s.opts.Env == "prod" {
		s.app.Use(middleware.Recover())
	}

	s.app.Validator = &structValidator{validate: validator.New()}
	s.app.HTTPErrorHandler = s.errorHandler

	v1 := s.app.Group("/v1")
	v1.POST("/auth/login", s.login)

	auth := v1.Group("", s.authMiddleware)

	auth.POST("/emotional-logs", s.createEmotionalLog, requireRole(roleStudent))
	auth.GET("/emotional-logs", s.listOwnEmotionalLogs, requireRole(roleStudent))
	auth.GET("/students/:id/emotional-logs", s.listStudentEmotionalLogs, requireStaff)

	auth.POST("/teacher-logs", s.createTeacherLog, requireRole(roleTeacher))
	auth.GET("/courses/:id/teacher-logs", s.listTeacherLogs, requireStaffOrTeacher)
	auth.POST("/perceptions", s.createPerception, requireRole(roleTeacher))

	auth.GET("/alerts", s.listAlerts, requireStaff)
	auth.GET("/alerts/:id", s.getAlert, requireStaff)
	auth.POST("/alerts/:id/resolve", s.resolveAlert)

	auth.POST("/incidents", s.createIncident, requireStaff)
	auth.GET("/incidents", s.listIncidents, requireStaff)
	auth.GET("/incidents/:id", s.getIncident, requireStaff)
	auth.POST("/incidents/:id/resolve", s.resolveIncident, requireStaff)
	auth.POST("/incidents/:id/derive", s.deriveIncident, requireStaff)
	auth.GET("/incidents/:id/derivations", s.listDerivations, requireStaff)

	auth.POST("/conversations", s.startConversation)
	auth.GET("/conversations", s.listConversations)
	auth.GET("/conversations/:id/messages", s.listMessages)
	auth.POST("/conversations/:id/messages", s.sendMessage)
	auth.POST("/conversations/:id/read", s.markRead)
	auth.GET("/unread", s.unreadCounts)

	auth.POST("/mailbox/threads", s.createThread)
	auth.GET("/mailbox/threads", s.listThreads)
	auth.GET("/mailbox/threads/:id/messages", s.listThreadMessages)
	auth.POST("/mailbox/threads/:id/messages", s.sendThreadMessage)
	auth.POST("/mailbox/threads/:id/transition", s.transitionThread, requireStaff)

	auth.POST("/pulse/activate", s.activatePulse, requireStaff)
	auth.POST("/pulse/close", s.closePulse, requireStaff)
	auth.GET("/pulse/active", s.activePulse)
	auth.POST("/pulse/student-entries", s.submitPulseStudent, requireRole(roleStudent))
	auth.POST("/pulse/teacher-entries", s.submitPulseTeacher, requireRole(roleTeacher))
	auth.GET("/pulse/:id/summary", s.pulseSummary, requireStaff)

	auth.GET("/reports/monthly", s.monthlyReport, requireStaff)
	auth.GET("/reports/courses", s.courseClimates, requireStaff)
	auth.GET("/reports/risk", s.riskList, requireStaff)
	auth.GET("/reports/export", s.exportReport, requireStaff)

	auth.POST("/rewards", s.grantReward, requireStaff)
	auth.GET("/rewards/me", s.ownRewardTotal, requireRole(roleStudent))
	auth.GET("/students/:id/rewards", s.studentRewardTotal, requireStaff)

	auth.GET("/stream", s.stream)

	admin := auth.Group("/admin", requireRole(roleAdmin))
	admin.POST("/users", s.adminCreateUser)
	admin.PATCH("/users/:id", s.adminUpdateUser)
	admin.DELETE("/users/:id", s.adminDeactivateUser)
	admin.POST("/users/:id/password", s.adminResetPassword)
	admin.POST("/courses", s.adminCreateCourse)
	admin.DELETE("/emotional-logs/:id", s.adminDeleteEmotionalLog)
	admin.DELETE("/incidents/:id", s.adminDeleteIncident)
}

func (s *server) Start() error { return s.app.Start(s.opts.Addr) }

func (s *server) Stop(ctx context.Context) error { return s.app.Shutdown(ctx) }

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// requestLogger logs every request once and feeds the request counter.
func (s *server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		status := c.Response().Status
		metrics.HTTPRequests.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).Inc()
		fields := []any{
			"method", c.Request().Method,
			"path", c.Path(),
			"status", status,
			"took", time.Since(start),
		}
		// the auth middleware swaps the request context in; after next(c)
		// the resolved caller is visible here
		if id, ok := ctxutil.IdentityFrom(c.Request().Context()); ok {
			fields = append(fields, "actor", id.ProfileID)
		}
		s.log.Infow("request", fields...)
		return nil
	}
}

type structValidator struct {
	validate *validator.Validate
}

func (v *structValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

package http

import (
	"context"
	"net/http"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Service is the part of the dispatch coordinator the HTTP API exposes.
type Service interface {
	CreateParcelJob(ctx context.Context, cmd commands.CreateParcelJobCommand) (*job.Job, error)
	CreateFoodJob(ctx context.Context, cmd commands.CreateFoodJobCommand) (*job.Job, error)
	CustomerJobs(ctx context.Context, customerID kernel.UUID, page ports.Page) ([]*job.Job, error)
	GetJob(ctx context.Context, jobID kernel.UUID) (*job.Job, error)
	Cancel(ctx context.Context, requesterID, jobID kernel.UUID) (*job.Job, error)
	SubmitReview(ctx context.Context, cmd commands.SubmitReviewCommand) (*review.Review, error)
	RatingSummary(ctx context.Context, targetType review.TargetType, targetID kernel.UUID) (review.Summary, error)

	RegisterDriver(ctx context.Context, driverID kernel.UUID, kinds []job.Kind) (*driver.Driver, error)
	SetAvailability(ctx context.Context, driverID kernel.UUID, online bool) (*driver.Driver, error)
	UpdateLocation(ctx context.Context, cmd commands.UpdateLocationCommand) (bool, error)
	ListOpenJobs(ctx context.Context, driverID kernel.UUID, kind job.Kind, page ports.Page) ([]*job.Job, error)
	DriverCurrentJobs(ctx context.Context, driverID kernel.UUID) ([]*job.Job, error)
	Accept(ctx context.Context, driverID, jobID kernel.UUID) (*job.Job, error)
	UpdateStatus(ctx context.Context, driverID, jobID kernel.UUID, ev job.Event) (*job.Job, error)
	ReportFailedAttempt(ctx context.Context, driverID, jobID kernel.UUID) (*job.Job, error)
}

// eventFailedAttempt is the wire name for a failed delivery attempt. It is
// not a lifecycle event of its own: the failure policy decides whether the
// job stays put or fails.
const eventFailedAttempt = "failed_attempt"

// Server translates HTTP requests into coordinator calls. Every handler
// reads the caller from the identity set by Authenticate.
type Server struct {
	svc    Service
	secret []byte
	now    func() time.Time
}

func NewServer(svc Service, jwtSecret []byte, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	return &Server{svc: svc, secret: jwtSecret, now: now}
}

// Register mounts the API on e. metrics may be nil.
func (s *Server) Register(e *echo.Echo, metrics http.Handler) {
	e.GET("/health", func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Healthy")
	})
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}

	api := e.Group("/api/v1", Authenticate(s.secret))

	jobs := api.Group("/jobs")
	jobs.POST("/parcel", s.CreateParcelJob, RequireRole(RoleCustomer))
	jobs.POST("/food", s.CreateFoodJob, RequireRole(RoleCustomer))
	jobs.GET("", s.ListCustomerJobs, RequireRole(RoleCustomer))
	jobs.GET("/:id", s.GetJob)
	jobs.PUT("/:id/cancel", s.CancelJob, RequireRole(RoleCustomer, RoleDriver))
	jobs.POST("/:id/reviews", s.SubmitReview, RequireRole(RoleCustomer))

	drv := api.Group("/driver", RequireRole(RoleDriver))
	drv.PUT("/registration", s.RegisterDriver)
	drv.PUT("/availability", s.SetAvailability)
	drv.PUT("/location", s.UpdateLocation)
	drv.GET("/jobs/open", s.ListOpenJobs)
	drv.GET("/jobs/current", s.CurrentJobs)
	drv.POST("/jobs/:id/accept", s.AcceptJob)
	drv.PUT("/jobs/:id/status", s.UpdateJobStatus)

	api.GET("/ratings/:targetType/:id", s.GetRatingSummary)
}

// CreateParcelJob handles POST /api/v1/jobs/parcel.
func (s *Server) CreateParcelJob(ctx echo.Context) error {
	var req NewParcelJob
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	pickup, err := parseStop("pickup", req.Pickup)
	if err != nil {
		return err
	}
	dropoff, err := parseStop("dropoff", req.Dropoff)
	if err != nil {
		return err
	}
	size, err := job.ParseParcelSize(req.Size)
	if err != nil {
		return err
	}
	details, err := job.NewParcelDetails(size, req.WeightKg, req.RecipientName, req.RecipientPhone, req.Description)
	if err != nil {
		return err
	}
	cmd, err := commands.NewCreateParcelJobCommand(identity(ctx).UserID, pickup, dropoff, details)
	if err != nil {
		return err
	}

	created, err := s.svc.CreateParcelJob(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, toJob(created))
}

// CreateFoodJob handles POST /api/v1/jobs/food.
func (s *Server) CreateFoodJob(ctx echo.Context) error {
	var req NewFoodJob
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	restaurantID, err := parseID("restaurant_id", req.RestaurantID)
	if err != nil {
		return err
	}
	dropoff, err := parseStop("dropoff", req.Dropoff)
	if err != nil {
		return err
	}
	lines := make([]commands.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		itemID, err := parseID("menu_item_id", it.MenuItemID)
		if err != nil {
			return err
		}
		lines = append(lines, commands.OrderLine{MenuItemID: itemID, Quantity: it.Quantity})
	}
	cmd, err := commands.NewCreateFoodJobCommand(identity(ctx).UserID, restaurantID, dropoff, lines, req.Instructions)
	if err != nil {
		return err
	}

	created, err := s.svc.CreateFoodJob(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, toJob(created))
}

// ListCustomerJobs handles GET /api/v1/jobs, newest first.
func (s *Server) ListCustomerJobs(ctx echo.Context) error {
	page, err := parsePage(ctx)
	if err != nil {
		return err
	}
	jobs, err := s.svc.CustomerJobs(ctx.Request().Context(), identity(ctx).UserID, page)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toJobs(jobs))
}

// GetJob handles GET /api/v1/jobs/:id. Customers see their own jobs,
// drivers see open jobs and the ones assigned to them.
func (s *Server) GetJob(ctx echo.Context) error {
	jobID, err := parseID("id", ctx.Param("id"))
	if err != nil {
		return err
	}
	j, err := s.svc.GetJob(ctx.Request().Context(), jobID)
	if err != nil {
		return err
	}

	caller := identity(ctx)
	if !canView(caller, j) {
		return errs.NewForbiddenError(caller.UserID, "view job "+jobID.String())
	}
	return ctx.JSON(http.StatusOK, toJob(j))
}

// CancelJob handles PUT /api/v1/jobs/:id/cancel. For the assigned driver
// this releases the job back to the pool.
func (s *Server) CancelJob(ctx echo.Context) error {
	jobID, err := parseID("id", ctx.Param("id"))
	if err != nil {
		return err
	}
	j, err := s.svc.Cancel(ctx.Request().Context(), identity(ctx).UserID, jobID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toJob(j))
}

// SubmitReview handles POST /api/v1/jobs/:id/reviews.
func (s *Server) SubmitReview(ctx echo.Context) error {
	jobID, err := parseID("id", ctx.Param("id"))
	if err != nil {
		return err
	}
	var req NewReview
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	targetType, err := review.ParseTargetType(req.TargetType)
	if err != nil {
		return err
	}
	cmd, err := commands.NewSubmitReviewCommand(identity(ctx).UserID, jobID, targetType, req.Rating, req.Comment)
	if err != nil {
		return err
	}

	r, err := s.svc.SubmitReview(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, toReview(r))
}

// GetRatingSummary handles GET /api/v1/ratings/:targetType/:id.
func (s *Server) GetRatingSummary(ctx echo.Context) error {
	targetType, err := review.ParseTargetType(ctx.Param("targetType"))
	if err != nil {
		return err
	}
	targetID, err := parseID("id", ctx.Param("id"))
	if err != nil {
		return err
	}
	summary, err := s.svc.RatingSummary(ctx.Request().Context(), targetType, targetID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toSummary(summary))
}

// RegisterDriver handles PUT /api/v1/driver/registration.
func (s *Server) RegisterDriver(ctx echo.Context) error {
	var req DriverRegistration
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	kinds := make([]job.Kind, 0, len(req.Kinds))
	for _, name := range req.Kinds {
		kind, err := job.ParseKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	d, err := s.svc.RegisterDriver(ctx.Request().Context(), identity(ctx).UserID, kinds)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toDriver(d))
}

// SetAvailability handles PUT /api/v1/driver/availability.
func (s *Server) SetAvailability(ctx echo.Context) error {
	var req Availability
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	d, err := s.svc.SetAvailability(ctx.Request().Context(), identity(ctx).UserID, req.Online)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toDriver(d))
}

// UpdateLocation handles PUT /api/v1/driver/location. Reports older than
// the last accepted one are acknowledged with applied=false.
func (s *Server) UpdateLocation(ctx echo.Context) error {
	var req LocationReport
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	loc, err := kernel.NewLocation(req.Lat, req.Lng)
	if err != nil {
		return err
	}
	reportedAt := s.now()
	if req.ReportedAt != nil {
		reportedAt = *req.ReportedAt
	}
	cmd, err := commands.NewUpdateLocationCommand(identity(ctx).UserID, loc, reportedAt)
	if err != nil {
		return err
	}

	applied, err := s.svc.UpdateLocation(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LocationAccepted{Applied: applied})
}

// ListOpenJobs handles GET /api/v1/driver/jobs/open?kind=.
func (s *Server) ListOpenJobs(ctx echo.Context) error {
	kind, err := job.ParseKind(ctx.QueryParam("kind"))
	if err != nil {
		return err
	}
	page, err := parsePage(ctx)
	if err != nil {
		return err
	}
	jobs, err := s.svc.ListOpenJobs(ctx.Request().Context(), identity(ctx).UserID, kind, page)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toJobs(jobs))
}

// CurrentJobs handles GET /api/v1/driver/jobs/current.
func (s *Server) CurrentJobs(ctx echo.Context) error {
	jobs, err := s.svc.DriverCurrentJobs(ctx.Request().Context(), identity(ctx).UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toJobs(jobs))
}

// AcceptJob handles POST /api/v1/driver/jobs/:id/accept.
func (s *Server) AcceptJob(ctx echo.Context) error {
	jobID, err := parseID("id", ctx.Param("id"))
	if err != nil {
		return err
	}
	j, err := s.svc.Accept(ctx.Request().Context(), identity(ctx).UserID, jobID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toJob(j))
}

// UpdateJobStatus handles PUT /api/v1/driver/jobs/:id/status.
func (s *Server) UpdateJobStatus(ctx echo.Context) error {
	jobID, err := parseID("id", ctx.Param("id"))
	if err != nil {
		return err
	}
	var req StatusUpdate
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	driverID := identity(ctx).UserID
	var j *job.Job
	if req.Event == eventFailedAttempt {
		j, err = s.svc.ReportFailedAttempt(ctx.Request().Context(), driverID, jobID)
	} else {
		var ev job.Event
		if ev, err = job.ParseEvent(req.Event); err != nil {
			return err
		}
		j, err = s.svc.UpdateStatus(ctx.Request().Context(), driverID, jobID, ev)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, toJob(j))
}

func canView(caller Identity, j *job.Job) bool {
	switch caller.Role {
	case RoleAdmin:
		return true
	case RoleCustomer:
		return j.CustomerID().IsEqual(caller.UserID)
	case RoleDriver:
		return j.IsOpen() || j.IsAssignedTo(caller.UserID)
	default:
		return false
	}
}

func parseID(param, raw string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(param, err)
	}
	return id, nil
}

func parseStop(param string, s Stop) (job.Stop, error) {
	loc, err := kernel.NewLocation(s.Location.Lat, s.Location.Lng)
	if err != nil {
		return job.Stop{}, errs.NewValueIsInvalidErrorWithCause(param, err)
	}
	return job.Stop{Location: loc, Address: s.Address}, nil
}

func parsePage(ctx echo.Context) (ports.Page, error) {
	var page ports.Page
	if err := echo.QueryParamsBinder(ctx).
		Int("offset", &page.Offset).
		Int("limit", &page.Limit).
		BindError(); err != nil {
		return ports.Page{}, errs.NewValueIsInvalidErrorWithCause("page", err)
	}
	return page, nil
}

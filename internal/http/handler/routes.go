package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crewops/internal/apperr"
	"crewops/internal/config"
	"crewops/internal/http/middleware"
	"crewops/internal/model"
	"crewops/internal/service"
)

// Deps carries everything the HTTP layer talks to. DB and Gatherer may be nil.
type Deps struct {
	DB             *sql.DB
	Gatherer       prometheus.Gatherer
	Auth           config.AuthConfig
	StorageEnabled bool

	Documents     service.VerificationService
	Documentation service.DocumentationTracker
	Contracts     service.ContractService
	Candidates    service.CandidateService
	Matching      service.MatchingService
	Assignments   service.AssignmentService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay free of business logic; they translate HTTP to service calls.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1", middleware.Auth(d.Auth))
	admin := middleware.RequireRole(model.RoleAdmin)

	docs := api.Group("/documents")
	docs.Post("/", middleware.RequireRole(model.RoleSeafarer, model.RoleAdmin), SubmitDocument(d.Documents, d.StorageEnabled))
	docs.Get("/", ListDocuments(d.Documents))
	docs.Get("/:id", GetDocument(d.Documents))
	docs.Get("/:id/download", admin, DownloadDocument(d.Documents))
	docs.Post("/:id/approve", admin, ApproveDocument(d.Documents))
	docs.Post("/:id/reject", admin, RejectDocument(d.Documents))

	api.Get("/seafarers/:id/documentation", DocumentationStatus(d.Documentation))

	contracts := api.Group("/contracts")
	contracts.Post("/", middleware.RequireRole(model.RoleShipowner, model.RoleAdmin), CreateContract(d.Contracts))
	contracts.Get("/", ListContracts(d.Contracts))
	contracts.Get("/:id", GetContract(d.Contracts))
	contracts.Get("/:id/history", ContractHistory(d.Contracts))
	contracts.Post("/:id/transition", admin, TransitionContract(d.Contracts))
	contracts.Post("/:id/archive", admin, ArchiveContract(d.Contracts))

	candidates := api.Group("/candidates", admin)
	candidates.Post("/", RegisterCandidate(d.Candidates))
	candidates.Get("/", ListCandidates(d.Candidates))
	candidates.Get("/:id", GetCandidate(d.Candidates))

	oneOff := api.Group("/one-off-contracts", admin)
	oneOff.Get("/:id/candidates", RankCandidates(d.Matching))
	oneOff.Post("/:id/assign", AssignCandidate(d.Assignments))
	oneOff.Post("/:id/release", ReleaseContract(d.Assignments))
}

// HealthCheck pings the database. A nil db means the in-memory repository is
// in use and there is nothing to ping.
//
//	@Summary	Readiness probe
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	errorPayload
//	@Router		/health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return c.JSON(fiber.Map{"status": "healthy", "repository": "memory"})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable", nil)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200 while the process serves requests.
//
//	@Summary	Liveness probe
//	@Tags		health
//	@Success	200
//	@Router		/healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// pagination reads limit and offset. Zero values let the service apply its defaults.
func pagination(c *fiber.Ctx) (limit, offset int, err error) {
	limit, err = strconv.Atoi(c.Query("limit", "0"))
	if err != nil || limit < 0 {
		return 0, 0, invalidInput("INVALID_LIMIT", "invalid limit")
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, invalidInput("INVALID_OFFSET", "invalid offset")
	}
	return limit, offset, nil
}

// pathID copies the :id parameter out of the request buffer and answers 404
// for anything that is not a canonical UUID.
func pathID(c *fiber.Ctx, entity string) (string, error) {
	id := utils.CopyString(c.Params("id"))
	if !validID(id) {
		return "", apperr.NotFound(entity, id)
	}
	return id, nil
}

func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// actor returns the caller stored by middleware.Auth. Routes are always
// mounted behind Auth, so a missing actor is a wiring bug.
func actor(c *fiber.Ctx) (model.Actor, error) {
	a, ok := middleware.ActorFromCtx(c)
	if !ok {
		return model.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}
	return a, nil
}

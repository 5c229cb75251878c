// Package api exposes the planning commands over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/metrics"
	"github.com/alexanderramin/lotplan/internal/repository"
	"github.com/alexanderramin/lotplan/internal/scheduler"
	"github.com/alexanderramin/lotplan/internal/service"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
)

// Deps are the services behind the routes. Planning's confirmer must honor
// service.WithConfirmation, as service.ContextConfirmer does, so that
// ?confirm=true reaches link deletion.
type Deps struct {
	Planning service.PlanningService
	Links    service.LinkService
	// Gatherer, when set, is served on GET /metrics.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

type server struct {
	deps Deps
}

// New builds the fiber app with every route mounted.
func New(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	s := &server{deps: deps}
	app := fiber.New(fiber.Config{AppName: "lotplan"})

	app.Get("/interventions", s.listInterventions)
	app.Post("/refresh", s.refresh)
	app.Post("/interventions/:id/move", s.move)
	app.Post("/interventions/:id/resize", s.resize)
	app.Get("/links", s.listLinks)
	app.Get("/links/cycles", s.cycles)
	app.Post("/links", s.createLink)
	app.Delete("/links/:id", s.deleteLink)
	app.Post("/conflicts/check", s.checkConflicts)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(deps.Gatherer)))
	}
	return app
}

// listInterventions is read-only. Reminder roll-forward happens on
// POST /refresh.
func (s *server) listInterventions(c fiber.Ctx) error {
	snap, err := s.deps.Planning.Snapshot(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(interventionsJSON(snap))
}

func (s *server) refresh(c fiber.Ctx) error {
	snap, err := s.deps.Planning.Refresh(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(interventionsJSON(snap))
}

func interventionsJSON(snap *scheduler.Snapshot) []interventionJSON {
	out := make([]interventionJSON, 0, len(snap.Interventions))
	for _, iv := range snap.Interventions {
		out = append(out, toInterventionJSON(iv))
	}
	return out
}

func (s *server) move(c fiber.Ctx) error {
	var req moveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	grabbed, err := calendar.Parse(req.GrabbedDay)
	if err != nil {
		return badRequest(c, "grabbed_day must be YYYY-MM-DD")
	}
	dropped, err := calendar.Parse(req.DroppedDay)
	if err != nil {
		return badRequest(c, "dropped_day must be YYYY-MM-DD")
	}
	res, err := s.deps.Planning.MoveIntervention(c.Context(), c.Params("id"), grabbed, dropped)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toCascadeJSON(res))
}

func (s *server) resize(c fiber.Ctx) error {
	var req resizeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	edge, err := scheduler.ParseEdge(req.Edge)
	if err != nil {
		return badRequest(c, err.Error())
	}
	day, err := calendar.Parse(req.Day)
	if err != nil {
		return badRequest(c, "day must be YYYY-MM-DD")
	}
	res, err := s.deps.Planning.ResizeIntervention(c.Context(), c.Params("id"), edge, day)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toCascadeJSON(res))
}

func (s *server) listLinks(c fiber.Ctx) error {
	links, err := s.deps.Links.List(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	out := make([]linkJSON, 0, len(links))
	for _, l := range links {
		out = append(out, toLinkJSON(l))
	}
	return c.JSON(out)
}

func (s *server) createLink(c fiber.Ctx) error {
	var req linkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	lt, err := domain.ParseLinkType(req.Type)
	if err != nil {
		return badRequest(c, err.Error())
	}
	res, err := s.deps.Planning.LinkTasks(c.Context(), req.SourceID, req.TargetID, lt)
	if err != nil {
		return s.fail(c, err)
	}
	status := http.StatusCreated
	if res.Resolved {
		status = http.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{"link": toLinkJSON(res.Link), "resolved": res.Resolved})
}

func (s *server) deleteLink(c fiber.Ctx) error {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	ctx := service.WithConfirmation(c.Context(), confirmed)
	if err := s.deps.Planning.UnlinkTasks(ctx, c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *server) checkConflicts(c fiber.Ctx) error {
	var req conflictRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	start, errS := calendar.Parse(req.Start)
	end, errE := calendar.Parse(req.End)
	if errS != nil || errE != nil {
		return badRequest(c, "start and end must be YYYY-MM-DD")
	}
	state, err := domain.ParseState(req.State)
	if err != nil {
		return badRequest(c, err.Error())
	}
	conflicts, err := s.deps.Planning.CheckConflicts(c.Context(), scheduler.Candidate{
		InterventionID: req.InterventionID,
		LotID:          req.LotID,
		Span:           domain.NewSpan(start, end),
		State:          state,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toConflictsJSON(conflicts))
}

func (s *server) cycles(c fiber.Ctx) error {
	cycles, err := s.deps.Planning.LinkCycles(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	out := make([][]string, 0, len(cycles))
	for _, cy := range cycles {
		out = append(out, cy.InterventionIDs)
	}
	return c.JSON(fiber.Map{"cycles": out})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// fail maps sentinel errors onto status codes and logs the rest.
func (s *server) fail(c fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scheduler.ErrSelfLink), errors.Is(err, scheduler.ErrInvalidLinkType), errors.Is(err, scheduler.ErrInvalidDates):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotConfirmed), errors.Is(err, service.ErrConflictsNotConfirmed):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.deps.Logger.ErrorContext(c.Context(), "api request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

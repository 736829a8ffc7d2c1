package statusapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jg-phare/hookprio/pkg/hookconfig"
	"github.com/jg-phare/hookprio/pkg/priority"
)

// recentFireCount is how many fire records GET /runner returns.
const recentFireCount = 20

func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		AgentID:   s.coord.AgentID(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) getStatus(c *fiber.Ctx) error {
	return c.JSON(s.coord.Status())
}

func (s *Server) getRunner(c *fiber.Ctx) error {
	if s.runner == nil {
		return fiber.NewError(fiber.StatusNotFound, "no dispatcher attached")
	}
	fires := s.runner.FireLog()
	if len(fires) > recentFireCount {
		fires = fires[len(fires)-recentFireCount:]
	}
	return c.JSON(RunnerResponse{
		RunnerStatus: s.runner.Status(),
		RecentFires:  fires,
	})
}

func (s *Server) listHooks(c *fiber.Ctx) error {
	return c.JSON(s.coord.Config().Snapshot())
}

func (s *Server) getHook(c *fiber.Ctx) error {
	name := c.Params("name")
	meta, ok := s.coord.Config().Get(name)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "hook not found: "+name)
	}
	return c.JSON(s.detail(meta))
}

func (s *Server) detail(meta hookconfig.HookMetadata) HookDetail {
	d := HookDetail{HookMetadata: meta}
	if entry, ok := s.coord.CachedResult(meta.Name); ok {
		at := entry.Timestamp
		d.CachedAt = &at
		d.Cached = time.Since(at) < meta.CacheTTL()
	}
	if st, ok := s.coord.PerformanceSummary()[meta.Name]; ok {
		d.Performance = &st
	}
	return d
}

func (s *Server) setPriority(c *fiber.Ctx) error {
	name := c.Params("name")

	var req PriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if req.Priority == nil {
		return fiber.NewError(fiber.StatusBadRequest, "priority is required")
	}
	if !s.coord.AdjustPriority(name, *req.Priority) {
		return fiber.NewError(fiber.StatusNotFound, "hook not found: "+name)
	}

	if req.Persist {
		if s.config.OverridePath == "" {
			return fiber.NewError(fiber.StatusConflict, "no override file configured")
		}
		o := hookconfig.Override{Priority: req.Priority}
		if err := hookconfig.WriteOverride(s.config.OverridePath, name, o); err != nil {
			s.logger.Error("persist priority override", zap.String("hook", name), zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "failed to persist override")
		}
	}

	meta, _ := s.coord.Config().Get(name)
	return c.JSON(s.detail(meta))
}

func (s *Server) clearCache(c *fiber.Ctx) error {
	name := c.Params("name")
	s.coord.ClearCache(name)
	msg := "cache cleared"
	if name != "" {
		msg = "cache cleared for " + name
	}
	return c.JSON(SuccessResponse{Success: true, Message: msg})
}

// expire releases stale executions. With max_age it drops anything older
// than that; otherwise it drops executions past their timeout budget plus
// grace (default 0). With a dispatcher attached the sweep goes through it, so
// Fire calls waiting on a dropped execution are answered.
func (s *Server) expire(c *fiber.Ctx) error {
	var expired []*priority.HookExecution

	if raw := c.Query("max_age"); raw != "" {
		maxAge, err := time.ParseDuration(raw)
		if err != nil || maxAge < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid max_age: "+raw)
		}
		if s.runner != nil {
			expired = s.runner.ExpireStale(maxAge)
		} else {
			expired = s.coord.ExpireStale(maxAge)
		}
	} else {
		var grace time.Duration
		if raw := c.Query("grace"); raw != "" {
			g, err := time.ParseDuration(raw)
			if err != nil || g < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid grace: "+raw)
			}
			grace = g
		}
		if s.runner != nil {
			expired = s.runner.ExpireOverdue(grace)
		} else {
			expired = s.coord.ExpireOverdue(grace)
		}
	}

	resp := ExpireResponse{Expired: make([]ExpiredExecution, 0, len(expired))}
	for _, e := range expired {
		resp.Expired = append(resp.Expired, ExpiredExecution{
			Hook:        e.HookName,
			ExecutionID: e.ExecutionID,
			EnqueuedAt:  e.Timestamp,
		})
	}
	return c.JSON(resp)
}

package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/lettercraft/lettercraft/usagegate"
	"github.com/lettercraft/lettercraft/usagegate/ratelimit"
	"github.com/lettercraft/lettercraft/usagegate/rollout"

	"github.com/labstack/echo/v4"
)

// currentPeriod is the default usage period label: the current UTC month.
func currentPeriod() string {
	return time.Now().UTC().Format("2006-01")
}

func periodOrDefault(c echo.Context) string {
	if p := c.QueryParam("period"); p != "" {
		return p
	}
	return currentPeriod()
}

type checkRequestBody struct {
	OrgID  string `json:"orgId"`
	UserID string `json:"userId"`
	Kind   string `json:"kind"`
	Period string `json:"period"`
}

func (srv *Server) HandleCheck(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracer.Start(ctx, "HandleCheck")
	defer span.End()

	var body checkRequestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if body.OrgID == "" || body.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "orgId and userId are required")
	}
	if body.Period == "" {
		body.Period = currentPeriod()
	}
	kind := usagegate.KindText
	if body.Kind == string(usagegate.KindImage) {
		kind = usagegate.KindImage
	}

	res, err := srv.engine.CheckGeneration(ctx, usagegate.CheckRequest{
		OrgID:  body.OrgID,
		UserID: body.UserID,
		Kind:   kind,
		Period: body.Period,
	})
	if errors.Is(err, ratelimit.ErrRateLimitExceeded) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "check failed")
	}
	return c.JSON(200, res)
}

type recordRequestBody struct {
	OrgID            string `json:"orgId"`
	UserID           string `json:"userId"`
	Period           string `json:"period"`
	Kind             string `json:"kind"`
	Version          string `json:"version"`
	PromptTokens     int64  `json:"promptTokens"`
	CompletionTokens int64  `json:"completionTokens"`
	DurationMs       int64  `json:"durationMs"`
	FallbackUsed     bool   `json:"fallbackUsed"`
	Error            string `json:"error,omitempty"`
}

func (srv *Server) HandleRecord(c echo.Context) error {
	ctx := c.Request().Context()

	var body recordRequestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if body.OrgID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "orgId is required")
	}
	if body.Period == "" {
		body.Period = currentPeriod()
	}
	kind := usagegate.KindText
	if body.Kind == string(usagegate.KindImage) {
		kind = usagegate.KindImage
	}

	srv.engine.RecordGeneration(ctx, usagegate.GenerationOutcome{
		OrgID:            body.OrgID,
		UserID:           body.UserID,
		Period:           body.Period,
		Kind:             kind,
		Version:          rollout.Version(body.Version),
		PromptTokens:     body.PromptTokens,
		CompletionTokens: body.CompletionTokens,
		Duration:         time.Duration(body.DurationMs) * time.Millisecond,
		FallbackUsed:     body.FallbackUsed,
		ErrorMsg:         body.Error,
	})
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "turnstile"})
}

func (srv *Server) HandleGetQuota(c echo.Context) error {
	ctx := c.Request().Context()

	rec, err := srv.engine.GetQuota(ctx, c.Param("org"), c.QueryParam("user"), periodOrDefault(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "quota lookup failed")
	}
	return c.JSON(200, rec)
}

func (srv *Server) HandleResetQuota(c echo.Context) error {
	ctx := c.Request().Context()

	srv.engine.ResetQuota(ctx, c.Param("org"), c.QueryParam("user"), periodOrDefault(c))
	quotaResets.Inc()
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "turnstile"})
}

func (srv *Server) HandleInvalidateBrandKit(c echo.Context) error {
	ctx := c.Request().Context()

	srv.engine.PurgeBrandKit(ctx, c.Param("org"))
	brandKitInvalidations.Inc()
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "turnstile"})
}

type rolloutStatus struct {
	OrgID   string          `json:"orgId"`
	Bucket  int             `json:"bucket"`
	Version rollout.Version `json:"version"`
	Flags   rollout.Flags   `json:"flags"`
}

func (srv *Server) HandleGetRollout(c echo.Context) error {
	ctx := c.Request().Context()

	orgID := c.Param("org")
	flags := srv.engine.Flags()
	return c.JSON(200, rolloutStatus{
		OrgID:   orgID,
		Bucket:  rollout.Bucket(orgID),
		Version: srv.engine.Rollout.Choose(ctx, orgID, flags),
		Flags:   flags,
	})
}

type pinRequestBody struct {
	// Pin is "v1", "v2", or "" to clear the override.
	Pin string `json:"pin"`
}

func (srv *Server) HandlePinRollout(c echo.Context) error {
	ctx := c.Request().Context()

	var body pinRequestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	var pin rollout.Pin
	switch body.Pin {
	case string(rollout.PinV1):
		pin = rollout.PinV1
	case string(rollout.PinV2):
		pin = rollout.PinV2
	case "":
		pin = rollout.PinNone
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "pin must be v1, v2, or empty")
	}

	if err := srv.dir.SetRolloutOverride(ctx, c.Param("org"), pin); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "persisting rollout pin failed")
	}
	rolloutPins.Inc()
	srv.logger.Info("rollout pin updated", "org", c.Param("org"), "pin", pin)
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "turnstile"})
}

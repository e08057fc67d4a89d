package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pipeline-tokens/internal/metrics"
	"github.com/iliyamo/pipeline-tokens/internal/middleware"
	"github.com/iliyamo/pipeline-tokens/internal/model"
	"github.com/iliyamo/pipeline-tokens/internal/service"
)

// Refresher rotates a pipeline token on behalf of an authenticated caller.
type Refresher interface {
	Refresh(ctx context.Context, req service.RefreshRequest) (*model.Token, error)
}

// TokenHandler serves the pipeline token endpoints.
type TokenHandler struct {
	Refresher Refresher
	Metrics   *metrics.Metrics
}

// NewTokenHandler panics if r is nil; m may be nil to disable metrics.
func NewTokenHandler(r Refresher, m *metrics.Metrics) *TokenHandler {
	if r == nil {
		panic("nil refresher passed to NewTokenHandler")
	}
	return &TokenHandler{Refresher: r, Metrics: m}
}

// Refresh handles PUT /v1/pipelines/:pipelineId/tokens/:tokenId/refresh.  It
// replaces the token's secret and returns the token with its new value; all
// other metadata is unchanged.  Responses: 200 with the token, 400 for a
// malformed id, 401 when the caller is not an admin of the pipeline's
// repository, 403 when the token belongs to another pipeline, 404 when the
// token, pipeline or user does not exist.
func (h *TokenHandler) Refresh(c echo.Context) error {
	start := time.Now()

	pipelineID, ok := parseID(c.Param("pipelineId"))
	if !ok {
		h.Metrics.ObserveRefresh("bad_request", time.Since(start))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pipeline id"})
	}
	tokenID, ok := parseID(c.Param("tokenId"))
	if !ok {
		h.Metrics.ObserveRefresh("bad_request", time.Since(start))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token id"})
	}
	username, scmContext, ok := middleware.Identity(c)
	if !ok {
		h.Metrics.ObserveRefresh("unauthorized", time.Since(start))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tok, err := h.Refresher.Refresh(ctx, service.RefreshRequest{
		PipelineID: pipelineID,
		TokenID:    tokenID,
		Username:   username,
		SCMContext: scmContext,
	})
	if err != nil {
		kind := service.KindOf(err)
		h.Metrics.ObserveRefresh(kind.String(), time.Since(start))
		return c.JSON(statusFor(kind), echo.Map{"error": messageFor(kind, err)})
	}
	h.Metrics.ObserveRefresh("success", time.Since(start))
	return c.JSON(http.StatusOK, tok.ToJSON())
}

// parseID accepts positive decimal ids only.
func parseID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// messageFor keeps store and driver errors out of responses.
func messageFor(kind service.Kind, err error) string {
	var se *service.Error
	if kind == service.KindUnknown || !errors.As(err, &se) {
		return "internal server error"
	}
	return se.Message
}

// Package service holds the business workflows that sit between HTTP
// handlers and the repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/pipeline-tokens/internal/model"
	"github.com/iliyamo/pipeline-tokens/internal/queue"
	"github.com/iliyamo/pipeline-tokens/internal/repository"
)

// PipelineGetter loads pipelines by id.  A missing pipeline is reported with
// an error wrapping repository.ErrNotFound.
type PipelineGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Pipeline, error)
}

// UserGetter loads users by (username, scmContext).
type UserGetter interface {
	GetByUsername(ctx context.Context, username, scmContext string) (*model.User, error)
}

// TokenStore loads tokens and rotates their secret.  Refresh must change only
// the secret and must be safe to call concurrently for the same token.
type TokenStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Token, error)
	Refresh(ctx context.Context, t *model.Token) (*model.Token, error)
}

// PermissionResolver answers what a user may do with an SCM resource.
type PermissionResolver interface {
	GetPermissions(ctx context.Context, u *model.User, scmURI string) (model.Permissions, error)
}

// EventPublisher announces completed rotations.  Publishing is best effort.
type EventPublisher interface {
	PublishTokenRefreshed(ctx context.Context, ev queue.TokenRefreshedEvent) error
}

// RefreshRequest names the token to rotate and the authenticated caller.
type RefreshRequest struct {
	PipelineID uint64
	TokenID    uint64
	Username   string
	SCMContext string
}

// TokenRefresher rotates pipeline token secrets on behalf of pipeline admins.
type TokenRefresher struct {
	pipelines   PipelineGetter
	users       UserGetter
	tokens      TokenStore
	permissions PermissionResolver
	events      EventPublisher
	log         *slog.Logger
}

// NewTokenRefresher wires the workflow.  events may be nil; log defaults to
// slog.Default().
func NewTokenRefresher(pipelines PipelineGetter, users UserGetter, tokens TokenStore, permissions PermissionResolver, events EventPublisher, log *slog.Logger) *TokenRefresher {
	if pipelines == nil || users == nil || tokens == nil || permissions == nil {
		panic("nil dependency passed to NewTokenRefresher")
	}
	if log == nil {
		log = slog.Default()
	}
	return &TokenRefresher{
		pipelines:   pipelines,
		users:       users,
		tokens:      tokens,
		permissions: permissions,
		events:      events,
		log:         log,
	}
}

// Refresh rotates the secret of req.TokenID after checking, in order: the
// token, pipeline and user exist; the caller is an admin of the pipeline's
// repository; the token belongs to the pipeline.  The first failed check
// decides the error.  On success the returned token carries the new Value.
func (s *TokenRefresher) Refresh(ctx context.Context, req RefreshRequest) (*model.Token, error) {
	log := s.log.With(
		slog.Uint64("pipeline_id", req.PipelineID),
		slog.Uint64("token_id", req.TokenID),
		slog.String("username", req.Username),
	)

	var (
		wg                             sync.WaitGroup
		pipeline                       *model.Pipeline
		user                           *model.User
		token                          *model.Token
		pipelineErr, userErr, tokenErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		pipeline, pipelineErr = s.pipelines.GetByID(ctx, req.PipelineID)
	}()
	go func() {
		defer wg.Done()
		user, userErr = s.users.GetByUsername(ctx, req.Username, req.SCMContext)
	}()
	go func() {
		defer wg.Done()
		token, tokenErr = s.tokens.GetByID(ctx, req.TokenID)
	}()
	wg.Wait()

	if err := present(token, tokenErr, "Token does not exist", "load token"); err != nil {
		return nil, s.fail(ctx, log, err)
	}
	if err := present(pipeline, pipelineErr, "Pipeline does not exist", "load pipeline"); err != nil {
		return nil, s.fail(ctx, log, err)
	}
	if err := present(user, userErr, "User does not exist", "load user"); err != nil {
		return nil, s.fail(ctx, log, err)
	}

	perms, err := s.permissions.GetPermissions(ctx, user, pipeline.SCMURI)
	if err != nil {
		return nil, s.fail(ctx, log, fmt.Errorf("get permissions for %s: %w", pipeline.SCMURI, err))
	}
	if !perms.Admin {
		return nil, s.fail(ctx, log, Unauthorized(fmt.Sprintf("User %s is not an admin of this repo", req.Username)))
	}

	// Ownership is checked only once the caller is known to be an admin.
	if token.PipelineID != pipeline.ID {
		return nil, s.fail(ctx, log, Forbidden("Pipeline does not own token"))
	}

	refreshed, err := s.rotate(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// deleted between the lookup and the update
			return nil, s.fail(ctx, log, NotFound("Token does not exist"))
		}
		return nil, s.fail(ctx, log, fmt.Errorf("refresh token: %w", err))
	}
	log.InfoContext(ctx, "pipeline token refreshed")
	s.publish(ctx, log, req, refreshed)
	return refreshed, nil
}

// rotateTimeout bounds the rotating UPDATE once it no longer follows the
// caller's cancellation.
const rotateTimeout = 5 * time.Second

// rotate runs the rotation detached from ctx's cancellation.  Once the checks
// have passed the UPDATE runs to completion, so a client that disconnects
// cannot leave a committed secret that nobody was told about.
func (s *TokenRefresher) rotate(ctx context.Context, t *model.Token) (*model.Token, error) {
	rotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rotateTimeout)
	defer cancel()
	return s.tokens.Refresh(rotCtx, t)
}

// present turns a lookup result into nil, a NotFound, or a wrapped store
// error.  A nil entity without an error counts as absent.
func present[T any](v *T, err error, notFoundMsg, op string) error {
	switch {
	case err == nil && v != nil:
		return nil
	case err == nil, errors.Is(err, repository.ErrNotFound):
		return NotFound(notFoundMsg)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *TokenRefresher) fail(ctx context.Context, log *slog.Logger, err error) error {
	if KindOf(err) == KindUnknown {
		log.ErrorContext(ctx, "token refresh failed", slog.Any("error", err))
	} else {
		log.InfoContext(ctx, "token refresh rejected", slog.String("reason", KindOf(err).String()), slog.String("error", err.Error()))
	}
	return err
}

func (s *TokenRefresher) publish(ctx context.Context, log *slog.Logger, req RefreshRequest, t *model.Token) {
	if s.events == nil {
		return
	}
	ev := queue.TokenRefreshedEvent{
		TokenID:     t.ID,
		TokenName:   t.Name,
		PipelineID:  t.PipelineID,
		Username:    req.Username,
		SCMContext:  req.SCMContext,
		RefreshedAt: time.Now().UTC().Format(time.RFC3339),
	}
	// The rotation is already committed; a lost event must not fail it.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.events.PublishTokenRefreshed(pubCtx, ev); err != nil {
		log.WarnContext(ctx, "publish token.refreshed failed", slog.Any("error", err))
	}
}

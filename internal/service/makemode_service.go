package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/scrtch/internal/makemode"
	"github.com/mmynk/scrtch/internal/middleware"
	"github.com/mmynk/scrtch/internal/recipes"
	"github.com/mmynk/scrtch/pkg/api"
)

// MakeModeService implements the MakeModeService RPC interface. Sessions
// started while signed in belong to that user; anonymous sessions are
// reachable by anyone holding the session id.
type MakeModeService struct {
	sessions *makemode.Manager
	repo     *recipes.Repository
	logger   *slog.Logger
}

// NewMakeModeService creates a Make Mode service.
func NewMakeModeService(sessions *makemode.Manager, repo *recipes.Repository, logger *slog.Logger) *MakeModeService {
	return &MakeModeService{sessions: sessions, repo: repo, logger: logger}
}

// StartSession opens a guided session over a readable recipe.
func (s *MakeModeService) StartSession(ctx context.Context, req *connect.Request[api.StartSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	if req.Msg.RecipeID == "" {
		return nil, invalidArgument(errors.New("recipeId is required"))
	}
	uid := middleware.GetUserID(ctx)

	rec, found, err := s.repo.Load(ctx, req.Msg.RecipeID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !found || !rec.VisibleTo(uid) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("recipe not found"))
	}

	id, session := s.sessions.Start(uid, rec)
	s.logger.Info("Make mode session started", "session_id", id, "recipe_id", rec.ID, "user_id", uid)
	return s.respond(id, session), nil
}

// GetSession returns the current state of a session.
func (s *MakeModeService) GetSession(ctx context.Context, req *connect.Request[api.SessionRequest]) (*connect.Response[api.SessionResponse], error) {
	session, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	return s.respond(req.Msg.SessionID, session), nil
}

// CompleteStep toggles a step. Completing a step ahead of the active one
// raises a catch-up decision instead.
func (s *MakeModeService) CompleteStep(ctx context.Context, req *connect.Request[api.StepRequest]) (*connect.Response[api.CompleteStepResponse], error) {
	session, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	outcome, err := session.Complete(req.Msg.StepIndex)
	if err != nil {
		return nil, toConnectError(err)
	}

	view := toAPISession(req.Msg.SessionID, session.View())
	return connect.NewResponse(&api.CompleteStepResponse{
		Outcome:   outcome.String(),
		SessionID: view.SessionID,
		Session:   view.Session,
	}), nil
}

// ResolveCatchUp answers the pending catch-up decision.
func (s *MakeModeService) ResolveCatchUp(ctx context.Context, req *connect.Request[api.ResolveCatchUpRequest]) (*connect.Response[api.SessionResponse], error) {
	var resolution makemode.Resolution
	switch req.Msg.Resolution {
	case api.ResolutionOnlyThis:
		resolution = makemode.CatchUpOnlyThis
	case api.ResolutionAll:
		resolution = makemode.CatchUpAll
	default:
		return nil, invalidArgument(fmt.Errorf("unknown resolution: %q", req.Msg.Resolution))
	}

	session, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if err := session.ResolveCatchUp(resolution); err != nil {
		return nil, toConnectError(err)
	}
	return s.respond(req.Msg.SessionID, session), nil
}

// CancelCatchUp drops the pending catch-up decision without completing anything.
func (s *MakeModeService) CancelCatchUp(ctx context.Context, req *connect.Request[api.SessionRequest]) (*connect.Response[api.SessionResponse], error) {
	session, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if err := session.CancelCatchUp(); err != nil {
		return nil, toConnectError(err)
	}
	return s.respond(req.Msg.SessionID, session), nil
}

// StartTimer starts a step's timer. The response carries any "start later"
// suggestion the start raised.
func (s *MakeModeService) StartTimer(ctx context.Context, req *connect.Request[api.StepRequest]) (*connect.Response[api.SessionResponse], error) {
	session, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err := session.StartTimer(req.Msg.StepIndex); err != nil {
		return nil, toConnectError(err)
	}
	return s.respond(req.Msg.SessionID, session), nil
}

// AcceptSuggestion starts one suggested timer from now.
func (s *MakeModeService) AcceptSuggestion(ctx context.Context, req *connect.Request[api.StepRequest]) (*connect.Response[api.SessionResponse], error) {
	session, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if err := session.AcceptSuggestion(req.Msg.StepIndex); err != nil {
		return nil, toConnectError(err)
	}
	return s.respond(req.Msg.SessionID, session), nil
}

// DismissSuggestion clears the pending suggestion.
func (s *MakeModeService) DismissSuggestion(ctx context.Context, req *connect.Request[api.SessionRequest]) (*connect.Response[api.SessionResponse], error) {
	session, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if err := session.DismissSuggestion(); err != nil {
		return nil, toConnectError(err)
	}
	return s.respond(req.Msg.SessionID, session), nil
}

// EndSession closes a session and discards its progress.
func (s *MakeModeService) EndSession(ctx context.Context, req *connect.Request[api.SessionRequest]) (*connect.Response[emptypb.Empty], error) {
	if err := s.sessions.End(middleware.GetUserID(ctx), req.Msg.SessionID); err != nil {
		return nil, toConnectError(err)
	}
	s.logger.Info("Make mode session ended", "session_id", req.Msg.SessionID)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *MakeModeService) session(ctx context.Context, id string) (*makemode.Session, error) {
	if id == "" {
		return nil, invalidArgument(errors.New("sessionId is required"))
	}
	session, err := s.sessions.Get(middleware.GetUserID(ctx), id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return session, nil
}

func (s *MakeModeService) respond(id string, session *makemode.Session) *connect.Response[api.SessionResponse] {
	resp := toAPISession(id, session.View())
	return connect.NewResponse(&resp)
}

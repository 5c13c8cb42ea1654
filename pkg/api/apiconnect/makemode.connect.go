package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/scrtch/pkg/api"
)

// MakeModeServiceName is the fully-qualified name of the MakeModeService service.
const MakeModeServiceName = "scrtch.v1.MakeModeService"

// Procedure names of MakeModeService.
const (
	MakeModeServiceStartSessionProcedure      = "/scrtch.v1.MakeModeService/StartSession"
	MakeModeServiceGetSessionProcedure        = "/scrtch.v1.MakeModeService/GetSession"
	MakeModeServiceCompleteStepProcedure      = "/scrtch.v1.MakeModeService/CompleteStep"
	MakeModeServiceResolveCatchUpProcedure    = "/scrtch.v1.MakeModeService/ResolveCatchUp"
	MakeModeServiceCancelCatchUpProcedure     = "/scrtch.v1.MakeModeService/CancelCatchUp"
	MakeModeServiceStartTimerProcedure        = "/scrtch.v1.MakeModeService/StartTimer"
	MakeModeServiceAcceptSuggestionProcedure  = "/scrtch.v1.MakeModeService/AcceptSuggestion"
	MakeModeServiceDismissSuggestionProcedure = "/scrtch.v1.MakeModeService/DismissSuggestion"
	MakeModeServiceEndSessionProcedure        = "/scrtch.v1.MakeModeService/EndSession"
)

// MakeModeServiceHandler is implemented by the guided cooking server.
type MakeModeServiceHandler interface {
	StartSession(context.Context, *connect.Request[api.StartSessionRequest]) (*connect.Response[api.SessionResponse], error)
	GetSession(context.Context, *connect.Request[api.SessionRequest]) (*connect.Response[api.SessionResponse], error)
	CompleteStep(context.Context, *connect.Request[api.StepRequest]) (*connect.Response[api.CompleteStepResponse], error)
	ResolveCatchUp(context.Context, *connect.Request[api.ResolveCatchUpRequest]) (*connect.Response[api.SessionResponse], error)
	CancelCatchUp(context.Context, *connect.Request[api.SessionRequest]) (*connect.Response[api.SessionResponse], error)
	StartTimer(context.Context, *connect.Request[api.StepRequest]) (*connect.Response[api.SessionResponse], error)
	AcceptSuggestion(context.Context, *connect.Request[api.StepRequest]) (*connect.Response[api.SessionResponse], error)
	DismissSuggestion(context.Context, *connect.Request[api.SessionRequest]) (*connect.Response[api.SessionResponse], error)
	EndSession(context.Context, *connect.Request[api.SessionRequest]) (*connect.Response[emptypb.Empty], error)
}

// NewMakeModeServiceHandler builds an HTTP handler from the service
// implementation.
func NewMakeModeServiceHandler(svc MakeModeServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	handlers := map[string]http.Handler{
		MakeModeServiceStartSessionProcedure:      connect.NewUnaryHandler(MakeModeServiceStartSessionProcedure, svc.StartSession, opts...),
		MakeModeServiceGetSessionProcedure:        connect.NewUnaryHandler(MakeModeServiceGetSessionProcedure, svc.GetSession, opts...),
		MakeModeServiceCompleteStepProcedure:      connect.NewUnaryHandler(MakeModeServiceCompleteStepProcedure, svc.CompleteStep, opts...),
		MakeModeServiceResolveCatchUpProcedure:    connect.NewUnaryHandler(MakeModeServiceResolveCatchUpProcedure, svc.ResolveCatchUp, opts...),
		MakeModeServiceCancelCatchUpProcedure:     connect.NewUnaryHandler(MakeModeServiceCancelCatchUpProcedure, svc.CancelCatchUp, opts...),
		MakeModeServiceStartTimerProcedure:        connect.NewUnaryHandler(MakeModeServiceStartTimerProcedure, svc.StartTimer, opts...),
		MakeModeServiceAcceptSuggestionProcedure:  connect.NewUnaryHandler(MakeModeServiceAcceptSuggestionProcedure, svc.AcceptSuggestion, opts...),
		MakeModeServiceDismissSuggestionProcedure: connect.NewUnaryHandler(MakeModeServiceDismissSuggestionProcedure, svc.DismissSuggestion, opts...),
		MakeModeServiceEndSessionProcedure:        connect.NewUnaryHandler(MakeModeServiceEndSessionProcedure, svc.EndSession, opts...),
	}

	return "/" + MakeModeServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// MakeModeServiceClient is a client for MakeModeService.
type MakeModeServiceClient interface {
	StartSession(context.Context, *connect.Request[api.StartSessionRequest]) (*connect.Response[api.SessionResponse], error)
	GetSession(context.Context, *connect.Request[api.SessionRequest]) (*connect.Response[api.SessionResponse], error)
	CompleteStep(context.Context, *connect.Request[api.StepRequest]) (*connect.Response[api.CompleteStepResponse], error)
	ResolveCatchUp(context.Context, *connect.Request[api.ResolveCatchUpRequest]) (*connect.Response[api.SessionResponse], error)
	CancelCatchUp(context.Context, *connect.Request[api.SessionRequest]) (*connect.Response[api.SessionResponse], error)
	StartTimer(context.Context, *connect.Request[api.StepRequest]) (*connect.Response[api.SessionResponse], error)
	AcceptSuggestion(context.Context, *connect.Request[api.StepRequest]) (*connect.Response[api.SessionResponse], error)
	DismissSuggestion(context.Context, *connect.Request[api.SessionRequest]) (*connect.Response[api.SessionResponse], error)
	EndSession(context.Context, *connect.Request[api.SessionRequest]) (*connect.Response[emptypb.Empty], error)
}

// NewMakeModeServiceClient constructs a client for MakeModeService at baseURL.
func NewMakeModeServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) MakeModeServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &makeModeServiceClient{
		start:      connect.NewClient[api.StartSessionRequest, api.SessionResponse](httpClient, baseURL+MakeModeServiceStartSessionProcedure, opts...),
		get:        connect.NewClient[api.SessionRequest, api.SessionResponse](httpClient, baseURL+MakeModeServiceGetSessionProcedure, opts...),
		complete:   connect.NewClient[api.StepRequest, api.CompleteStepResponse](httpClient, baseURL+MakeModeServiceCompleteStepProcedure, opts...),
		resolve:    connect.NewClient[api.ResolveCatchUpRequest, api.SessionResponse](httpClient, baseURL+MakeModeServiceResolveCatchUpProcedure, opts...),
		cancel:     connect.NewClient[api.SessionRequest, api.SessionResponse](httpClient, baseURL+MakeModeServiceCancelCatchUpProcedure, opts...),
		startTimer: connect.NewClient[api.StepRequest, api.SessionResponse](httpClient, baseURL+MakeModeServiceStartTimerProcedure, opts...),
		accept:     connect.NewClient[api.StepRequest, api.SessionResponse](httpClient, baseURL+MakeModeServiceAcceptSuggestionProcedure, opts...),
		dismiss:    connect.NewClient[api.SessionRequest, api.SessionResponse](httpClient, baseURL+MakeModeServiceDismissSuggestionProcedure, opts...),
		end:        connect.NewClient[api.SessionRequest, emptypb.Empty](httpClient, baseURL+MakeModeServiceEndSessionProcedure, opts...),
	}
}

type makeModeServiceClient struct {
	start      *connect.Client[api.StartSessionRequest, api.SessionResponse]
	get        *connect.Client[api.SessionRequest, api.SessionResponse]
	complete   *connect.Client[api.StepRequest, api.CompleteStepResponse]
	resolve    *connect.Client[api.ResolveCatchUpRequest, api.SessionResponse]
	cancel     *connect.Client[api.SessionRequest, api.SessionResponse]
	startTimer *connect.Client[api.StepRequest, api.SessionResponse]
	accept     *connect.Client[api.StepRequest, api.SessionResponse]
	dismiss    *connect.Client[api.SessionRequest, api.SessionResponse]
	end        *connect.Client[api.SessionRequest, emptypb.Empty]
}

func (c *makeModeServiceClient) StartSession(ctx context.Context, req *connect.Request[api.StartSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.start.CallUnary(ctx, req)
}

func (c *makeModeServiceClient) GetSession(ctx context.Context, req *connect.Request[api.SessionRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.get.CallUnary(ctx, req)
}

func (c *makeModeServiceClient) CompleteStep(ctx context.Context, req *connect.Request[api.StepRequest]) (*connect.Response[api.CompleteStepResponse], error) {
	return c.complete.CallUnary(ctx, req)
}

func (c *makeModeServiceClient) ResolveCatchUp(ctx context.Context, req *connect.Request[api.ResolveCatchUpRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.resolve.CallUnary(ctx, req)
}

func (c *makeModeServiceClient) CancelCatchUp(ctx context.Context, req *connect.Request[api.SessionRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.cancel.CallUnary(ctx, req)
}

func (c *makeModeServiceClient) StartTimer(ctx context.Context, req *connect.Request[api.StepRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.startTimer.CallUnary(ctx, req)
}

func (c *makeModeServiceClient) AcceptSuggestion(ctx context.Context, req *connect.Request[api.StepRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.accept.CallUnary(ctx, req)
}

func (c *makeModeServiceClient) DismissSuggestion(ctx context.Context, req *connect.Request[api.SessionRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.dismiss.CallUnary(ctx, req)
}

func (c *makeModeServiceClient) EndSession(ctx context.Context, req *connect.Request[api.SessionRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.end.CallUnary(ctx, req)
}

package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/scrtch/pkg/api"
)

// ProfileServiceName is the fully-qualified name of the ProfileService service.
const ProfileServiceName = "scrtch.v1.ProfileService"

// Procedure names of ProfileService.
const (
	ProfileServiceGetProfileProcedure    = "/scrtch.v1.ProfileService/GetProfile"
	ProfileServiceUpdateProfileProcedure = "/scrtch.v1.ProfileService/UpdateProfile"
)

// ProfileServiceHandler is implemented by the profile server.
type ProfileServiceHandler interface {
	GetProfile(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ProfileResponse], error)
	UpdateProfile(context.Context, *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.ProfileResponse], error)
}

// NewProfileServiceHandler builds an HTTP handler from the service
// implementation.
func NewProfileServiceHandler(svc ProfileServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	get := connect.NewUnaryHandler(ProfileServiceGetProfileProcedure, svc.GetProfile, opts...)
	update := connect.NewUnaryHandler(ProfileServiceUpdateProfileProcedure, svc.UpdateProfile, opts...)

	return "/" + ProfileServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ProfileServiceGetProfileProcedure:
			get.ServeHTTP(w, r)
		case ProfileServiceUpdateProfileProcedure:
			update.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// ProfileServiceClient is a client for ProfileService.
type ProfileServiceClient interface {
	GetProfile(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ProfileResponse], error)
	UpdateProfile(context.Context, *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.ProfileResponse], error)
}

// NewProfileServiceClient constructs a client for ProfileService at baseURL.
func NewProfileServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ProfileServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &profileServiceClient{
		get:    connect.NewClient[emptypb.Empty, api.ProfileResponse](httpClient, baseURL+ProfileServiceGetProfileProcedure, opts...),
		update: connect.NewClient[api.UpdateProfileRequest, api.ProfileResponse](httpClient, baseURL+ProfileServiceUpdateProfileProcedure, opts...),
	}
}

type profileServiceClient struct {
	get    *connect.Client[emptypb.Empty, api.ProfileResponse]
	update *connect.Client[api.UpdateProfileRequest, api.ProfileResponse]
}

func (c *profileServiceClient) GetProfile(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ProfileResponse], error) {
	return c.get.CallUnary(ctx, req)
}

func (c *profileServiceClient) UpdateProfile(ctx context.Context, req *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.ProfileResponse], error) {
	return c.update.CallUnary(ctx, req)
}

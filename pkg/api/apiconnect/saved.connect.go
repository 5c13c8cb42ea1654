package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/scrtch/pkg/api"
)

// SavedServiceName is the fully-qualified name of the SavedService service.
const SavedServiceName = "scrtch.v1.SavedService"

// Procedure names of SavedService.
const (
	SavedServiceSaveRecipeProcedure    = "/scrtch.v1.SavedService/SaveRecipe"
	SavedServiceUnsaveRecipeProcedure  = "/scrtch.v1.SavedService/UnsaveRecipe"
	SavedServiceListSavedIDsProcedure  = "/scrtch.v1.SavedService/ListSavedIDs"
	SavedServiceGetRecipeBookProcedure = "/scrtch.v1.SavedService/GetRecipeBook"
	SavedServiceWatchSavedProcedure    = "/scrtch.v1.SavedService/WatchSaved"
	SavedServiceWatchSavedIDsProcedure = "/scrtch.v1.SavedService/WatchSavedIDs"
)

// SavedServiceHandler is implemented by the saved-recipes server. Every
// call acts on the signed-in caller's recipe book.
type SavedServiceHandler interface {
	SaveRecipe(context.Context, *connect.Request[api.SaveRecipeRequest]) (*connect.Response[emptypb.Empty], error)
	UnsaveRecipe(context.Context, *connect.Request[api.UnsaveRecipeRequest]) (*connect.Response[emptypb.Empty], error)
	ListSavedIDs(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.SavedIDsResponse], error)
	GetRecipeBook(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.RecipeBookResponse], error)
	WatchSaved(context.Context, *connect.Request[api.WatchSavedRequest], *connect.ServerStream[api.SavedState]) error
	WatchSavedIDs(context.Context, *connect.Request[emptypb.Empty], *connect.ServerStream[api.SavedIDsResponse]) error
}

// NewSavedServiceHandler builds an HTTP handler from the service
// implementation.
func NewSavedServiceHandler(svc SavedServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	save := connect.NewUnaryHandler(SavedServiceSaveRecipeProcedure, svc.SaveRecipe, opts...)
	unsave := connect.NewUnaryHandler(SavedServiceUnsaveRecipeProcedure, svc.UnsaveRecipe, opts...)
	listIDs := connect.NewUnaryHandler(SavedServiceListSavedIDsProcedure, svc.ListSavedIDs, opts...)
	book := connect.NewUnaryHandler(SavedServiceGetRecipeBookProcedure, svc.GetRecipeBook, opts...)
	watch := connect.NewServerStreamHandler(SavedServiceWatchSavedProcedure, svc.WatchSaved, opts...)
	watchIDs := connect.NewServerStreamHandler(SavedServiceWatchSavedIDsProcedure, svc.WatchSavedIDs, opts...)

	return "/" + SavedServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SavedServiceSaveRecipeProcedure:
			save.ServeHTTP(w, r)
		case SavedServiceUnsaveRecipeProcedure:
			unsave.ServeHTTP(w, r)
		case SavedServiceListSavedIDsProcedure:
			listIDs.ServeHTTP(w, r)
		case SavedServiceGetRecipeBookProcedure:
			book.ServeHTTP(w, r)
		case SavedServiceWatchSavedProcedure:
			watch.ServeHTTP(w, r)
		case SavedServiceWatchSavedIDsProcedure:
			watchIDs.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// SavedServiceClient is a client for SavedService.
type SavedServiceClient interface {
	SaveRecipe(context.Context, *connect.Request[api.SaveRecipeRequest]) (*connect.Response[emptypb.Empty], error)
	UnsaveRecipe(context.Context, *connect.Request[api.UnsaveRecipeRequest]) (*connect.Response[emptypb.Empty], error)
	ListSavedIDs(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.SavedIDsResponse], error)
	GetRecipeBook(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.RecipeBookResponse], error)
	WatchSaved(context.Context, *connect.Request[api.WatchSavedRequest]) (*connect.ServerStreamForClient[api.SavedState], error)
	WatchSavedIDs(context.Context, *connect.Request[emptypb.Empty]) (*connect.ServerStreamForClient[api.SavedIDsResponse], error)
}

// NewSavedServiceClient constructs a client for SavedService at baseURL.
func NewSavedServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SavedServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &savedServiceClient{
		save:     connect.NewClient[api.SaveRecipeRequest, emptypb.Empty](httpClient, baseURL+SavedServiceSaveRecipeProcedure, opts...),
		unsave:   connect.NewClient[api.UnsaveRecipeRequest, emptypb.Empty](httpClient, baseURL+SavedServiceUnsaveRecipeProcedure, opts...),
		listIDs:  connect.NewClient[emptypb.Empty, api.SavedIDsResponse](httpClient, baseURL+SavedServiceListSavedIDsProcedure, opts...),
		book:     connect.NewClient[emptypb.Empty, api.RecipeBookResponse](httpClient, baseURL+SavedServiceGetRecipeBookProcedure, opts...),
		watch:    connect.NewClient[api.WatchSavedRequest, api.SavedState](httpClient, baseURL+SavedServiceWatchSavedProcedure, opts...),
		watchIDs: connect.NewClient[emptypb.Empty, api.SavedIDsResponse](httpClient, baseURL+SavedServiceWatchSavedIDsProcedure, opts...),
	}
}

type savedServiceClient struct {
	save     *connect.Client[api.SaveRecipeRequest, emptypb.Empty]
	unsave   *connect.Client[api.UnsaveRecipeRequest, emptypb.Empty]
	listIDs  *connect.Client[emptypb.Empty, api.SavedIDsResponse]
	book     *connect.Client[emptypb.Empty, api.RecipeBookResponse]
	watch    *connect.Client[api.WatchSavedRequest, api.SavedState]
	watchIDs *connect.Client[emptypb.Empty, api.SavedIDsResponse]
}

func (c *savedServiceClient) SaveRecipe(ctx context.Context, req *connect.Request[api.SaveRecipeRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.save.CallUnary(ctx, req)
}

func (c *savedServiceClient) UnsaveRecipe(ctx context.Context, req *connect.Request[api.UnsaveRecipeRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.unsave.CallUnary(ctx, req)
}

func (c *savedServiceClient) ListSavedIDs(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.SavedIDsResponse], error) {
	return c.listIDs.CallUnary(ctx, req)
}

func (c *savedServiceClient) GetRecipeBook(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.RecipeBookResponse], error) {
	return c.book.CallUnary(ctx, req)
}

func (c *savedServiceClient) WatchSaved(ctx context.Context, req *connect.Request[api.WatchSavedRequest]) (*connect.ServerStreamForClient[api.SavedState], error) {
	return c.watch.CallServerStream(ctx, req)
}

func (c *savedServiceClient) WatchSavedIDs(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.ServerStreamForClient[api.SavedIDsResponse], error) {
	return c.watchIDs.CallServerStream(ctx, req)
}

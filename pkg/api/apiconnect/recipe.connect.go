package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/scrtch/pkg/api"
)

// RecipeServiceName is the fully-qualified name of the RecipeService service.
const RecipeServiceName = "scrtch.v1.RecipeService"

// Procedure names of RecipeService.
const (
	RecipeServiceListRecipesProcedure  = "/scrtch.v1.RecipeService/ListRecipes"
	RecipeServiceGetRecipeProcedure    = "/scrtch.v1.RecipeService/GetRecipe"
	RecipeServiceCreateRecipeProcedure = "/scrtch.v1.RecipeService/CreateRecipe"
	RecipeServiceUpdateRecipeProcedure = "/scrtch.v1.RecipeService/UpdateRecipe"
	RecipeServiceForkRecipeProcedure   = "/scrtch.v1.RecipeService/ForkRecipe"
)

// RecipeServiceHandler is implemented by the recipe catalogue server.
type RecipeServiceHandler interface {
	ListRecipes(context.Context, *connect.Request[api.ListRecipesRequest]) (*connect.Response[api.ListRecipesResponse], error)
	GetRecipe(context.Context, *connect.Request[api.GetRecipeRequest]) (*connect.Response[api.GetRecipeResponse], error)
	CreateRecipe(context.Context, *connect.Request[api.CreateRecipeRequest]) (*connect.Response[api.CreateRecipeResponse], error)
	UpdateRecipe(context.Context, *connect.Request[api.UpdateRecipeRequest]) (*connect.Response[api.UpdateRecipeResponse], error)
	ForkRecipe(context.Context, *connect.Request[api.ForkRecipeRequest]) (*connect.Response[api.ForkRecipeResponse], error)
}

// NewRecipeServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewRecipeServiceHandler(svc RecipeServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	list := connect.NewUnaryHandler(RecipeServiceListRecipesProcedure, svc.ListRecipes, opts...)
	get := connect.NewUnaryHandler(RecipeServiceGetRecipeProcedure, svc.GetRecipe, opts...)
	create := connect.NewUnaryHandler(RecipeServiceCreateRecipeProcedure, svc.CreateRecipe, opts...)
	update := connect.NewUnaryHandler(RecipeServiceUpdateRecipeProcedure, svc.UpdateRecipe, opts...)
	fork := connect.NewUnaryHandler(RecipeServiceForkRecipeProcedure, svc.ForkRecipe, opts...)

	return "/" + RecipeServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case RecipeServiceListRecipesProcedure:
			list.ServeHTTP(w, r)
		case RecipeServiceGetRecipeProcedure:
			get.ServeHTTP(w, r)
		case RecipeServiceCreateRecipeProcedure:
			create.ServeHTTP(w, r)
		case RecipeServiceUpdateRecipeProcedure:
			update.ServeHTTP(w, r)
		case RecipeServiceForkRecipeProcedure:
			fork.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// RecipeServiceClient is a client for RecipeService.
type RecipeServiceClient interface {
	ListRecipes(context.Context, *connect.Request[api.ListRecipesRequest]) (*connect.Response[api.ListRecipesResponse], error)
	GetRecipe(context.Context, *connect.Request[api.GetRecipeRequest]) (*connect.Response[api.GetRecipeResponse], error)
	CreateRecipe(context.Context, *connect.Request[api.CreateRecipeRequest]) (*connect.Response[api.CreateRecipeResponse], error)
	UpdateRecipe(context.Context, *connect.Request[api.UpdateRecipeRequest]) (*connect.Response[api.UpdateRecipeResponse], error)
	ForkRecipe(context.Context, *connect.Request[api.ForkRecipeRequest]) (*connect.Response[api.ForkRecipeResponse], error)
}

// NewRecipeServiceClient constructs a client for RecipeService at baseURL,
// e.g. http://localhost:8080.
func NewRecipeServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) RecipeServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &recipeServiceClient{
		list:   connect.NewClient[api.ListRecipesRequest, api.ListRecipesResponse](httpClient, baseURL+RecipeServiceListRecipesProcedure, opts...),
		get:    connect.NewClient[api.GetRecipeRequest, api.GetRecipeResponse](httpClient, baseURL+RecipeServiceGetRecipeProcedure, opts...),
		create: connect.NewClient[api.CreateRecipeRequest, api.CreateRecipeResponse](httpClient, baseURL+RecipeServiceCreateRecipeProcedure, opts...),
		update: connect.NewClient[api.UpdateRecipeRequest, api.UpdateRecipeResponse](httpClient, baseURL+RecipeServiceUpdateRecipeProcedure, opts...),
		fork:   connect.NewClient[api.ForkRecipeRequest, api.ForkRecipeResponse](httpClient, baseURL+RecipeServiceForkRecipeProcedure, opts...),
	}
}

type recipeServiceClient struct {
	list   *connect.Client[api.ListRecipesRequest, api.ListRecipesResponse]
	get    *connect.Client[api.GetRecipeRequest, api.GetRecipeResponse]
	create *connect.Client[api.CreateRecipeRequest, api.CreateRecipeResponse]
	update *connect.Client[api.UpdateRecipeRequest, api.UpdateRecipeResponse]
	fork   *connect.Client[api.ForkRecipeRequest, api.ForkRecipeResponse]
}

func (c *recipeServiceClient) ListRecipes(ctx context.Context, req *connect.Request[api.ListRecipesRequest]) (*connect.Response[api.ListRecipesResponse], error) {
	return c.list.CallUnary(ctx, req)
}

func (c *recipeServiceClient) GetRecipe(ctx context.Context, req *connect.Request[api.GetRecipeRequest]) (*connect.Response[api.GetRecipeResponse], error) {
	return c.get.CallUnary(ctx, req)
}

func (c *recipeServiceClient) CreateRecipe(ctx context.Context, req *connect.Request[api.CreateRecipeRequest]) (*connect.Response[api.CreateRecipeResponse], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *recipeServiceClient) UpdateRecipe(ctx context.Context, req *connect.Request[api.UpdateRecipeRequest]) (*connect.Response[api.UpdateRecipeResponse], error) {
	return c.update.CallUnary(ctx, req)
}

func (c *recipeServiceClient) ForkRecipe(ctx context.Context, req *connect.Request[api.ForkRecipeRequest]) (*connect.Response[api.ForkRecipeResponse], error) {
	return c.fork.CallUnary(ctx, req)
}

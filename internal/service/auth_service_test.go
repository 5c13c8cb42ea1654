package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/scrtch/pkg/api"
)

func TestAuthService_Register(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:    "Alice@Example.com",
		Password: "correct-horse",
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Msg.Token)
	assert.NotNil(t, resp.Msg.ExpiresAt)
	assert.Equal(t, "alice@example.com", resp.Msg.User.Email)
	assert.Equal(t, "alice", resp.Msg.User.DisplayName)

	claims, err := env.jwt.Validate(resp.Msg.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Msg.User.ID, claims.UserID)

	tests := []struct {
		name string
		req  *api.RegisterRequest
		code connect.Code
	}{
		{"duplicate email", &api.RegisterRequest{Email: "alice@example.com", Password: "another-pass"}, connect.CodeAlreadyExists},
		{"missing email", &api.RegisterRequest{Password: "correct-horse"}, connect.CodeInvalidArgument},
		{"bad email", &api.RegisterRequest{Email: "not-an-email", Password: "correct-horse"}, connect.CodeInvalidArgument},
		{"weak password", &api.RegisterRequest{Email: "bob@example.com", Password: "short"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, connect.NewRequest(tt.req))
			assertCode(t, err, tt.code)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       "cook@example.com",
		DisplayName: "Cook",
		Password:    "correct-horse",
	}))
	require.NoError(t, err)

	resp, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "cook@example.com", Password: "correct-horse"}))
	require.NoError(t, err)
	assert.Equal(t, registered.Msg.User.ID, resp.Msg.User.ID)
	assert.NotEmpty(t, resp.Msg.Token)

	_, err = env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "cook@example.com", Password: "wrong-horse"}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "cook@example.com"}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       "cook@example.com",
		DisplayName: "Cook",
		Password:    "correct-horse",
	}))
	require.NoError(t, err)

	me, err := env.auth.GetCurrentUser(ctx, as(registered.Msg.Token, &emptypb.Empty{}))
	require.NoError(t, err)
	assert.Equal(t, "Cook", me.Msg.User.DisplayName)
	assert.NotNil(t, me.Msg.User.CreatedAt)

	_, err = env.auth.GetCurrentUser(ctx, connect.NewRequest(&emptypb.Empty{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = env.auth.GetCurrentUser(ctx, as(env.token(t, "deleted-user"), &emptypb.Empty{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = env.auth.Logout(ctx, as(registered.Msg.Token, &emptypb.Empty{}))
	require.NoError(t, err)
}

func TestAuthService_LogoutStopsRecipeSubscription(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.token(t, "alice")

	_, err := env.recipes.ListRecipes(ctx, as(alice, &api.ListRecipesRequest{}))
	require.NoError(t, err)
	require.True(t, env.repo.Listening("alice"))

	_, err = env.auth.Logout(ctx, as(alice, &emptypb.Empty{}))
	require.NoError(t, err)
	assert.False(t, env.repo.Listening("alice"))
	assert.True(t, env.repo.Listening(""), "the shared public subscription stays open")

	_, err = env.auth.Logout(ctx, connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err, "signed out logout is a no-op")
}

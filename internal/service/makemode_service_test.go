package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/scrtch/pkg/api"
)

func TestMakeModeCatchUp(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.token(t, "alice")

	started, err := env.makeMode.StartSession(ctx, as(alice, &api.StartSessionRequest{RecipeID: "cinnamon-rolls-base"}))
	require.NoError(t, err)
	id := started.Msg.SessionID
	require.NotEmpty(t, id)
	assert.Equal(t, "Cinnamon Rolls (Base Recipe)", started.Msg.Session.Title)
	assert.Len(t, started.Msg.Session.Steps, 9)
	assert.Equal(t, 0, started.Msg.Session.ActiveIndex)
	assert.True(t, started.Msg.Session.Steps[0].Active)

	done, err := env.makeMode.CompleteStep(ctx, as(alice, &api.StepRequest{SessionID: id, StepIndex: 0}))
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Msg.Outcome)
	assert.Equal(t, 1, done.Msg.Session.ActiveIndex)

	ahead, err := env.makeMode.CompleteStep(ctx, as(alice, &api.StepRequest{SessionID: id, StepIndex: 3}))
	require.NoError(t, err)
	assert.Equal(t, "catch_up", ahead.Msg.Outcome)
	require.NotNil(t, ahead.Msg.Session.CatchUp)
	assert.Equal(t, api.CatchUp{Target: 3, Active: 1}, *ahead.Msg.Session.CatchUp)

	_, err = env.makeMode.CompleteStep(ctx, as(alice, &api.StepRequest{SessionID: id, StepIndex: 1}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	_, err = env.makeMode.ResolveCatchUp(ctx, as(alice, &api.ResolveCatchUpRequest{SessionID: id, Resolution: "maybe"}))
	assertCode(t, err, connect.CodeInvalidArgument)

	resolved, err := env.makeMode.ResolveCatchUp(ctx, as(alice, &api.ResolveCatchUpRequest{SessionID: id, Resolution: api.ResolutionAll}))
	require.NoError(t, err)
	assert.Nil(t, resolved.Msg.Session.CatchUp)
	assert.Equal(t, []int{0, 1, 2, 3}, resolved.Msg.Session.Completed)
	assert.Equal(t, 4, resolved.Msg.Session.ActiveIndex)

	_, err = env.makeMode.CancelCatchUp(ctx, as(alice, &api.SessionRequest{SessionID: id}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	undone, err := env.makeMode.CompleteStep(ctx, as(alice, &api.StepRequest{SessionID: id, StepIndex: 2}))
	require.NoError(t, err)
	assert.Equal(t, "undone", undone.Msg.Outcome)
	assert.Equal(t, 2, undone.Msg.Session.ActiveIndex)

	_, err = env.makeMode.CompleteStep(ctx, as(alice, &api.StepRequest{SessionID: id, StepIndex: 42}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestMakeModeTimers(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.token(t, "alice")

	started, err := env.makeMode.StartSession(ctx, as(alice, &api.StartSessionRequest{RecipeID: "cinnamon-rolls-base"}))
	require.NoError(t, err)
	id := started.Msg.SessionID

	_, err = env.makeMode.StartTimer(ctx, as(alice, &api.StepRequest{SessionID: id, StepIndex: 1}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	_, err = env.makeMode.AcceptSuggestion(ctx, as(alice, &api.StepRequest{SessionID: id, StepIndex: 7}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	bloom, err := env.makeMode.StartTimer(ctx, as(alice, &api.StepRequest{SessionID: id, StepIndex: 0}))
	require.NoError(t, err)
	view := bloom.Msg.Session
	require.Len(t, view.Timers, 1)
	assert.Equal(t, "Yeast bloom", view.Timers[0].Label)
	assert.InDelta(t, 300, view.Timers[0].RemainingSeconds, 2)

	require.NotNil(t, view.Suggestion)
	assert.Equal(t, "Yeast bloom", view.Suggestion.BaseLabel)
	assert.Equal(t, []api.SuggestedTimer{{StepIndex: 7, Label: "Start icing in…", Seconds: 1200}}, view.Suggestion.Items)

	accepted, err := env.makeMode.AcceptSuggestion(ctx, as(alice, &api.StepRequest{SessionID: id, StepIndex: 7}))
	require.NoError(t, err)
	assert.Nil(t, accepted.Msg.Session.Suggestion)
	require.Len(t, accepted.Msg.Session.Timers, 2)

	rise, err := env.makeMode.StartTimer(ctx, as(alice, &api.StepRequest{SessionID: id, StepIndex: 2}))
	require.NoError(t, err)
	assert.Nil(t, rise.Msg.Session.Suggestion, "running \"in\" timers are not offered again")
	assert.Len(t, rise.Msg.Session.Timers, 3)

	_, err = env.makeMode.DismissSuggestion(ctx, as(alice, &api.SessionRequest{SessionID: id}))
	assertCode(t, err, connect.CodeFailedPrecondition)
}

func TestMakeModeSessions(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice, bob := env.token(t, "alice"), env.token(t, "bob")

	_, err := env.makeMode.StartSession(ctx, as(alice, &api.StartSessionRequest{RecipeID: "nonexistent-id"}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = env.makeMode.GetSession(ctx, as(alice, &api.SessionRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)

	started, err := env.makeMode.StartSession(ctx, as(alice, &api.StartSessionRequest{RecipeID: "cheesy-christmas-tree"}))
	require.NoError(t, err)
	id := started.Msg.SessionID

	_, err = env.makeMode.GetSession(ctx, as(bob, &api.SessionRequest{SessionID: id}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = env.makeMode.EndSession(ctx, as(bob, &api.SessionRequest{SessionID: id}))
	assertCode(t, err, connect.CodeNotFound)

	got, err := env.makeMode.GetSession(ctx, as(alice, &api.SessionRequest{SessionID: id}))
	require.NoError(t, err)
	assert.Equal(t, "cheesy-christmas-tree", got.Msg.Session.RecipeID)
	assert.Empty(t, got.Msg.Session.Completed)

	_, err = env.makeMode.EndSession(ctx, as(alice, &api.SessionRequest{SessionID: id}))
	require.NoError(t, err)

	_, err = env.makeMode.GetSession(ctx, as(alice, &api.SessionRequest{SessionID: id}))
	assertCode(t, err, connect.CodeNotFound)

	t.Run("signed out sessions", func(t *testing.T) {
		anon, err := env.makeMode.StartSession(ctx, connect.NewRequest(&api.StartSessionRequest{RecipeID: "cheesy-christmas-tree"}))
		require.NoError(t, err)

		got, err := env.makeMode.GetSession(ctx, connect.NewRequest(&api.SessionRequest{SessionID: anon.Msg.SessionID}))
		require.NoError(t, err)
		assert.Equal(t, "Cheesy Christmas Tree", got.Msg.Session.Title)
	})
}

package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.minekube.com/brigodier"
	"go.minekube.com/common/minecraft/component"

	"github.com/portalmc/portal/pkg/internal/suggest"
)

type testSource struct{ sent []component.Component }

func (s *testSource) SendMessage(msg component.Component) error {
	s.sent = append(s.sent, msg)
	return nil
}

func TestManager(t *testing.T) {
	var m Manager
	src := &testSource{}

	var gotSource Source
	m.Register(brigodier.Literal("hello").Executes(Command(func(c *Context) error {
		gotSource = c.Source
		return c.SendMessage(&component.Text{Content: "world"})
	})))

	require.True(t, m.Has("hello"))
	require.True(t, m.Has("HELLO"))
	require.False(t, m.Has("other"))

	require.NoError(t, m.Do(context.TODO(), src, "hello"))
	require.Same(t, src, gotSource)
	require.Len(t, src.sent, 1)
}

func TestManager_Arguments(t *testing.T) {
	var m Manager
	var got string
	m.Register(brigodier.Literal("server").Then(
		brigodier.Argument("name", brigodier.String).
			Executes(Command(func(c *Context) error {
				got = c.String("name")
				return nil
			})),
	))

	require.NoError(t, m.Do(context.TODO(), &testSource{}, "server lobby"))
	require.Equal(t, "lobby", got)
}

func TestManager_Forward(t *testing.T) {
	var m Manager
	m.Register(brigodier.Literal("fwd").Executes(Command(func(*Context) error {
		return ErrForward
	})))

	err := m.Do(context.TODO(), &testSource{}, "fwd")
	require.ErrorIs(t, err, ErrForward)
}

func TestManager_UnknownCommand(t *testing.T) {
	var m Manager
	err := m.Do(context.TODO(), &testSource{}, "nope")
	require.True(t, errors.Is(err, brigodier.ErrDispatcherUnknownCommand))
}

func TestManager_RequiresSource(t *testing.T) {
	var m Manager
	m.Register(brigodier.Literal("x"))
	err := m.Do(context.TODO(), nil, "x")
	require.Error(t, err)
}

func TestManager_OfferSuggestions(t *testing.T) {
	var m Manager
	m.Register(brigodier.Literal("server").Then(
		brigodier.Argument("name", brigodier.String).
			Suggests(suggest.ProviderFunc(func(
				_ *brigodier.CommandContext, b *brigodier.SuggestionsBuilder,
			) *brigodier.Suggestions {
				b.Suggest("lobby")
				b.Suggest("survival")
				return b.Build()
			})),
	))

	offers, err := m.OfferSuggestions(context.TODO(), &testSource{}, "server ")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"lobby", "survival"}, offers)
}

package mdxsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestCompileKnownComponent(t *testing.T) {
	s := New(2, []string{"Chart"})
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := s.Compile(ctx, Request{Component: "Chart", Props: map[string]string{"data": "sales"}})
	assert.NoError(t, err)
	assert.True(t, len(resp.ModuleID) > 0)
}

func TestCompileUnknownComponent(t *testing.T) {
	s := New(1, []string{"Chart"})
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := s.Compile(ctx, Request{Component: "Nope"})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownComponent))
}

func TestModuleIDDeterministic(t *testing.T) {
	s := New(1, []string{"Chart"})
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	a, err1 := s.Compile(ctx, Request{Component: "Chart", Props: map[string]string{"data": "sales", "kind": "bar"}})
	b, err2 := s.Compile(ctx, Request{Component: "Chart", Props: map[string]string{"kind": "bar", "data": "sales"}})
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, a.ModuleID, b.ModuleID)
}

package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	id       string
	closeErr error
	closed   int
}

func (p *stubProvider) ID() string        { return p.id }
func (p *stubProvider) Type() Type        { return OpenAI }
func (p *stubProvider) IsAvailable() bool { return true }
func (p *stubProvider) Close() error {
	p.closed++
	return p.closeErr
}
func (p *stubProvider) ListModels(context.Context) ([]ModelInfo, error) { return nil, nil }
func (p *stubProvider) Generate(context.Context, string, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return nil, errors.New("not implemented")
}

func TestRegistry_RegisterGet(t *testing.T) {
	r := NewRegistry()
	p := &stubProvider{id: "llm"}
	require.NoError(t, r.Register(p))

	got, err := r.Get("llm")
	require.NoError(t, err)
	assert.Same(t, p, got)

	assert.Error(t, r.Register(&stubProvider{id: "llm"}))
	assert.Error(t, r.Register(&stubProvider{}))
	assert.Error(t, r.Register(nil))

	_, err = r.Get("missing")
	assert.Error(t, err)
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry()
	a := &stubProvider{id: "a"}
	b := &stubProvider{id: "b", closeErr: errors.New("boom")}
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))

	r.CloseAll()
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)

	_, err := r.Get("a")
	assert.Error(t, err)

	r.CloseAll()
	assert.Equal(t, 1, a.closed)
	require.NoError(t, r.Register(a))
}

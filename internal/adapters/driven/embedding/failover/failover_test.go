package failover

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vec        []float32
	err        error
	dimensions int
	calls      int
	closed     bool
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEmbedder) Dimensions() int   { return f.dimensions }
func (f *fakeEmbedder) ModelName() string { return "fake" }
func (f *fakeEmbedder) Close() error {
	f.closed = true
	return nil
}

func TestNewRejectsDimensionMismatch(t *testing.T) {
	primary := &fakeEmbedder{dimensions: 512}
	fallback := &fakeEmbedder{dimensions: 256}

	_, err := New(primary, fallback)

	assert.Error(t, err)
}

func TestEmbedUsesPrimary(t *testing.T) {
	primary := &fakeEmbedder{vec: []float32{1, 2}, dimensions: 2}
	fallback := &fakeEmbedder{vec: []float32{9, 9}, dimensions: 2}
	svc, err := New(primary, fallback)
	require.NoError(t, err)

	vec, err := svc.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)
	assert.Zero(t, fallback.calls)
}

func TestEmbedFailsOverOnce(t *testing.T) {
	primary := &fakeEmbedder{err: errors.New("provider down"), dimensions: 2}
	fallback := &fakeEmbedder{vec: []float32{9, 9}, dimensions: 2}
	svc, err := New(primary, fallback)
	require.NoError(t, err)

	vec, err := svc.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{9, 9}, vec)
	assert.Equal(t, 1, primary.calls, "primary is tried exactly once per call")
	assert.Equal(t, 1, fallback.calls)
}

func TestEmbedFallbackFailurePropagates(t *testing.T) {
	primary := &fakeEmbedder{err: errors.New("provider down"), dimensions: 2}
	fallback := &fakeEmbedder{err: errors.New("also down"), dimensions: 2}
	svc, err := New(primary, fallback)
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "hello")

	assert.Error(t, err)
}

func TestCloseClosesBoth(t *testing.T) {
	primary := &fakeEmbedder{dimensions: 2}
	fallback := &fakeEmbedder{dimensions: 2}
	svc, err := New(primary, fallback)
	require.NoError(t, err)

	require.NoError(t, svc.Close())

	assert.True(t, primary.closed)
	assert.True(t, fallback.closed)
}

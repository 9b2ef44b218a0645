package model

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/awairs/internal/backend"
	"github.com/ekisa-team/awairs/internal/config"
	"github.com/ekisa-team/awairs/internal/inference"
	"github.com/ekisa-team/awairs/internal/metrics"
	"github.com/ekisa-team/awairs/internal/source"
)

// --- Mock types ---

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	args := m.Called(ctx, rawURL)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Provider() backend.Provider {
	return backend.ProviderONNXRuntime
}

func (m *MockBackend) Load(ctx context.Context, modelID string, artifact []byte, options map[string]any) (backend.Session, error) {
	args := m.Called(ctx, modelID, artifact, options)
	if s, ok := args.Get(0).(backend.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) Close() error {
	return nil
}

type MockSession struct {
	mock.Mock
}

func (m *MockSession) Inputs() []backend.TensorInfo  { return nil }
func (m *MockSession) Outputs() []backend.TensorInfo { return nil }

func (m *MockSession) Run(ctx context.Context, inputs []backend.Tensor, outputNames []string) ([]backend.Tensor, error) {
	args := m.Called(ctx, inputs, outputNames)
	out, _ := args.Get(0).([]backend.Tensor)
	return out, args.Error(1)
}

func (m *MockSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Helpers ---

const linearURL = "https://models.example.com/linear/model.onnx"

func testConfig() *config.Config {
	return &config.Config{
		Models: map[string]config.ModelConfig{
			config.ModelLinear: {URL: linearURL},
			config.ModelLSTM:   {URL: "https://models.example.com/lstm/model.onnx", InputShape: []int64{1, 5, 6}},
		},
	}
}

// --- Tests ---

func TestManager_LoadsOnceAndReuses(t *testing.T) {
	fetcher := new(MockFetcher)
	b := new(MockBackend)
	session := new(MockSession)
	collector := metrics.NewCollector()

	fetcher.On("Fetch", mock.Anything, linearURL).Return([]byte("onnx"), nil).Once()
	b.On("Load", mock.Anything, config.ModelLinear, []byte("onnx"), mock.Anything).Return(session, nil).Once()

	m := NewManager(testConfig(), b, fetcher, collector)

	for range 3 {
		got, err := m.Session(context.Background(), config.ModelLinear)
		require.NoError(t, err)
		assert.Same(t, session, got)
	}

	fetcher.AssertNumberOfCalls(t, "Fetch", 1)
	b.AssertNumberOfCalls(t, "Load", 1)

	instance, ok := m.Registry().Get(config.ModelLinear)
	require.True(t, ok)
	assert.Equal(t, StatusLoaded, instance.Status())

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.ModelsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.ModelFetches.WithLabelValues(config.ModelLinear, "ok")))
}

func TestManager_ConcurrentFirstAccessFetchesOnce(t *testing.T) {
	var fetches atomic.Int32
	release := make(chan struct{})

	fetcher := source.FetcherFunc(func(ctx context.Context, rawURL string) ([]byte, error) {
		fetches.Add(1)
		<-release
		return []byte("onnx"), nil
	})

	b := new(MockBackend)
	session := new(MockSession)
	b.On("Load", mock.Anything, config.ModelLinear, mock.Anything, mock.Anything).Return(session, nil)

	m := NewManager(testConfig(), b, fetcher, nil)

	const callers = 16
	var wg sync.WaitGroup
	results := make([]backend.Session, callers)
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = m.Session(context.Background(), config.ModelLinear)
		}()
	}

	close(release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Same(t, session, results[i])
	}
	assert.Equal(t, int32(1), fetches.Load())
	b.AssertNumberOfCalls(t, "Load", 1)
}

func TestManager_FetchFailureIsRetried(t *testing.T) {
	fetcher := new(MockFetcher)
	b := new(MockBackend)
	session := new(MockSession)
	collector := metrics.NewCollector()

	fetcher.On("Fetch", mock.Anything, linearURL).Return(nil, errors.New("connection reset")).Once()
	fetcher.On("Fetch", mock.Anything, linearURL).Return([]byte("onnx"), nil).Once()
	b.On("Load", mock.Anything, config.ModelLinear, []byte("onnx"), mock.Anything).Return(session, nil).Once()

	m := NewManager(testConfig(), b, fetcher, collector)

	_, err := m.Session(context.Background(), config.ModelLinear)
	require.Error(t, err)
	assert.Equal(t, inference.KindFetch, inference.KindOf(err))
	assert.True(t, inference.IsRetryable(err))
	assert.Contains(t, err.Error(), "connection reset")

	instance, _ := m.Registry().Get(config.ModelLinear)
	assert.Equal(t, StatusFailed, instance.Status())
	assert.Contains(t, instance.Info().Error, "connection reset")

	got, err := m.Session(context.Background(), config.ModelLinear)
	require.NoError(t, err)
	assert.Same(t, session, got)

	fetcher.AssertNumberOfCalls(t, "Fetch", 2)
	assert.Equal(t, StatusLoaded, instance.Status())
	assert.Empty(t, instance.Info().Error)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.ModelFetches.WithLabelValues(config.ModelLinear, "error")))
}

func TestManager_BackendFailureIsRuntimeError(t *testing.T) {
	fetcher := new(MockFetcher)
	b := new(MockBackend)

	fetcher.On("Fetch", mock.Anything, linearURL).Return([]byte("garbage"), nil)
	b.On("Load", mock.Anything, config.ModelLinear, []byte("garbage"), mock.Anything).Return(nil, errors.New("invalid protobuf"))

	m := NewManager(testConfig(), b, fetcher, nil)

	_, err := m.Session(context.Background(), config.ModelLinear)
	require.Error(t, err)
	assert.Equal(t, inference.KindRuntime, inference.KindOf(err))
	assert.False(t, inference.IsRetryable(err))
}

func TestManager_UnknownModel(t *testing.T) {
	m := NewManager(testConfig(), new(MockBackend), new(MockFetcher), nil)

	_, err := m.Session(context.Background(), "random-forest")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, inference.KindConfig, inference.KindOf(err))
}

func TestManager_CallerCancellationDoesNotAbortLoad(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fetcher := source.FetcherFunc(func(ctx context.Context, rawURL string) ([]byte, error) {
		close(started)
		<-release
		return []byte("onnx"), ctx.Err()
	})

	b := new(MockBackend)
	session := new(MockSession)
	b.On("Load", mock.Anything, config.ModelLinear, mock.Anything, mock.Anything).Return(session, nil)

	m := NewManager(testConfig(), b, fetcher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Session(ctx, config.ModelLinear)
		done <- err
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	got, err := m.Session(context.Background(), config.ModelLinear)
	require.NoError(t, err)
	assert.Same(t, session, got)
}

func TestManager_StatusListenerAndClose(t *testing.T) {
	fetcher := new(MockFetcher)
	b := new(MockBackend)
	session := new(MockSession)
	collector := metrics.NewCollector()

	fetcher.On("Fetch", mock.Anything, linearURL).Return([]byte("onnx"), nil)
	b.On("Load", mock.Anything, config.ModelLinear, mock.Anything, mock.Anything).Return(session, nil)
	session.On("Close").Return(nil).Once()

	m := NewManager(testConfig(), b, fetcher, collector)

	var mu sync.Mutex
	var seen []Status
	m.OnStatusChange(func(id string, status Status) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, status)
	})

	_, err := m.Session(context.Background(), config.ModelLinear)
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusLoading, StatusLoaded}, seen)

	infos := m.List()
	require.Len(t, infos, 2)
	assert.Equal(t, config.ModelLinear, infos[0].ID)
	assert.Equal(t, StatusLoaded, infos[0].Status)
	assert.NotNil(t, infos[0].LoadedAt)
	assert.Equal(t, config.ModelLSTM, infos[1].ID)
	assert.Equal(t, StatusUnloaded, infos[1].Status)
	assert.Nil(t, infos[1].LoadedAt)

	require.NoError(t, m.Close())
	session.AssertExpectations(t)
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.ModelsLoaded))
}

func TestManager_Preload(t *testing.T) {
	cfg := testConfig()
	lstm := cfg.Models[config.ModelLSTM]
	lstm.Preload = true
	cfg.Models[config.ModelLSTM] = lstm

	fetcher := new(MockFetcher)
	b := new(MockBackend)
	session := new(MockSession)

	fetcher.On("Fetch", mock.Anything, lstm.URL).Return([]byte("onnx"), nil).Once()
	b.On("Load", mock.Anything, config.ModelLSTM, mock.Anything, mock.Anything).Return(session, nil)

	m := NewManager(cfg, b, fetcher, nil)

	loaded := make(chan string, 2)
	m.OnStatusChange(func(id string, status Status) {
		if status == StatusLoaded {
			loaded <- id
		}
	})

	m.Preload(context.Background())
	assert.Equal(t, config.ModelLSTM, <-loaded)

	instance, _ := m.Registry().Get(config.ModelLinear)
	assert.Equal(t, StatusUnloaded, instance.Status())
	fetcher.AssertNumberOfCalls(t, "Fetch", 1)
}

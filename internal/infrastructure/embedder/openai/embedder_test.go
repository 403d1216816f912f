package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/memora/internal/infrastructure/config"
)

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EmbedderConfig
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			cfg:     config.EmbedderConfig{APIKey: "test-key"},
			wantErr: false,
		},
		{
			name: "valid config with model and base url",
			cfg: config.EmbedderConfig{
				APIKey:  "test-key",
				Model:   "text-embedding-ada-002",
				BaseURL: "http://localhost:9999/v1",
			},
			wantErr: false,
		},
		{
			name:    "missing API key",
			cfg:     config.EmbedderConfig{},
			wantErr: true,
			errMsg:  "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder, err := NewEmbedder(tt.cfg)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, embedder)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, embedder)
			}
		})
	}
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// fakeAPI answers embeddings requests with [len(input), index] vectors,
// listed in reverse order to exercise index mapping.
func fakeAPI(t *testing.T, requests *[]embeddingRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		*requests = append(*requests, req)

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i])), float32(i)},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbedder_EmbedBatch(t *testing.T) {
	var requests []embeddingRequest
	srv := fakeAPI(t, &requests)

	e, err := NewEmbedder(config.EmbedderConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	got, err := e.EmbedBatch(context.Background(), []string{"a", "bbb", "cc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {3, 1}, {2, 2}}, got)

	require.Len(t, requests, 1)
	assert.Equal(t, "text-embedding-3-small", requests[0].Model)
}

func TestEmbedder_EmbedBatch_Chunks(t *testing.T) {
	var requests []embeddingRequest
	srv := fakeAPI(t, &requests)

	e, err := NewEmbedder(config.EmbedderConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	texts := make([]string, maxBatch+3)
	for i := range texts {
		texts[i] = "story"
	}
	got, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, got, len(texts))
	require.Len(t, requests, 2)
	assert.Len(t, requests[0].Input, maxBatch)
	assert.Len(t, requests[1].Input, 3)
	assert.Equal(t, float32(2), got[maxBatch+2][1], "indices restart per chunk")
}

func TestEmbedder_Embed(t *testing.T) {
	var requests []embeddingRequest
	srv := fakeAPI(t, &requests)

	e, err := NewEmbedder(config.EmbedderConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	got, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 0}, got)

	empty, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
	assert.Len(t, requests, 1)
}

func TestEmbedder_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)

	e, err := NewEmbedder(config.EmbedderConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating embeddings")
}

func TestVectorSize(t *testing.T) {
	assert.Equal(t, 1536, VectorSize)
}

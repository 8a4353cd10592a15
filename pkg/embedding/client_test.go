package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedServer(t *testing.T, vec []float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.URL.Path != "/api/embed" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req embedReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Input)
		json.NewEncoder(w).Encode(embedResp{Embeddings: [][]float64{vec}})
	}))
}

func TestEmbed_Success(t *testing.T) {
	ts := embedServer(t, []float64{0.1, 0.2, 0.3})
	defer ts.Close()

	a := New(ts.URL, "test-model")
	vec, ok := a.Embed(context.Background(), "hello")
	require.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestEmbed_UnreachableDegradesSilently(t *testing.T) {
	a := New("http://127.0.0.1:1", "test-model")
	vec, ok := a.Embed(context.Background(), "hello")
	assert.False(t, ok)
	assert.Nil(t, vec)
}

func TestEmbed_HTTPErrorDegrades(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := New(ts.URL, "test-model")
	_, ok := a.Embed(context.Background(), "hello")
	assert.False(t, ok)
}

func TestEmbed_MalformedResponseDegrades(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	a := New(ts.URL, "test-model")
	_, ok := a.Embed(context.Background(), "hello")
	assert.False(t, ok)
}

func TestAvailable_ProbeCached(t *testing.T) {
	probes := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes++
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := New(ts.URL, "test-model")
	assert.True(t, a.Available(context.Background()))
	assert.True(t, a.Available(context.Background()))
	assert.Equal(t, 1, probes, "probe result is cached per adapter")
}

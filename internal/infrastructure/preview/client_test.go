package preview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-video-intake/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleReq = domain.PreviewRequest{
	URL:       "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	Email:     "alice@example.com",
	VideoID:   "dQw4w9WgXcQ",
	ClientIP:  "1.2.3.4",
	UserAgent: "test",
}

func TestProcess_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/preview", r.URL.Path)
		var got domain.PreviewRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, sampleReq, got)
		_, _ = w.Write([]byte(`{"previewId":"pv_123","pricing":{"suggested_price_usd":12.5}}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL+"/", srv.Client()).Process(context.Background(), sampleReq)
	require.NoError(t, err)
	assert.Equal(t, "pv_123", res.PreviewID)
	require.NotNil(t, res.SuggestedPriceUSD)
	assert.InDelta(t, 12.5, *res.SuggestedPriceUSD, 1e-9)
}

func TestProcess_NoPricing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"previewId":"pv_1"}`))
	}))
	defer srv.Close()
	res, err := NewClient(srv.URL, nil).Process(context.Background(), sampleReq)
	require.NoError(t, err)
	assert.Nil(t, res.SuggestedPriceUSD)
}

func TestProcess_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		},
		"bad json": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
		"missing id": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"pricing":{}}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := NewClient(srv.URL, nil).Process(context.Background(), sampleReq)
			assert.ErrorIs(t, err, domain.ErrPreviewFailed)
		})
	}
}

func TestProcess_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL, nil).Process(ctx, sampleReq)
	assert.ErrorIs(t, err, domain.ErrPreviewFailed)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

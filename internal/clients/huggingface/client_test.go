package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vidgen/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUrlWithID(t *testing.T) {
	cases := []struct {
		template string
		id       string
		want     string
	}{
		{"https://hub/api/models/{id}", "THUDM/CogVideoX-2b", "https://hub/api/models/THUDM/CogVideoX-2b"},
		{"https://hub/api/models/%s", "a/b", "https://hub/api/models/a/b"},
		{"https://hub/api/models/", "a/b", "https://hub/api/models/a/b"},
		{"https://hub/api/models", "a/b c", "https://hub/api/models/a/b%20c"},
		{"  ", "a/b", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, urlWithID(tc.template, tc.id), tc.template)
	}
}

func TestModelInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/models/stabilityai/stable-video-diffusion-img2vid-xt":
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{
				"id": "stabilityai/stable-video-diffusion-img2vid-xt",
				"sha": "9e43909513c6714f1bc78bcb44d96e733cd242aa",
				"lastModified": "2024-07-10T11:42:45.000Z",
				"gated": "auto",
				"downloads": 1200,
				"pipeline_tag": "image-to-video"
			}`))
		default:
			http.Error(w, `{"error":"Repository not found"}`, http.StatusNotFound)
		}
	}))
	defer srv.Close()

	hf := NewHfClient(config.HubConfig{
		ApiUrl:  srv.URL + "/api/models/{id}",
		Token:   "secret",
		Timeout: 5 * time.Second,
	})

	info, err := hf.ModelInfo(context.Background(), "stabilityai/stable-video-diffusion-img2vid-xt")
	require.NoError(t, err)
	assert.Equal(t, "9e43909513c6714f1bc78bcb44d96e733cd242aa", info.Sha)
	assert.True(t, info.Gated.Gated())
	assert.Equal(t, "image-to-video", info.PipelineTag)
	assert.True(t, info.LastModified.Equal(time.Date(2024, 7, 10, 11, 42, 45, 0, time.UTC)))

	_, err = hf.ModelInfo(context.Background(), "missing/model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Repository not found")

	_, err = hf.ModelInfo(context.Background(), " ")
	assert.Error(t, err)
}

func TestGatedFlag_UnmarshalJSON(t *testing.T) {
	cases := map[string]bool{
		`false`:    false,
		`null`:     false,
		`true`:     true,
		`"auto"`:   true,
		`"manual"`: true,
		`"false"`:  false,
	}

	for in, want := range cases {
		var g GatedFlag
		require.NoError(t, json.Unmarshal([]byte(in), &g), in)
		assert.Equal(t, want, g.Gated(), in)
	}

	var g GatedFlag
	assert.Error(t, json.Unmarshal([]byte(`12`), &g))
}

package huggingface

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"vidgen/config"
	"vidgen/internal/clients/transport"
)

type Hf struct {
	api_key    string
	httpClient *http.Client

	modelInfoUrl string
}

func NewHfClient(config config.HubConfig) *Hf {

	return &Hf{
		api_key:      config.Token,
		modelInfoUrl: config.ApiUrl,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				if len(via) > 0 {
					if auth := via[0].Header.Get("Authorization"); auth != "" {
						req.Header.Set("Authorization", auth)
					}
				}
				return nil
			},
		},
	}
}

// urlWithID keeps the "org/name" slash of repo ids intact and escapes each segment.
func urlWithID(template, id string) string {
	template = strings.TrimSpace(template)
	if template == "" {
		return ""
	}

	segments := strings.Split(id, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	id = strings.Join(segments, "/")

	if strings.Contains(template, "{id}") {
		return strings.ReplaceAll(template, "{id}", id)
	}
	if strings.Contains(template, "%s") {
		// Allows config like: "https://.../%s"
		return fmt.Sprintf(template, id)
	}
	if strings.HasSuffix(template, "/") {
		return template + id
	}
	return template + "/" + id
}

// ModelInfo looks up a model repository on the hub.
func (hf *Hf) ModelInfo(ctx context.Context, id string) (ModelInfo, error) {

	id = strings.TrimSpace(id)
	if id == "" {
		return ModelInfo{}, errors.New("missing model id")
	}

	headers := map[string]string{"Accept": "application/json"}
	if hf.api_key != "" {
		headers["Authorization"] = "Bearer " + hf.api_key
	}

	resp, err := transport.Get[ModelInfo](hf.httpClient, ctx, urlWithID(hf.modelInfoUrl, id), headers)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("model info %s: %w", id, err)
	}

	return resp, nil
}

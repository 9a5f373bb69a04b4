package huggingface

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ModelInfo is the subset of the hub's /api/models/{id} payload we report on.
type ModelInfo struct {
	Id           string       `json:"id"`
	Sha          string       `json:"sha"`
	LastModified FlexibleTime `json:"lastModified"`
	Private      bool         `json:"private"`
	Gated        GatedFlag    `json:"gated"`
	Disabled     bool         `json:"disabled"`
	Downloads    int64        `json:"downloads"`
	Likes        int64        `json:"likes"`
	PipelineTag  string       `json:"pipeline_tag"`
	LibraryName  string       `json:"library_name"`
	Tags         []string     `json:"tags"`
}

// GatedFlag is false for open repos. Gated repos report their approval mode
// ("auto" or "manual"), which some API versions send as a bare true.
type GatedFlag string

func (g GatedFlag) Gated() bool { return g != "" }

func (g *GatedFlag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte("false")):
		*g = ""
		return nil
	case bytes.Equal(b, []byte("true")):
		*g = "true"
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid gated value %s", string(b))
	}
	if v, err := strconv.ParseBool(s); err == nil && !v {
		s = ""
	}
	*g = GatedFlag(s)
	return nil
}

package huggingface

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// FlexibleTime unmarshals hub timestamps that may be RFC3339/RFC3339Nano or lack a timezone.
type FlexibleTime struct {
	time.Time
}

var flexibleLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999", // no tz, fractional seconds
	"2006-01-02T15:04:05",           // no tz
	"2006-01-02",
}

func (t *FlexibleTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("invalid time JSON: %q", string(b))
	}

	s := strings.TrimSpace(string(b[1 : len(b)-1]))
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range flexibleLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("invalid time %q", s)
}

// String renders the date for reports, or "unknown" when the hub sent nothing.
func (t FlexibleTime) String() string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02")
}

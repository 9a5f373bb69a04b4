package utils

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout renders as YYYYMMDD_HHMMSS.
const TimestampLayout = "20060102_150405"

const (
	imageOutputPrefix = "output_img2video_"
	textOutputPrefix  = "output_text2video_"
	videoExt          = ".mp4"
)

// IsRemote reports whether an image reference should be fetched over HTTP.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http")
}

// InputStem returns the basename of ref without its extension. For URLs only
// the path component is considered, so query strings never leak into names.
func InputStem(ref string) string {
	base := filepath.Base(ref)
	if IsRemote(ref) {
		if u, err := url.Parse(ref); err == nil {
			base = path.Base(u.Path)
		}
	}
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func ImageOutputName(input string, now time.Time) string {
	return fmt.Sprintf("%s%s_%s%s", imageOutputPrefix, InputStem(input), now.Format(TimestampLayout), videoExt)
}

func TextOutputName(now time.Time) string {
	return fmt.Sprintf("%s%s%s", textOutputPrefix, now.Format(TimestampLayout), videoExt)
}

// EnsureParentDir creates the directory that will hold file. A bare filename needs nothing.
func EnsureParentDir(file string) error {
	dir := filepath.Dir(file)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return nil
}

func NewRequestID() string {
	return uuid.NewString()
}

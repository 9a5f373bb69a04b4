package preprocess

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"

	"vidgen/config"
	"vidgen/internal/clients/transport"
	"vidgen/utils"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const maxDownloadBytes = 64 << 20

// Loader reads an image from a local path or an http(s) URL.
type Loader struct {
	httpClient *http.Client
	headers    map[string]string
}

func NewLoader(cfg config.FetchConfig) *Loader {
	return &Loader{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		headers:    map[string]string{"User-Agent": cfg.UserAgent},
	}
}

// Load returns ref decoded as an opaque 8-bit RGB raster.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	var (
		img image.Image
		err error
	)

	if utils.IsRemote(ref) {
		var data []byte
		data, err = transport.Bytes(l.httpClient, ctx, ref, l.headers, maxDownloadBytes)
		if err != nil {
			return nil, fmt.Errorf("fetch image: %w", err)
		}
		img, err = imaging.Decode(bytes.NewReader(data))
	} else {
		img, err = imaging.Open(ref)
	}
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", ref, err)
	}

	return ToRGB(img), nil
}

// ToRGB drops the alpha channel: colour values are kept and every pixel becomes opaque.
func ToRGB(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

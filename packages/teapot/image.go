package teapot

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/abdul-hamid-achik/teapot/packages/http"
)

// ImageResult is either *ImageSuccess or *ImageFailure.
type ImageResult interface {
	Status() int
	imageResult()
}

type ImageSuccess struct {
	Image      image.Image
	Format     string
	StatusCode int
	Headers    map[string]string
}

type ImageFailure struct {
	StatusCode int
	Headers    map[string]string
	Error      *http.Error
}

func (s *ImageSuccess) Status() int { return s.StatusCode }
func (*ImageSuccess) imageResult() {}
func (f *ImageFailure) Status() int { return f.StatusCode }
func (*ImageFailure) imageResult() {}

// ImageCompletion receives the result of DownloadImage.
type ImageCompletion func(ImageResult)

// DownloadImage GETs path and decodes the body as a PNG, JPEG or GIF image.
// A body that does not decode fails with KindMissingImage.
func (c *Client) DownloadImage(path string, completion ImageCompletion, opts ...CallOption) *Handle {
	defaults := map[string]string{"Content-Type": imageContentType(c.baseURL)}
	return c.execute(http.MethodGet, path, nil, defaults, opts, func(out *http.Outcome, result http.Result) func() {
		ir := toImageResult(out, result)
		if completion == nil {
			return nil
		}
		return func() { completion(ir) }
	})
}

func toImageResult(out *http.Outcome, result http.Result) ImageResult {
	if f, ok := result.(*http.Failure); ok {
		return &ImageFailure{StatusCode: f.StatusCode, Headers: f.Headers, Error: f.Error}
	}

	s := result.(*http.Success)
	img, format, err := image.Decode(bytes.NewReader(out.Body))
	if err != nil {
		return &ImageFailure{StatusCode: s.StatusCode, Headers: s.Headers, Error: http.MissingImage(err)}
	}
	return &ImageSuccess{Image: img, Format: format, StatusCode: s.StatusCode, Headers: s.Headers}
}

func imageContentType(baseURL string) string {
	lower := strings.ToLower(baseURL)
	switch {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpg"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	default:
		return "image/png"
	}
}

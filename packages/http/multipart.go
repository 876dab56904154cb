package http

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/abdul-hamid-achik/teapot/packages/payload"
)

// MultipartField is the form field name every upload part is sent under.
const MultipartField = "image"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// MultipartContentType is the Content-Type header value matching a body
// built with boundary.
func MultipartContentType(boundary string) string {
	return mime.FormatMediaType("multipart/form-data", map[string]string{"boundary": boundary})
}

// MultipartBody wraps data in a single-part multipart/form-data body sent as
// application/octet-stream. Send it with MultipartContentType(boundary).
func MultipartBody(data []byte, boundary, filename string) (*payload.Payload, error) {
	return multipartBody(data, "application/octet-stream", boundary, filename)
}

// MultipartImageBody encodes img as PNG and wraps it like MultipartBody.
func MultipartImageBody(img image.Image, boundary, filename string) (*payload.Payload, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, MissingImage(err)
	}
	return multipartBody(buf.Bytes(), "image/png", boundary, filename)
}

func multipartBody(data []byte, contentType, boundary, filename string) (*payload.Payload, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, InvalidPayload(fmt.Errorf("multipart boundary %q: %w", boundary, err))
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		MultipartField, quoteEscaper.Replace(filename)))
	h.Set(contentTypeHeader, contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, InvalidPayload(err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, InvalidPayload(err)
	}
	if err := w.Close(); err != nil {
		return nil, InvalidPayload(err)
	}
	return payload.NewBytes(body.Bytes()), nil
}

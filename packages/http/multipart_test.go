package http

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readSinglePart(t *testing.T, body []byte, boundary string) (*multipart.Part, []byte) {
	t.Helper()
	r := multipart.NewReader(bytes.NewReader(body), boundary)
	part, err := r.NextPart()
	require.NoError(t, err)
	data, err := io.ReadAll(part)
	require.NoError(t, err)
	_, err = r.NextPart()
	assert.Equal(t, io.EOF, err)
	return part, data
}

func TestMultipartBody(t *testing.T) {
	p, err := MultipartBody([]byte("raw bytes"), "teapot-boundary", "avatar.bin")
	require.NoError(t, err)

	body, err := p.Bytes()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("--teapot-boundary\r\n")))
	assert.True(t, bytes.HasSuffix(body, []byte("\r\n--teapot-boundary--\r\n")))
	assert.False(t, p.IsJSON())

	part, data := readSinglePart(t, body, "teapot-boundary")
	assert.Equal(t, "image", part.FormName())
	assert.Equal(t, "avatar.bin", part.FileName())
	assert.Equal(t, "application/octet-stream", part.Header.Get("Content-Type"))
	assert.Equal(t, "raw bytes", string(data))
}

func TestMultipartImageBody(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	p, err := MultipartImageBody(img, "b0undary", `my "cat".png`)
	require.NoError(t, err)
	body, err := p.Bytes()
	require.NoError(t, err)

	part, data := readSinglePart(t, body, "b0undary")
	assert.Equal(t, `my "cat".png`, part.FileName())
	assert.Equal(t, "image/png", part.Header.Get("Content-Type"))

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestMultipartBody_RejectsBadBoundary(t *testing.T) {
	_, err := MultipartBody([]byte("x"), "", "f.bin")
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = MultipartBody([]byte("x"), "bad\nboundary", "f.bin")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestMultipartContentType(t *testing.T) {
	mediaType, params, err := mime.ParseMediaType(MultipartContentType("teapot-boundary"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	assert.Equal(t, "teapot-boundary", params["boundary"])
}

func TestBuildRequest_MultipartBodyKeepsCallerContentType(t *testing.T) {
	body, err := MultipartBody([]byte("data"), "xyz", "f.bin")
	require.NoError(t, err)

	req, err := BuildRequest(RequestSpec{
		BaseURL: "https://api.example.com",
		Path:    "upload",
		Method:  MethodPost,
		Headers: map[string]string{"Content-Type": MultipartContentType("xyz")},
		Body:    body,
	})
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data; boundary=xyz", req.Header("Content-Type"))

	_, data := readSinglePart(t, req.EncodedBody(), "xyz")
	assert.Equal(t, "data", string(data))
}

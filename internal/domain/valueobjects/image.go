package valueobjects

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"
	"sync"

	_ "golang.org/x/image/webp"

	"tryon-studio/internal/domain/errs"
)

type ImageFormat string

const (
	JPEG    ImageFormat = "jpeg"
	PNG     ImageFormat = "png"
	GIF     ImageFormat = "gif"
	WEBP    ImageFormat = "webp"
	Unknown ImageFormat = ""
)

const (
	MediaTypePNG  = "image/png"
	MediaTypeJPEG = "image/jpeg"
	MediaTypeWEBP = "image/webp"
)

// AcceptedMediaTypes is the advisory upload filter. Nothing is rejected for
// falling outside it.
var AcceptedMediaTypes = []string{MediaTypePNG, MediaTypeJPEG, MediaTypeWEBP}

// ImageData is an image owned by the session: raw bytes plus the media type
// declared for them. The base64 payload is derived from the same bytes on
// first use and cached, so payload and media type never disagree.
type ImageData struct {
	data      []byte
	mediaType string
	format    ImageFormat

	payloadOnce sync.Once
	payload     string
}

// DecodeImage reads an uploaded resource into an ImageData. Any read failure
// or an empty resource is reported as a read error.
func DecodeImage(r io.Reader, mediaType string) (*ImageData, error) {
	if r == nil {
		return nil, errs.Read(fmt.Errorf("no image resource"))
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Read(err)
	}
	return NewImageData(data, mediaType)
}

func NewImageData(data []byte, mediaType string) (*ImageData, error) {
	if len(data) == 0 {
		return nil, errs.Read(fmt.Errorf("image data cannot be empty"))
	}

	format := detectFormat(data)
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = mediaTypeFor(format, data)
	}

	return &ImageData{
		data:      data,
		mediaType: mediaType,
		format:    format,
	}, nil
}

// NewImageDataFromBase64 builds an ImageData from an already encoded payload.
func NewImageDataFromBase64(payload, mediaType string) (*ImageData, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errs.Read(fmt.Errorf("invalid base64 payload: %w", err))
	}
	img, err := NewImageData(data, mediaType)
	if err != nil {
		return nil, err
	}
	img.payloadOnce.Do(func() { img.payload = payload })
	return img, nil
}

func (i *ImageData) Data() []byte {
	return i.data
}

func (i *ImageData) MediaType() string {
	return i.mediaType
}

func (i *ImageData) Format() ImageFormat {
	return i.format
}

func (i *ImageData) Size() int {
	return len(i.data)
}

func (i *ImageData) IsPNG() bool {
	return i.format == PNG
}

// ContentType is the media type to serve the bytes with. It comes from the
// decoded format, never from the declared media type; undecodable data is
// served as application/octet-stream.
func (i *ImageData) ContentType() string {
	if i.format == Unknown {
		return "application/octet-stream"
	}
	return "image/" + string(i.format)
}

// Payload returns the base64 text of the image bytes.
func (i *ImageData) Payload() string {
	i.payloadOnce.Do(func() {
		i.payload = base64.StdEncoding.EncodeToString(i.data)
	})
	return i.payload
}

// ToPNG returns the image re-encoded as PNG. PNG input is returned as is.
func (i *ImageData) ToPNG() (*ImageData, error) {
	if i.IsPNG() {
		return i, nil
	}

	img, _, err := image.Decode(bytes.NewReader(i.data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode to PNG: %w", err)
	}

	return &ImageData{
		data:      buf.Bytes(),
		mediaType: MediaTypePNG,
		format:    PNG,
	}, nil
}

func detectFormat(data []byte) ImageFormat {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Unknown
	}

	switch format {
	case "jpeg":
		return JPEG
	case "png":
		return PNG
	case "gif":
		return GIF
	case "webp":
		return WEBP
	default:
		return Unknown
	}
}

func mediaTypeFor(format ImageFormat, data []byte) string {
	if format != Unknown {
		return "image/" + string(format)
	}
	return http.DetectContentType(data)
}

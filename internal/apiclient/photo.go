package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
)

// PhotoField is the multipart field carrying the image.
const PhotoField = "file"

func photoPath(deviceID string) string {
	return "/devices/" + url.PathEscape(deviceID) + "/photo"
}

// UploadPhoto sends the image as multipart/form-data.
func (c *Client) UploadPhoto(ctx context.Context, deviceID, filename string, image io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(PhotoField, filename)
	if err != nil {
		return fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	body := &Body{ContentType: mw.FormDataContentType(), Reader: &buf}
	if err := c.Do(ctx, http.MethodPatch, photoPath(deviceID), body, nil); err != nil {
		return fmt.Errorf("upload photo for %s: %w", deviceID, err)
	}
	return nil
}

// GetPhoto returns the stored image. found is false when the device has none.
func (c *Client) GetPhoto(ctx context.Context, deviceID string) (image []byte, found bool, err error) {
	if err := c.Do(ctx, http.MethodGet, photoPath(deviceID), nil, &image); err != nil {
		if errdefs.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get photo for %s: %w", deviceID, err)
	}
	return image, true, nil
}

// Package media wraps the external image host the application uploads to.
// The host is consumed as a black box: it takes a file and returns a public
// URL.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
)

// ErrUpstream reports a failure of the external image host.
var ErrUpstream = errors.New("media upload failed")

// Uploader accepts a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// HTTPUploader posts multipart uploads to an image host endpoint that
// responds with {"url": "..."}.
type HTTPUploader struct {
	endpoint string
	client   *http.Client
}

func NewHTTPUploader(endpoint string) *HTTPUploader {
	return &HTTPUploader{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		// The object key is regenerated per upload so clients cannot
		// overwrite each other's files.
		key := uuid.NewString() + path.Ext(filename)
		part, err := mw.CreateFormFile("file", key)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if body.URL == "" {
		return "", fmt.Errorf("%w: empty url in response", ErrUpstream)
	}
	return body.URL, nil
}

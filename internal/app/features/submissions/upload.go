// internal/app/features/submissions/upload.go
package submissions

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/dalemusser/academyhub/internal/app/system/outcome"
)

const (
	// MaxUploadBytes caps a multipart submission, files included.
	MaxUploadBytes = 20 << 20
	// MaxScreenshots is the most files one submission may carry.
	MaxScreenshots = 5

	formMemory = 8 << 20
)

func isMultipart(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "multipart/form-data"
}

// readUpload parses a multipart submission and stores its screenshots.
// The returned refs are also set on req.Screenshots.
func (h *Handler) readUpload(ctx context.Context, w http.ResponseWriter, r *http.Request) (submitRequest, []string, error) {
	var req submitRequest

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return req, nil, outcome.Invalidf("upload exceeds %d MB", MaxUploadBytes>>20)
		}
		return req, nil, outcome.Invalidf("malformed multipart body")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req.WeekID = strings.TrimSpace(r.FormValue("week_id"))
	req.Submission = r.FormValue("submission")

	files := r.MultipartForm.File["screenshots"]
	if len(files) == 0 {
		return req, nil, nil
	}
	if len(files) > MaxScreenshots {
		return req, nil, outcome.Invalidf("at most %d screenshots are allowed", MaxScreenshots)
	}
	if h.Evidence == nil {
		return req, nil, outcome.BadRequestf("screenshot uploads are not enabled")
	}

	var stored []string
	for _, fh := range files {
		ct := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "image/") {
			h.discard(stored)
			return req, nil, outcome.Invalidf("%s is not an image", fh.Filename)
		}
		f, err := fh.Open()
		if err != nil {
			h.discard(stored)
			return req, nil, outcome.Wrap(err, "open upload")
		}
		ref, err := h.Evidence.Put(ctx, fh.Filename, ct, f)
		_ = f.Close()
		if err != nil {
			h.discard(stored)
			return req, nil, outcome.Wrap(err, "store screenshot "+fh.Filename)
		}
		stored = append(stored, ref)
	}
	req.Screenshots = stored
	return req, stored, nil
}

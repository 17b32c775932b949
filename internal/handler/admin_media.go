package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/sgjo/shop-api/internal/domain/media"
)

// multipartOverhead is the slack allowed on top of media.MaxSize for the
// multipart envelope.
const multipartOverhead = 1 << 20

func (h *Handler) listMedia(c *gin.Context) {
	items, err := h.media.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]mediaJSON, len(items))
	for i, m := range items {
		out[i] = toMedia(m)
	}
	c.JSON(http.StatusOK, out)
}

func limitUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, media.MaxSize+multipartOverhead)
}

// formFile returns the uploaded file in field, or nil when the request has
// none. It must run before anything else parses the form.
func formFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, nil
		case errors.As(err, &tooLarge):
			return nil, media.ErrFileTooLarge
		default:
			return nil, badRequest("invalid multipart form")
		}
	}
	if fh.Size > media.MaxSize {
		return nil, media.ErrFileTooLarge
	}
	return fh, nil
}

func (h *Handler) storeUpload(c *gin.Context, fh *multipart.FileHeader) (*media.Media, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open upload")
	}
	defer func() { _ = f.Close() }()
	return h.media.Upload(c.Request.Context(), fh.Filename, f)
}

func (h *Handler) uploadMedia(c *gin.Context) {
	limitUpload(c)
	fh, err := formFile(c, "file")
	if err != nil {
		fail(c, err)
		return
	}
	if fh == nil {
		fail(c, badRequest("file required"))
		return
	}
	m, err := h.storeUpload(c, fh)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMedia(*m))
}

func (h *Handler) deleteMedia(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.media.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ok{OK: true})
}

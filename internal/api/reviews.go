package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/example/storefront/internal/model"
)

// ReviewMedia is one attachment uploaded with a review.
type ReviewMedia struct {
	Filename string
	Content  io.Reader
}

// ReviewDraft is a review before submission.
type ReviewDraft struct {
	Text   string
	Rating int
	Media  []ReviewMedia
}

// Reviews lists the reviews for a product.
func (c *Client) Reviews(ctx context.Context, productID int) ([]model.Review, error) {
	var reviews []model.Review
	path := fmt.Sprintf("/products/%d/reviews", productID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// AddReview submits a review for a product as a multipart form (the media
// attachments rule out plain JSON) and returns the stored review.
func (c *Client) AddReview(ctx context.Context, productID int, draft ReviewDraft) (*model.Review, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("text", draft.Text); err != nil {
		return nil, fmt.Errorf("encode review: %w", err)
	}
	if err := form.WriteField("rating", strconv.Itoa(draft.Rating)); err != nil {
		return nil, fmt.Errorf("encode review: %w", err)
	}
	for _, media := range draft.Media {
		part, err := form.CreateFormFile("mediaUrls", media.Filename)
		if err != nil {
			return nil, fmt.Errorf("encode review media: %w", err)
		}
		if _, err := io.Copy(part, media.Content); err != nil {
			return nil, fmt.Errorf("encode review media: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("encode review: %w", err)
	}

	path := fmt.Sprintf("/products/%d/reviews", productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var review model.Review
	if err := c.send(req, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

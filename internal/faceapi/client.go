// Package faceapi talks to the face analysis sidecar, a small HTTP service
// wrapping a face recognition model. It detects faces, computes 128-float
// embeddings and extracts facial landmarks from uploaded images.
package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kozaktomas/clockin/internal/verify"
)

const defaultBaseURL = "http://localhost:8800"

// Client calls the face analysis sidecar. It satisfies verify.Extractor.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a sidecar client. An empty baseURL falls back to the
// default local address.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// faceDetection is one detected face in an encode response.
type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
}

type encodeResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

type landmarksResponse struct {
	FacesCount int                            `json:"faces_count"`
	Faces      []map[string][]json.RawMessage `json:"faces"`
}

// postMultipartImage constructs a multipart form with the image data and
// posts it to the given endpoint. The part carries an explicit Content-Type
// header based on magic byte detection.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// DetectAndEncode detects faces in an image and returns their embeddings
// with bounding boxes, in the sidecar's detection order.
func (c *Client) DetectAndEncode(ctx context.Context, imageData []byte) ([]verify.FaceEncoding, error) {
	body, err := c.postMultipartImage(ctx, "/face/encode", imageData)
	if err != nil {
		return nil, err
	}

	var resp encodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	faces := make([]verify.FaceEncoding, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		faces = append(faces, verify.FaceEncoding{
			BBox:      f.BBox,
			Embedding: f.Embedding,
		})
	}
	return faces, nil
}

// Landmarks returns the named facial landmark groups for every face found
// in the image. Each group is a list of pixel coordinates.
func (c *Client) Landmarks(ctx context.Context, imageData []byte) ([]verify.LandmarkSet, error) {
	body, err := c.postMultipartImage(ctx, "/face/landmarks", imageData)
	if err != nil {
		return nil, err
	}

	var resp landmarksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	sets := make([]verify.LandmarkSet, 0, len(resp.Faces))
	for _, face := range resp.Faces {
		set := make(verify.LandmarkSet, len(face))
		for group, raw := range face {
			points := make([]verify.Point, 0, len(raw))
			for _, r := range raw {
				// The sidecar emits points as [x, y] pairs.
				var pair [2]float64
				if err := json.Unmarshal(r, &pair); err != nil {
					return nil, fmt.Errorf("failed to parse landmark point: %w", err)
				}
				points = append(points, verify.Point{X: pair[0], Y: pair[1]})
			}
			set[group] = points
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// detectMIMEType detects the MIME type from image data
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/clockin/internal/auth"
	"github.com/kozaktomas/clockin/internal/config"
	"github.com/kozaktomas/clockin/internal/database"
	"github.com/kozaktomas/clockin/internal/database/mock"
	"github.com/kozaktomas/clockin/internal/verify"
	"github.com/kozaktomas/clockin/internal/web/middleware"
)

const (
	testOfficeLat = 13.0129
	testOfficeLon = 80.2231

	// frame indexes ride on image width so they survive the liveness
	// decode and re-encode round-trip
	frameBaseWidth = 16
)

// testVerifyConfig mirrors production defaults with downscaling disabled so
// scripted frames keep their dimensions.
func testVerifyConfig() config.VerifyConfig {
	return config.VerifyConfig{
		EARThreshold:        0.25,
		ClosedFramesNeeded:  1,
		MovementThresholdPx: 20,
		MinTrackedPositions: 5,
		FrameScale:          1,
		MatchTolerance:      0.45,
	}
}

func testOffice() config.OfficeConfig {
	return config.OfficeConfig{Latitude: testOfficeLat, Longitude: testOfficeLon, RadiusKm: 0.5}
}

// makeJPEG builds a decodable JPEG whose width identifies the frame index.
func makeJPEG(t *testing.T, index int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, frameBaseWidth+index, 8))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test frame: %v", err)
	}
	return buf.Bytes()
}

// blinkLandmarks returns a landmark set with the given eye aspect ratio.
func blinkLandmarks(ear float64) verify.LandmarkSet {
	eye := []verify.Point{
		{X: 0, Y: 0},
		{X: 0.5, Y: ear},
		{X: 1.5, Y: ear},
		{X: 2, Y: 0},
		{X: 1.5, Y: -ear},
		{X: 0.5, Y: -ear},
	}
	return verify.LandmarkSet{
		verify.GroupLeftEye:  eye,
		verify.GroupRightEye: eye,
		verify.GroupNoseTip:  []verify.Point{{X: 50, Y: 50}},
	}
}

// fakeExtractor serves scripted faces and width-keyed frame landmarks.
type fakeExtractor struct {
	faces     []verify.FaceEncoding
	facesErr  error
	landmarks map[int]verify.LandmarkSet
}

func (f *fakeExtractor) DetectAndEncode(context.Context, []byte) ([]verify.FaceEncoding, error) {
	return f.faces, f.facesErr
}

func (f *fakeExtractor) Landmarks(_ context.Context, data []byte) ([]verify.LandmarkSet, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	set, ok := f.landmarks[img.Bounds().Dx()-frameBaseWidth]
	if !ok {
		return nil, nil
	}
	return []verify.LandmarkSet{set}, nil
}

// singleFaceExtractor builds an extractor reporting one face with the given
// embedding and a clean double-blink frame script.
func singleFaceExtractor(embedding []float32) *fakeExtractor {
	ears := []float64{0.30, 0.15, 0.30, 0.14, 0.31}
	landmarks := make(map[int]verify.LandmarkSet, len(ears))
	for i, ear := range ears {
		landmarks[i] = blinkLandmarks(ear)
	}
	return &fakeExtractor{
		faces:     []verify.FaceEncoding{{Embedding: embedding}},
		landmarks: landmarks,
	}
}

// blinkFrames returns frames matching singleFaceExtractor's script.
func blinkFrames(t *testing.T) [][]byte {
	t.Helper()
	frames := make([][]byte, 5)
	for i := range frames {
		frames[i] = makeJPEG(t, i)
	}
	return frames
}

type fakeBlobs struct {
	saved   int
	saveErr error
}

func (f *fakeBlobs) Save(context.Context, []byte) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved++
	return "blob.jpg", nil
}

// formFile is one file part of a multipart request.
type formFile struct {
	field string
	name  string
	data  []byte
}

// newMultipartRequest builds a multipart POST with fields and files.
func newMultipartRequest(t *testing.T, path string, fields map[string]string, files []formFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create form file %s: %v", f.field, err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("write form file %s: %v", f.field, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// withSession attaches an authenticated session to the request context.
func withSession(r *http.Request, session *middleware.Session) *http.Request {
	return r.WithContext(middleware.SetSessionInContext(r.Context(), session))
}

// withChiParams attaches chi URL parameters to the request context.
func withChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody unmarshals a JSON response body into out.
func decodeBody(t *testing.T, body io.Reader, out any) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

// seedEmployee stores an employee with a hashed password and returns it.
func seedEmployee(t *testing.T, repo *mock.MockEmployeeRepository, name, password, role string, template []float32) *database.Employee {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	emp := &database.Employee{
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		Template:     template,
	}
	if err := repo.Create(context.Background(), emp); err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	return emp
}

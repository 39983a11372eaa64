// Package verify implements the attendance verification pipeline: geofence
// evaluation, challenge-response liveness from a frame sequence, face identity
// matching against an enrolled template, and idempotent recording of the
// outcome.
package verify

import (
	"context"
	"time"
)

// Point is a 2D landmark coordinate in downscaled frame pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LandmarkSet maps a named landmark group (left_eye, right_eye, nose_tip)
// to its points for one detected face.
type LandmarkSet map[string][]Point

// Landmark group names as reported by the face extractor sidecar.
const (
	GroupLeftEye  = "left_eye"
	GroupRightEye = "right_eye"
	GroupNoseTip  = "nose_tip"
)

// FaceEncoding is one detected face region with its identity embedding.
type FaceEncoding struct {
	BBox      []float64 // [x1, y1, x2, y2] in pixels
	Embedding []float32
}

// Extractor is the external face/landmark extraction capability the
// pipeline consumes. Implemented by the faceapi client.
type Extractor interface {
	// DetectAndEncode returns zero or more detected faces with embeddings.
	DetectAndEncode(ctx context.Context, image []byte) ([]FaceEncoding, error)
	// Landmarks returns named landmark point groups per detected face.
	Landmarks(ctx context.Context, image []byte) ([]LandmarkSet, error)
}

// Outcome is one of the five terminal decision states of the pipeline.
type Outcome string

const (
	OutcomeAccepted         Outcome = "accepted"
	OutcomeRejectedGeofence Outcome = "rejected_geofence"
	OutcomeRejectedLiveness Outcome = "rejected_liveness"
	OutcomeRejectedIdentity Outcome = "rejected_identity"
	OutcomeAlreadyRecorded  Outcome = "already_recorded"
)

// Decision is the pipeline's output. Policy rejections are decisions, not
// errors; infrastructure failures are returned as errors instead.
type Decision struct {
	Outcome       Outcome `json:"outcome"`
	Reason        string  `json:"reason"`
	GeoDistanceKm float64 `json:"geo_distance_km"`
	MatchDistance float64 `json:"match_distance,omitempty"`
	CaptureRef    string  `json:"capture_ref,omitempty"`
}

// Accepted reports whether the decision committed a new attendance record.
func (d *Decision) Accepted() bool {
	return d.Outcome == OutcomeAccepted
}

// Record is the artifact handed to the attendance store for an accepted
// (or rejected, when callers choose to log rejections) verification.
type Record struct {
	EmployeeID    int64
	Day           time.Time
	Latitude      float64
	Longitude     float64
	CaptureRef    string
	Status        Outcome
	Reason        string
	MatchDistance float64
}

// RecordStore is the external attendance store consulted for per-day
// idempotency. Insert reports false without error when a record for the
// same (employee, day) already exists, so a lost check-then-act race still
// resolves to OutcomeAlreadyRecorded.
type RecordStore interface {
	ExistsFor(ctx context.Context, employeeID int64, day time.Time) (bool, error)
	Insert(ctx context.Context, rec Record) (bool, error)
}

// BlobStore persists the accepted capture image and returns a reference.
type BlobStore interface {
	Save(ctx context.Context, data []byte) (string, error)
}

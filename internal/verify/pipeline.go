package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/clockin/internal/config"
)

// Pipeline sequences the verification stages in a fixed, short-circuiting
// order: geofence, liveness, single-face identity match, per-day
// idempotency, commit. It holds no mutable state and is safe to run
// concurrently across independent requests.
type Pipeline struct {
	office    config.OfficeConfig
	cfg       config.VerifyConfig
	liveness  *LivenessVerifier
	extractor Extractor
	records   RecordStore
	blobs     BlobStore

	// now is replaceable so tests can pin the calendar day.
	now func() time.Time
}

// NewPipeline wires the verification pipeline. All thresholds come from the
// passed configuration; nothing is read from the environment here.
func NewPipeline(office config.OfficeConfig, cfg config.VerifyConfig, extractor Extractor, records RecordStore, blobs BlobStore) *Pipeline {
	return &Pipeline{
		office:    office,
		cfg:       cfg,
		liveness:  NewLivenessVerifier(extractor, cfg),
		extractor: extractor,
		records:   records,
		blobs:     blobs,
		now:       time.Now,
	}
}

// EvaluateInput is one verification request: the authenticated person's
// enrolled template plus everything captured on the client.
type EvaluateInput struct {
	EmployeeID  int64
	Template    []float32
	Image       []byte   // still capture used for the identity match
	Latitude    float64
	Longitude   float64
	ChallengeID string   // already redeemed from the signed challenge token
	Frames      [][]byte // ordered liveness frame sequence
}

// Evaluate runs the full pipeline and returns a terminal decision. Policy
// rejections are decisions; a non-nil error means infrastructure failed
// (store or extractor), which is retryable and not the person's fault.
func (p *Pipeline) Evaluate(ctx context.Context, in EvaluateInput) (*Decision, error) {
	within, distanceKm := WithinRadius(in.Latitude, in.Longitude, p.office.Latitude, p.office.Longitude, p.office.RadiusKm)
	if !within {
		return &Decision{
			Outcome:       OutcomeRejectedGeofence,
			Reason:        fmt.Sprintf("You are outside the office geofence! (Distance: %.2fkm)", distanceKm),
			GeoDistanceKm: distanceKm,
		}, nil
	}

	// Liveness cannot be skipped: missing challenge or frames fails closed.
	if in.ChallengeID == "" || len(in.Frames) == 0 {
		return &Decision{
			Outcome:       OutcomeRejectedLiveness,
			Reason:        "Liveness verification (challenge and frames) is required",
			GeoDistanceKm: distanceKm,
		}, nil
	}

	live, message := p.liveness.Verify(ctx, in.Frames, in.ChallengeID)
	if !live {
		return &Decision{
			Outcome:       OutcomeRejectedLiveness,
			Reason:        message,
			GeoDistanceKm: distanceKm,
		}, nil
	}

	faces, err := p.extractor.DetectAndEncode(ctx, in.Image)
	if err != nil {
		return nil, fmt.Errorf("face extraction: %w", err)
	}
	if len(faces) == 0 {
		return &Decision{
			Outcome:       OutcomeRejectedIdentity,
			Reason:        "No face detected in the image.",
			GeoDistanceKm: distanceKm,
		}, nil
	}
	if len(faces) > 1 {
		return &Decision{
			Outcome:       OutcomeRejectedIdentity,
			Reason:        fmt.Sprintf("Multiple faces detected (%d). Ensure only you are in the frame.", len(faces)),
			GeoDistanceKm: distanceKm,
		}, nil
	}

	match := MatchTemplate(in.Template, faces[0].Embedding, p.cfg.MatchTolerance)
	if !match.HasData {
		return &Decision{
			Outcome:       OutcomeRejectedIdentity,
			Reason:        "No enrolled face template on file. Contact HR to re-enroll.",
			GeoDistanceKm: distanceKm,
		}, nil
	}
	if !match.Match {
		return &Decision{
			Outcome:       OutcomeRejectedIdentity,
			Reason:        fmt.Sprintf("Face mismatch. Attendance rejected. (Dist: %.2f > %.2f)", match.Distance, p.cfg.MatchTolerance),
			GeoDistanceKm: distanceKm,
			MatchDistance: match.Distance,
		}, nil
	}

	day := p.now()
	exists, err := p.records.ExistsFor(ctx, in.EmployeeID, day)
	if err != nil {
		return nil, fmt.Errorf("attendance lookup: %w", err)
	}
	if exists {
		return &Decision{
			Outcome:       OutcomeAlreadyRecorded,
			Reason:        "Attendance already marked for today",
			GeoDistanceKm: distanceKm,
			MatchDistance: match.Distance,
		}, nil
	}

	captureRef, err := p.blobs.Save(ctx, in.Image)
	if err != nil {
		return nil, fmt.Errorf("save capture image: %w", err)
	}

	inserted, err := p.records.Insert(ctx, Record{
		EmployeeID:    in.EmployeeID,
		Day:           day,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		CaptureRef:    captureRef,
		Status:        OutcomeAccepted,
		Reason:        "Attendance marked successfully",
		MatchDistance: match.Distance,
	})
	if err != nil {
		return nil, fmt.Errorf("record attendance: %w", err)
	}
	// A lost check-then-act race surfaces as a unique-constraint conflict,
	// which is the duplicate outcome, not an error.
	if !inserted {
		return &Decision{
			Outcome:       OutcomeAlreadyRecorded,
			Reason:        "Attendance already marked for today",
			GeoDistanceKm: distanceKm,
			MatchDistance: match.Distance,
		}, nil
	}

	return &Decision{
		Outcome:       OutcomeAccepted,
		Reason:        "Attendance marked successfully",
		GeoDistanceKm: distanceKm,
		MatchDistance: match.Distance,
		CaptureRef:    captureRef,
	}, nil
}

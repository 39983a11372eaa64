package verify

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/kozaktomas/clockin/internal/config"
)

// blinkTwiceRequired is the number of full eye closures the blink challenge
// demands.
const blinkTwiceRequired = 2

// defaultFrameConcurrency bounds parallel landmark extraction within one
// verification call. Aggregation always reduces in original frame order.
const defaultFrameConcurrency = 4

// LivenessVerifier decides whether a claimed physical action actually
// happened in a short frame sequence. It is stateless per call.
type LivenessVerifier struct {
	extractor   Extractor
	cfg         config.VerifyConfig
	concurrency int
}

// NewLivenessVerifier creates a verifier using the given landmark extractor
// and thresholds.
func NewLivenessVerifier(extractor Extractor, cfg config.VerifyConfig) *LivenessVerifier {
	return &LivenessVerifier{
		extractor:   extractor,
		cfg:         cfg,
		concurrency: defaultFrameConcurrency,
	}
}

// frameObservation is the reduced signal of one usable frame: the averaged
// eye aspect ratio and the nose tip position, when present.
type frameObservation struct {
	ear     float64
	hasEyes bool
	nose    Point
	hasNose bool
}

// EyeAspectRatio computes the EAR for one eye from its six landmark points:
// the ratio of the two vertical eye-opening distances to the horizontal eye
// width. Low values mean the eye is closed. Returns false when the point
// group is unusable.
func EyeAspectRatio(eye []Point) (float64, bool) {
	if len(eye) < 6 {
		return 0, false
	}
	a := pointDistance(eye[1], eye[5])
	b := pointDistance(eye[2], eye[4])
	c := pointDistance(eye[0], eye[3])
	if c == 0 {
		return 0, false
	}
	return (a + b) / (2 * c), true
}

func pointDistance(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// blinkCounter accumulates completed blinks from a stream of EAR readings.
// A blink is one run of at least closedNeeded below-threshold frames
// followed by a reopen.
type blinkCounter struct {
	threshold    float64
	closedNeeded int
	closedFrames int
	blinks       int
}

func (b *blinkCounter) observe(ear float64) {
	if ear < b.threshold {
		b.closedFrames++
		return
	}
	if b.closedFrames >= b.closedNeeded {
		b.blinks++
	}
	b.closedFrames = 0
}

// traceExtents computes the maximum positive and negative horizontal and
// vertical displacement of a position trace relative to its first entry.
// The result is translation invariant by construction.
func traceExtents(trace []Point) (maxDX, minDX, maxDY, minDY float64) {
	if len(trace) == 0 {
		return 0, 0, 0, 0
	}
	start := trace[0]
	for _, pos := range trace {
		dx := pos.X - start.X
		dy := pos.Y - start.Y
		maxDX = math.Max(maxDX, dx)
		minDX = math.Min(minDX, dx)
		maxDY = math.Max(maxDY, dy)
		minDY = math.Min(minDY, dy)
	}
	return maxDX, minDX, maxDY, minDY
}

// Verify scans the frame sequence and decides whether the challenged action
// occurred. Frames that fail to decode or yield no landmarks are skipped;
// only the aggregate over usable frames determines the outcome.
func (v *LivenessVerifier) Verify(ctx context.Context, frames [][]byte, challengeID string) (bool, string) {
	observations := v.scanFrames(ctx, frames)

	blinks := blinkCounter{threshold: v.cfg.EARThreshold, closedNeeded: v.cfg.ClosedFramesNeeded}
	var trace []Point
	for _, obs := range observations {
		if obs == nil {
			continue
		}
		if obs.hasEyes {
			blinks.observe(obs.ear)
		}
		if obs.hasNose {
			trace = append(trace, obs.nose)
		}
	}

	log.Printf("liveness challenge %s: %d frames, %d blinks, %d tracked positions",
		challengeID, len(frames), blinks.blinks, len(trace))

	if challengeID == ChallengeBlinkTwice {
		if blinks.blinks >= blinkTwiceRequired {
			return true, "Liveness verified: Blink twice successful"
		}
		return false, fmt.Sprintf("Liveness verification failed: Detected %d blinks, expected %d",
			blinks.blinks, blinkTwiceRequired)
	}

	switch challengeID {
	case ChallengeTurnLeft, ChallengeTurnRight, ChallengeNod:
	default:
		return false, "Liveness verification failed: Unknown challenge type"
	}

	if len(trace) < v.cfg.MinTrackedPositions {
		return false, "Liveness verification failed: Could not track head movement consistently"
	}

	maxDX, minDX, maxDY, minDY := traceExtents(trace)
	threshold := v.cfg.MovementThresholdPx

	switch challengeID {
	case ChallengeTurnLeft:
		// In a mirrored camera view turning left moves the nose right in the
		// image, so x increases.
		if maxDX > threshold {
			return true, "Liveness verified: Head turn LEFT successful"
		}
		return false, fmt.Sprintf("Liveness verification failed: Head turn LEFT not detected (Max DX: %.1f)", maxDX)
	case ChallengeTurnRight:
		if minDX < -threshold {
			return true, "Liveness verified: Head turn RIGHT successful"
		}
		return false, fmt.Sprintf("Liveness verification failed: Head turn RIGHT not detected (Min DX: %.1f)", minDX)
	default: // ChallengeNod
		if math.Abs(maxDY) > threshold || math.Abs(minDY) > threshold {
			return true, "Liveness verified: Head nod successful"
		}
		return false, "Liveness verification failed: Head nod not detected"
	}
}

// scanFrames extracts landmarks for every frame with bounded parallelism.
// Results are placed at the frame's original index so the caller can reduce
// the temporal signal in order; unusable frames leave a nil slot.
func (v *LivenessVerifier) scanFrames(ctx context.Context, frames [][]byte) []*frameObservation {
	observations := make([]*frameObservation, len(frames))

	sem := make(chan struct{}, v.concurrency)
	var wg sync.WaitGroup
	for i, frame := range frames {
		wg.Add(1)
		go func(idx int, data []byte) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			observations[idx] = v.observeFrame(ctx, data)
		}(i, frame)
	}
	wg.Wait()

	return observations
}

// observeFrame reduces a single frame to its liveness signal. Any failure
// (undecodable frame, extractor error, no face) drops the frame instead of
// failing the sequence.
func (v *LivenessVerifier) observeFrame(ctx context.Context, data []byte) *frameObservation {
	small, err := downscaleFrame(data, v.cfg.FrameScale)
	if err != nil {
		return nil
	}

	sets, err := v.extractor.Landmarks(ctx, small)
	if err != nil || len(sets) == 0 {
		return nil
	}
	landmarks := sets[0]

	obs := &frameObservation{}

	leftEAR, leftOK := EyeAspectRatio(landmarks[GroupLeftEye])
	rightEAR, rightOK := EyeAspectRatio(landmarks[GroupRightEye])
	if leftOK && rightOK {
		obs.ear = (leftEAR + rightEAR) / 2
		obs.hasEyes = true
	}

	if nose := landmarks[GroupNoseTip]; len(nose) > 0 {
		// The tip itself is the last point of the nose_tip group.
		obs.nose = nose[len(nose)-1]
		obs.hasNose = true
	}

	if !obs.hasEyes && !obs.hasNose {
		return nil
	}
	return obs
}

package handlers

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/clockin/internal/database"
	"github.com/kozaktomas/clockin/internal/verify"
	"github.com/kozaktomas/clockin/internal/web/middleware"
)

// AttendanceHandler handles attendance marking and history
type AttendanceHandler struct {
	pipeline   *verify.Pipeline
	employees  database.EmployeeRepository
	attendance database.AttendanceRepository
	challenges *verify.ChallengeManager
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(
	pipeline *verify.Pipeline,
	employees database.EmployeeRepository,
	attendance database.AttendanceRepository,
	challenges *verify.ChallengeManager,
) *AttendanceHandler {
	return &AttendanceHandler{
		pipeline:   pipeline,
		employees:  employees,
		attendance: attendance,
		challenges: challenges,
	}
}

// MarkResponse represents the outcome of an attendance attempt
type MarkResponse struct {
	Success       bool    `json:"success"`
	Outcome       string  `json:"outcome"`
	Message       string  `json:"message"`
	GeoDistanceKm float64 `json:"geo_distance_km"`
	MatchDistance float64 `json:"match_distance,omitempty"`
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Mark runs the verification pipeline on an uploaded capture. The request
// is multipart: an "image" capture, ordered "frames" files, latitude,
// longitude and the challenge_token issued for this session.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	latitude, errLat := strconv.ParseFloat(r.FormValue("latitude"), 64)
	longitude, errLon := strconv.ParseFloat(r.FormValue("longitude"), 64)
	if errLat != nil || errLon != nil {
		respondError(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	imageHeaders := r.MultipartForm.File["image"]
	if len(imageHeaders) != 1 {
		respondError(w, http.StatusBadRequest, "exactly one capture image is required")
		return
	}
	image, err := readFormFile(imageHeaders[0])
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read capture image")
		return
	}

	frameHeaders := r.MultipartForm.File["frames"]
	frames := make([][]byte, 0, len(frameHeaders))
	for _, fh := range frameHeaders {
		frame, err := readFormFile(fh)
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read liveness frame")
			return
		}
		frames = append(frames, frame)
	}

	// A bad token leaves the challenge empty; the pipeline fails closed on
	// liveness rather than treating it as a request error.
	challengeID, err := h.challenges.Redeem(r.FormValue("challenge_token"), session.ID)
	if err != nil {
		log.Printf("challenge redemption failed for employee %d: %v", session.EmployeeID, err)
		challengeID = ""
	}

	emp, err := h.employees.GetByID(r.Context(), session.EmployeeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load employee")
		return
	}

	decision, err := h.pipeline.Evaluate(r.Context(), verify.EvaluateInput{
		EmployeeID:  emp.ID,
		Template:    emp.Template,
		Image:       image,
		Latitude:    latitude,
		Longitude:   longitude,
		ChallengeID: challengeID,
		Frames:      frames,
	})
	if err != nil {
		log.Printf("attendance evaluation failed for employee %d: %v", emp.ID, err)
		respondError(w, http.StatusInternalServerError, "verification failed, try again")
		return
	}

	respondJSON(w, http.StatusOK, MarkResponse{
		Success:       decision.Accepted(),
		Outcome:       string(decision.Outcome),
		Message:       decision.Reason,
		GeoDistanceKm: decision.GeoDistanceKm,
		MatchDistance: decision.MatchDistance,
	})
}

// RecordResponse is one attendance record in list responses
type RecordResponse struct {
	ID            int64   `json:"id"`
	EmployeeID    int64   `json:"employee_id"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	RecordedOn    string  `json:"recorded_on"`
	RecordedAt    string  `json:"recorded_at"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Status        string  `json:"status"`
	Reason        string  `json:"reason"`
	MatchDistance float64 `json:"match_distance"`
}

func toRecordResponses(records []database.AttendanceRecord) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, RecordResponse{
			ID:            rec.ID,
			EmployeeID:    rec.EmployeeID,
			EmployeeName:  rec.EmployeeName,
			RecordedOn:    rec.RecordedOn.Format("2006-01-02"),
			RecordedAt:    rec.RecordedAt.Format(time.RFC3339),
			Latitude:      rec.Latitude,
			Longitude:     rec.Longitude,
			Status:        rec.Status,
			Reason:        rec.Reason,
			MatchDistance: rec.MatchDistance,
		})
	}
	return out
}

// ListMine returns the calling employee's attendance history
func (h *AttendanceHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	records, err := h.attendance.ListForEmployee(r.Context(), session.EmployeeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": toRecordResponses(records)})
}

// ListForDay returns every record on a calendar day. Defaults to today,
// override with ?date=YYYY-MM-DD.
func (h *AttendanceHandler) ListForDay(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if date := r.URL.Query().Get("date"); date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	records, err := h.attendance.ListForDay(r.Context(), day)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"date":    day.Format("2006-01-02"),
		"records": toRecordResponses(records),
	})
}

// Delete removes a single attendance record
func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid record ID")
		return
	}

	if err := h.attendance.Delete(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "record not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete record")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

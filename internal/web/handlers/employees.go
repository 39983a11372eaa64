package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/clockin/internal/auth"
	"github.com/kozaktomas/clockin/internal/database"
	"github.com/kozaktomas/clockin/internal/verify"
)

// BlobSaver stores uploaded photos.
type BlobSaver interface {
	Save(ctx context.Context, data []byte) (string, error)
}

// EmployeesHandler handles roster management and 1:N identification
type EmployeesHandler struct {
	employees database.EmployeeRepository
	extractor verify.Extractor
	blobs     BlobSaver
	index     *database.HNSWIndex
	tolerance float64
}

// NewEmployeesHandler creates a new employees handler
func NewEmployeesHandler(
	employees database.EmployeeRepository,
	extractor verify.Extractor,
	blobs BlobSaver,
	index *database.HNSWIndex,
	tolerance float64,
) *EmployeesHandler {
	return &EmployeesHandler{
		employees: employees,
		extractor: extractor,
		blobs:     blobs,
		index:     index,
		tolerance: tolerance,
	}
}

// EmployeeResponse is the public shape of an employee
type EmployeeResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Role        string `json:"role"`
	Enrolled    bool   `json:"enrolled"` // has a face template on file
	CreatedAt   string `json:"created_at"`
}

func toEmployeeResponse(emp *database.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:          emp.ID,
		Name:        emp.Name,
		Designation: emp.Designation,
		Role:        emp.Role,
		Enrolled:    len(emp.Template) > 0,
		CreatedAt:   emp.CreatedAt.Format(time.RFC3339),
	}
}

// singleFaceEmbedding extracts exactly one face from the photo, rejecting
// empty and crowded shots with the message to show the user.
func (h *EmployeesHandler) singleFaceEmbedding(ctx context.Context, photo []byte) ([]float32, string, error) {
	faces, err := h.extractor.DetectAndEncode(ctx, photo)
	if err != nil {
		return nil, "", err
	}
	if len(faces) == 0 {
		return nil, "No face detected in the image.", nil
	}
	if len(faces) > 1 {
		return nil, fmt.Sprintf("Multiple faces detected (%d). Ensure only you are in the frame.", len(faces)), nil
	}
	return faces[0].Embedding, "", nil
}

// Create enrolls a new employee from a multipart form with name,
// designation, role, password and a single-face photo.
func (h *EmployeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	name := r.FormValue("name")
	password := r.FormValue("password")
	if name == "" || password == "" {
		respondError(w, http.StatusBadRequest, "name and password are required")
		return
	}

	role := r.FormValue("role")
	if role == "" {
		role = database.RoleEmployee
	}
	if role != database.RoleEmployee && role != database.RoleHR {
		respondError(w, http.StatusBadRequest, "role must be employee or hr")
		return
	}

	photoHeaders := r.MultipartForm.File["photo"]
	if len(photoHeaders) != 1 {
		respondError(w, http.StatusBadRequest, "exactly one enrollment photo is required")
		return
	}
	photo, err := readFormFile(photoHeaders[0])
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read enrollment photo")
		return
	}

	template, rejection, err := h.singleFaceEmbedding(r.Context(), photo)
	if err != nil {
		log.Printf("enrollment face extraction failed: %v", err)
		respondError(w, http.StatusInternalServerError, "face extraction failed, try again")
		return
	}
	if rejection != "" {
		respondError(w, http.StatusUnprocessableEntity, rejection)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	photoRef, err := h.blobs.Save(r.Context(), photo)
	if err != nil {
		log.Printf("save enrollment photo: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to store enrollment photo")
		return
	}

	emp := &database.Employee{
		Name:         name,
		Designation:  r.FormValue("designation"),
		Role:         role,
		PasswordHash: hash,
		Template:     template,
		PhotoRef:     photoRef,
	}
	if err := h.employees.Create(r.Context(), emp); err != nil {
		if errors.Is(err, database.ErrDuplicateName) {
			respondError(w, http.StatusConflict, "an employee with this name is already enrolled")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create employee")
		return
	}

	h.index.Add(emp)
	log.Printf("enrolled employee %d (%s)", emp.ID, sanitizeForLog(emp.Name))

	respondJSON(w, http.StatusCreated, toEmployeeResponse(emp))
}

// List returns the full roster
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employees.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}

	out := make([]EmployeeResponse, 0, len(employees))
	for i := range employees {
		out = append(out, toEmployeeResponse(&employees[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"employees": out})
}

// Delete removes an employee from the roster and the search index
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid employee ID")
		return
	}

	if err := h.employees.Delete(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "employee not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete employee")
		return
	}

	h.index.Delete(id)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// IdentifyResponse represents a 1:N identification result
type IdentifyResponse struct {
	Match    bool              `json:"match"`
	Distance float64           `json:"distance,omitempty"`
	Employee *EmployeeResponse `json:"employee,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// Identify answers "who is this?" by searching the face index with a photo.
func (h *EmployeesHandler) Identify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	photoHeaders := r.MultipartForm.File["photo"]
	if len(photoHeaders) != 1 {
		respondError(w, http.StatusBadRequest, "exactly one photo is required")
		return
	}
	photo, err := readFormFile(photoHeaders[0])
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read photo")
		return
	}

	embedding, rejection, err := h.singleFaceEmbedding(r.Context(), photo)
	if err != nil {
		log.Printf("identify face extraction failed: %v", err)
		respondError(w, http.StatusInternalServerError, "face extraction failed, try again")
		return
	}
	if rejection != "" {
		respondJSON(w, http.StatusOK, IdentifyResponse{Match: false, Message: rejection})
		return
	}

	emp, distance, err := h.index.Identify(embedding, h.tolerance)
	if err != nil {
		respondJSON(w, http.StatusOK, IdentifyResponse{Match: false, Message: "no employees enrolled"})
		return
	}
	if emp == nil {
		respondJSON(w, http.StatusOK, IdentifyResponse{Match: false, Message: "no matching employee"})
		return
	}

	resp := toEmployeeResponse(emp)
	respondJSON(w, http.StatusOK, IdentifyResponse{
		Match:    true,
		Distance: distance,
		Employee: &resp,
	})
}

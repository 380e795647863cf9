package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"undervalued-homes/models"
	"undervalued-homes/scraper/redfin"
	"undervalued-homes/services"
	"undervalued-homes/utils"
)

// ReportGenerator produces a report for a search query.
type ReportGenerator interface {
	Generate(ctx context.Context, q models.SearchQuery) (*models.ReportResult, error)
}

// ArtifactLocator resolves stored artifacts to local files.
type ArtifactLocator interface {
	Path(id, name string) (string, error)
}

// Param is a request value that may arrive as a JSON string or number.
type Param string

func (p *Param) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Param(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*p = Param(n.String())
	return nil
}

// ProcessRequest is the body of POST /process-data.
type ProcessRequest struct {
	NumHomes Param `json:"num_homes" validate:"required,max=16"`
	UIPT     Param `json:"uipt" validate:"required,max=64"`
	RegionID Param `json:"region_id" validate:"required,max=64"`
}

// ProcessResponse is the success body of POST /process-data.
type ProcessResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Region string `json:"region"`
	models.Artifacts
	Summary   *models.Summary   `json:"summary"`
	TableData []models.TableRow `json:"table_data"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Handlers holds the dependencies of the HTTP endpoints.
type Handlers struct {
	reports   ReportGenerator
	artifacts ArtifactLocator
	validate  *validator.Validate
	logger    *utils.Logger
}

func NewHandlers(reports ReportGenerator, artifacts ArtifactLocator, logger *utils.Logger) *Handlers {
	return &Handlers{
		reports:   reports,
		artifacts: artifacts,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// ProcessData runs a search and returns links to the generated report.
// Endpoint: POST /process-data
func (h *Handlers) ProcessData(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.reports.Generate(r.Context(), models.SearchQuery{
		NumHomes:     string(req.NumHomes),
		PropertyType: string(req.UIPT),
		RegionID:     string(req.RegionID),
	})
	if err != nil {
		status := statusFor(err)
		h.logger.Error("[http] process-data failed (%d): %v", status, err)
		h.writeError(w, status, err.Error())
		return
	}

	rows := result.Dataset.Rows()
	h.writeJSON(w, http.StatusOK, ProcessResponse{
		Status:    "success",
		ID:        result.ID,
		Region:    result.Dataset.Region,
		Artifacts: result.Artifacts,
		Summary:   result.Dataset.Summary,
		TableData: rows,
	})
}

// Download serves a stored artifact as an attachment.
// Endpoint: GET /download/{id}/{file}
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, name := vars["id"], vars["file"]

	path, err := h.artifacts.Path(id, name)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid artifact name")
		return
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		h.writeError(w, http.StatusNotFound, "artifact not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// HealthCheck reports liveness.
// Endpoint: GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps pipeline failures onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, redfin.ErrUpstreamFetch), errors.Is(err, redfin.ErrMalformedPayload):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrEmptyPopulation), errors.Is(err, services.ErrOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := map[string]string{"NumHomes": "num_homes", "UIPT": "uipt", "RegionID": "region_id"}[fe.Field()]
	if fe.Tag() == "required" {
		return field + " is required"
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Status: "error", Message: msg})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("[http] Error encoding response: %v", err)
	}
}

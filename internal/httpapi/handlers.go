package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/bpnn/routeplan"
	"github.com/bpnn/routeplan/deliverer"
	"github.com/bpnn/routeplan/export"
	"github.com/bpnn/routeplan/sheet"
	"github.com/go-chi/chi/v5"
	gojson "github.com/goccy/go-json"
)

const (
	contentTypeXLSX    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeParquet = "application/vnd.apache.parquet"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type uploadResponse struct {
	Filename string              `json:"filename"`
	Columns  []string            `json:"columns"`
	Rows     []map[string]string `json:"rows"`
}

type planResponse struct {
	*routeplan.Plan
	Assignments []deliverer.Assignment `json:"assignments,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = gojson.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readTable parses the multipart "file" field of r.
func (s *Server) readTable(w http.ResponseWriter, r *http.Request) (*sheet.Table, string, bool) {
	if r.ContentLength > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return nil, "", false
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, "Missing spreadsheet file")
		return nil, "", false
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	table, err := sheet.Parse(header.Filename, file)
	switch {
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "Unsupported file type. Use .csv or .xlsx")
		return nil, "", false
	case err != nil:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Could not read spreadsheet: %v", err))
		return nil, "", false
	}
	return table, header.Filename, true
}

func (s *Server) readAddresses(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	table, _, ok := s.readTable(w, r)
	if !ok {
		return nil, false
	}
	addresses, err := table.Addresses()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return addresses, true
}

func (s *Server) uploadSpreadsheet(w http.ResponseWriter, r *http.Request) {
	table, filename, ok := s.readTable(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Filename: filename,
		Columns:  table.Columns,
		Rows:     table.Rows,
	})
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	addresses, ok := s.readAddresses(w, r)
	if !ok {
		return
	}

	form := planForm{Format: strings.ToLower(r.FormValue("format"))}
	if form.Format == "" {
		form.Format = "json"
	}
	k, err := strconv.Atoi(strings.TrimSpace(r.FormValue("k")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "k must be an integer")
		return
	}
	form.K = k
	if names := strings.TrimSpace(r.FormValue("deliverers")); names != "" {
		for _, n := range strings.Split(names, ",") {
			form.Deliverers = append(form.Deliverers, strings.TrimSpace(n))
		}
	}
	if err := validateForm(&form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(form.Deliverers) > 0 {
		if s.deliverers == nil {
			writeError(w, http.StatusBadRequest, "deliverer assignment is not configured")
			return
		}
		// Assignments only travel in the JSON body.
		if form.Format != "json" {
			writeError(w, http.StatusBadRequest, "deliverers require format json")
			return
		}
		if len(form.Deliverers) != form.K {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("%d deliverers for %d groups", len(form.Deliverers), form.K))
			return
		}
	}

	plan, err := s.planner.Plan(r.Context(), addresses, form.K)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := planResponse{Plan: plan}
	if len(form.Deliverers) > 0 {
		resp.Assignments, err = deliverer.AssignPlan(r.Context(), s.deliverers, plan, form.Deliverers)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}

	switch form.Format {
	case "xlsx":
		s.writeFile(w, r, plan, "xlsx", contentTypeXLSX, export.WriteWorkbook)
	case "parquet":
		s.writeFile(w, r, plan, "parquet", contentTypeParquet, export.WriteStopsParquet)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// writeFile renders plan in memory before any header is written.
func (s *Server) writeFile(w http.ResponseWriter, r *http.Request, plan *routeplan.Plan, ext, contentType string,
	render func(io.Writer, *routeplan.Plan) error) {
	var buf bytes.Buffer
	if err := render(&buf, plan); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "plan-"+plan.ID+"."+ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) elbow(w http.ResponseWriter, r *http.Request) {
	addresses, ok := s.readAddresses(w, r)
	if !ok {
		return
	}

	var form elbowForm
	if v := strings.TrimSpace(r.FormValue("max_k")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "max_k must be an integer")
			return
		}
		form.MaxK = n
	}
	if err := validateForm(&form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.planner.Elbow(r.Context(), addresses, form.MaxK)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listDeliverers(w http.ResponseWriter, r *http.Request) {
	list, err := s.deliverers.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []deliverer.Deliverer{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) delivererLocations(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deliverer id")
		return
	}
	locs, err := s.deliverers.Locations(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if locs == nil {
		locs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "locations": locs})
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, routeplan.ErrInvalidClusterCount),
		errors.Is(err, deliverer.ErrEmptyName),
		errors.Is(err, deliverer.ErrEmptyLocation):
		return http.StatusBadRequest
	case errors.Is(err, routeplan.ErrNoLocations):
		return http.StatusUnprocessableEntity
	case errors.Is(err, deliverer.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

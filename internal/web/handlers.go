package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvimp/internal/atlas"
	"github.com/JonMunkholm/csvimp/internal/core"
	"github.com/JonMunkholm/csvimp/internal/dataset"
	"github.com/JonMunkholm/csvimp/internal/logging"
)

// multipartMemory is how much of an upload is held in memory before
// spilling to a temporary file.
const multipartMemory = 32 << 20

var errNoFile = errors.New("no file provided")

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string             `json:"status"`
	Imports core.LimiterStatus `json:"imports"`
}

// MapSummary is one entry of GET /api/maps.
type MapSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Table       string `json:"table"`
	Action      string `json:"action"`
	Fields      int    `json:"fields"`
	HasKey      bool   `json:"has_key"`
}

// ImportResponse is the body of POST /api/imports/{name}. Error is set when
// the run failed as a whole.
type ImportResponse struct {
	RunID  string         `json:"run_id"`
	Report *core.Report   `json:"report"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	maps := make([]MapSummary, 0, len(s.atlas.Maps))
	for _, name := range s.atlas.Names() {
		m, _ := s.atlas.Map(name)
		maps = append(maps, MapSummary{
			Name:        m.Name,
			Description: m.Description,
			Table:       m.Table,
			Action:      m.Action.String(),
			Fields:      len(m.Fields),
			HasKey:      m.HasKey(),
		})
	}
	writeJSON(w, http.StatusOK, maps)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	m, err := s.atlas.Map(chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleImport runs a map over an uploaded CSV or Excel file and responds
// with the run's report once it has finished.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	m, err := s.atlas.Map(chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	m = m.Simplify()
	if err := m.Validate(); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid map %s: %w", m.Name, err), http.StatusUnprocessableEntity)
		return
	}

	src, err := s.readUpload(w, r, m)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, dataset.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.respondError(w, r, err, status)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	defer s.limiter.Release()

	runID := core.NewRunID()
	ctx := core.ContextWithRunID(r.Context(), runID)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Import.Timeout)
	defer cancel()

	log := logging.WithFields(r.Context(), "run_id", runID)
	eng := core.NewEngine(s.db.Executor(), core.Options{
		UseTransaction:   s.cfg.Import.UseTransaction,
		ProgressInterval: s.cfg.Import.ProgressInterval,
		OnProgress: func(p core.Progress) {
			log.Debug("import progress", "current", p.Current, "total", p.Total, "errors", p.Errors)
		},
		Logger: logging.FromContext(r.Context()),
	})

	rep, err := eng.Run(ctx, &m, src)
	resp := ImportResponse{RunID: runID, Report: rep}
	if err != nil {
		resp.Error = errorResponse(err)
		log.Error("import failed", "error", err, "code", resp.Error.Code)
		writeJSON(w, statusFor(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// readUpload parses the multipart "file" part. The optional "header",
// "delimiter" and "sheet" form values override the map and server defaults.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, m atlas.Map) (*dataset.Table, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dataset.ErrFileTooLarge
		}
		return nil, fmt.Errorf("%w: %v", errNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	opts, err := s.datasetOptions(r, m)
	if err != nil {
		return nil, err
	}

	if dataset.IsExcel(header.Filename) {
		return dataset.LoadExcel(file, opts)
	}
	return dataset.LoadCSV(file, opts)
}

func (s *Server) datasetOptions(r *http.Request, m atlas.Map) (dataset.Options, error) {
	opts := dataset.Options{
		FirstRowHeader: s.cfg.Import.FirstRowHeader,
		Sheet:          r.FormValue("sheet"),
		MaxSize:        s.cfg.Import.MaxFileSize,
	}

	if v := r.FormValue("header"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid csv option header=%q", v)
		}
		opts.FirstRowHeader = b
	}

	delim := r.FormValue("delimiter")
	if delim == "" {
		delim = m.Delimiter
	}
	if delim == "" {
		delim = s.cfg.Import.Delimiter
	}
	d, err := dataset.ParseDelimiter(delim)
	if err != nil {
		return opts, fmt.Errorf("invalid csv option: %w", err)
	}
	opts.Delimiter = d

	return opts, nil
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"turbocycle/internal/cycle"
	"turbocycle/internal/database"
	"turbocycle/internal/models"
	"turbocycle/internal/report"
	"turbocycle/internal/sweep"

	"github.com/gorilla/mux"
)

var (
	errBadRequest = errors.New("bad request")
	// errIncomplete is returned for runs whose points are still being stored
	errIncomplete = errors.New("run is still being stored")
)

const maxBodyBytes = 1 << 20

// SolveRequest is the body of the solve endpoints. Inputs fields that are
// absent keep their baseline values.
type SolveRequest struct {
	Inputs    json.RawMessage    `json:"inputs,omitempty"`
	Overrides map[string]float64 `json:"overrides,omitempty"`
}

// SweepRequest is the optional body of POST /api/sweeps/{kind}. Spec fields
// that are absent keep the kind's default grid.
type SweepRequest struct {
	Inputs json.RawMessage `json:"inputs,omitempty"`
	Spec   json.RawMessage `json:"spec,omitempty"`
}

// decodeBody reads an optional JSON body
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid payload: %v", errBadRequest, err)
	}
	return nil
}

// inputsFrom overlays a partial inputs object on the baseline and validates the result
func (h *Handler) inputsFrom(raw json.RawMessage) (cycle.EngineInputs, error) {
	in := h.baseline
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &in); err != nil {
			return in, fmt.Errorf("%w: invalid inputs: %v", errBadRequest, err)
		}
	}
	if err := in.Validate(); err != nil {
		return in, err
	}
	return in, nil
}

func (h *Handler) solveRequest(r *http.Request) (cycle.EngineResult, error) {
	var req SolveRequest
	if err := decodeBody(r, &req); err != nil {
		return cycle.EngineResult{}, err
	}
	in, err := h.inputsFrom(req.Inputs)
	if err != nil {
		return cycle.EngineResult{}, err
	}
	ov, err := cycle.NewOverrides(req.Overrides)
	if err != nil {
		return cycle.EngineResult{}, err
	}
	if err := ov.Apply(in).Validate(); err != nil {
		return cycle.EngineResult{}, fmt.Errorf("overrides: %w", err)
	}
	return cycle.Solve(in, ov), nil
}

// Solve evaluates one cycle point
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	res, err := h.solveRequest(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SolveSheet evaluates one cycle point and returns the PDF station sheet
func (h *Handler) SolveSheet(w http.ResponseWriter, r *http.Request) {
	res, err := h.solveRequest(r)
	if err != nil {
		writeErr(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.StationSheetPDF(&buf, res); err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="station-sheet.pdf"`)
	_, _ = w.Write(buf.Bytes())
}

// RunSweep evaluates a sweep, stores it and returns the run summary
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseSweepKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req SweepRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	in, err := h.inputsFrom(req.Inputs)
	if err != nil {
		writeErr(w, err)
		return
	}
	spec, err := sweep.DefaultSpec(kind)
	if err != nil {
		writeErr(w, err)
		return
	}
	if len(req.Spec) > 0 {
		if err := json.Unmarshal(req.Spec, &spec); err != nil {
			writeErr(w, fmt.Errorf("%w: invalid spec: %v", errBadRequest, err))
			return
		}
		spec.Kind = kind
	}

	res, err := h.runner.Run(r.Context(), spec, in)
	if err != nil {
		writeErr(w, err)
		return
	}

	run := res.Run()
	if err := h.repo.SaveSweep(run, res.Points); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

// ListRuns returns stored runs, newest first. Query: kind, limit.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var kind models.SweepKind
	if s := q.Get("kind"); s != "" {
		k, err := models.ParseSweepKind(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		kind = k
	}

	limit := 50
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.repo.Runs().List(kind, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.repo.Runs().Get(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// ListPoints returns the points of a run. valid=true drops invalid points.
func (h *Handler) ListPoints(w http.ResponseWriter, r *http.Request) {
	run, points, err := h.loadRun(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}

	if r.URL.Query().Get("valid") == "true" {
		kept := points[:0]
		for _, p := range points {
			if p.Valid {
				kept = append(kept, p)
			}
		}
		points = kept
	}

	writeJSON(w, http.StatusOK, struct {
		Run    *models.SweepRun    `json:"run"`
		Points []models.SweepPoint `json:"points"`
	}{run, points})
}

// RunChart renders a run as HTML: a line chart, or heat maps for the envelope
func (h *Handler) RunChart(w http.ResponseWriter, r *http.Request) {
	run, points, err := h.loadRun(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}

	var buf bytes.Buffer
	if run.Kind == models.SweepEnvelope {
		g, err := envelopeGrid(points)
		if err == nil {
			err = report.EnvelopeHTML(&buf, g)
		}
		if err != nil {
			writeErr(w, err)
			return
		}
	} else if err := report.LineChartHTML(&buf, run, points); err != nil {
		if errors.Is(err, report.ErrNoPoints) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) RunWorkbook(w http.ResponseWriter, r *http.Request) {
	run, points, err := h.loadRun(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Workbook(&buf, run, points); err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.xlsx"`, run.Kind, run.ID))
	_, _ = w.Write(buf.Bytes())
}

// EnvelopePNG draws the latest stored envelope run. Without one, the
// envelope of the baseline is computed on the fly and not stored.
func (h *Handler) EnvelopePNG(w http.ResponseWriter, r *http.Request) {
	metric := sweep.MetricSFC
	if s := r.URL.Query().Get("metric"); s != "" {
		m, err := sweep.ParseMetric(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		metric = m
	}

	g, err := h.latestEnvelope(r)
	if err != nil {
		writeErr(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.EnvelopePNG(&buf, g, metric); err != nil {
		if errors.Is(err, report.ErrNoPoints) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) latestEnvelope(r *http.Request) (*sweep.Grid, error) {
	run, err := h.repo.Runs().Latest(models.SweepEnvelope)
	switch {
	case err == nil:
		points, err := h.repo.Points().ListByRun(run.ID)
		if err != nil {
			return nil, err
		}
		return envelopeGrid(points)
	case !errors.Is(err, database.ErrNotFound):
		return nil, err
	}

	spec, err := sweep.DefaultSpec(models.SweepEnvelope)
	if err != nil {
		return nil, err
	}
	res, err := h.runner.Run(r.Context(), spec, h.baseline)
	if err != nil {
		return nil, err
	}
	return res.Grid, nil
}

func (h *Handler) loadRun(id string) (*models.SweepRun, []models.SweepPoint, error) {
	run, err := h.repo.Runs().Get(id)
	if err != nil {
		return nil, nil, err
	}
	points, err := h.repo.Points().ListByRun(id)
	if err != nil {
		return nil, nil, err
	}
	if len(points) < run.PointCount {
		return nil, nil, fmt.Errorf("%w: %d of %d points", errIncomplete, len(points), run.PointCount)
	}
	return run, points, nil
}

func envelopeGrid(points []models.SweepPoint) (*sweep.Grid, error) {
	spec, err := sweep.DefaultSpec(models.SweepEnvelope)
	if err != nil {
		return nil, err
	}
	return sweep.NewGrid(points, spec.SFCCutoff)
}

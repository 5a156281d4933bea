package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"tomgalvin.uk/tsclabel/internal/label"
	"tomgalvin.uk/tsclabel/internal/model"
	"tomgalvin.uk/tsclabel/internal/preset"
	"tomgalvin.uk/tsclabel/internal/preview"
	"tomgalvin.uk/tsclabel/internal/printer"
	"tomgalvin.uk/tsclabel/internal/tspl"
)

const (
	ServiceName    = "tsc-print"
	ServiceVersion = "1.0.0"

	maxBodyBytes = 1 << 20
)

type Server struct {
	Config  label.Config
	Spooler *printer.Spooler
	// Renderer rasterizes sheets for previews and raster mode. May be nil.
	Renderer *preview.Renderer
	// Presets may be nil, in which case preset lookups fail.
	Presets *preset.Repository

	DefaultDevice string
	DefaultSheet  model.SheetRequest

	Logger *slog.Logger
}

// Handler returns the HTTP routes of the print service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /print", s.handlePrint)
	mux.HandleFunc("POST /encode", s.handleEncode)
	mux.HandleFunc("POST /preview", s.handlePreview)
	mux.HandleFunc("POST /test", s.handleTest)
	mux.HandleFunc("GET /presets", s.handleListPresets)
	mux.HandleFunc("POST /presets", s.handleCreatePreset)
	mux.HandleFunc("DELETE /presets/{name}", s.handleDeletePreset)
	return mux
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default().With("src", "server")
	}
	return s.Logger
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "TSC-Print-Service",
		"version": ServiceVersion,
		"health":  "/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "alive", Service: ServiceName})
}

// prepared is a decoded, validated request ready for planning or encoding.
type prepared struct {
	req *model.PrintRequest
	cfg label.Config
	job label.PrintJob
}

func (s *Server) prepare(r *http.Request) (*prepared, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, label.ValidationError("request", "couldn't read body: %v", err)
	}
	req, err := model.Decode(body)
	if err != nil {
		return nil, err
	}

	var p *preset.Preset
	if req.Preset != "" {
		if s.Presets == nil {
			return nil, label.ValidationError("request", "presets are not available")
		}
		if p, err = s.Presets.GetByName(req.Preset); err != nil {
			return nil, fmt.Errorf("Couldn't look up preset:\n%w", err)
		}
		if p == nil {
			return nil, label.ValidationError("request", "unknown preset %q", req.Preset)
		}
	}

	cfg, job, err := req.Job(s.Config, p, s.DefaultSheet)
	if err != nil {
		return nil, err
	}
	return &prepared{req: req, cfg: cfg, job: job}, nil
}

func (s *Server) encode(p *prepared) ([][]string, error) {
	var rz tspl.Rasterizer
	if s.Renderer != nil {
		rz = s.Renderer
	}
	return tspl.NewEncoder(p.cfg, rz).EncodeJob(p.job)
}

func (s *Server) selector(device string) (printer.Selector, error) {
	if device == "" {
		device = s.DefaultDevice
	}
	if device == "" {
		return printer.Selector{}, label.ValidationError("request", "no device given and no default device configured")
	}
	sel, err := printer.ParseSelector(device)
	if err != nil {
		return printer.Selector{}, label.TransportError("open", err, "couldn't resolve device")
	}
	return sel, nil
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	p, err := s.prepare(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sheets, err := s.encode(p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sel, err := s.selector(p.req.Device)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.Spooler.Print(r.Context(), sel, sheets)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.PrintResponse{
		Status:   "ok",
		Message:  fmt.Sprintf("sent %d sheets to %s", res.Sheets, sel),
		JobID:    res.JobID,
		Sheets:   res.Sheets,
		Commands: res.Commands,
	})
}

// handleEncode returns the command stream a print would send, without a printer.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	p, err := s.prepare(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sheets, err := s.encode(p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, sheet := range sheets {
		for _, cmd := range sheet {
			io.WriteString(w, cmd+"\r\n")
		}
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.Renderer == nil {
		s.writeError(w, label.ConfigurationError("preview", "no preview renderer configured"))
		return
	}
	p, err := s.prepare(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sheets, err := label.Plan(p.cfg, p.job)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	switch format := r.URL.Query().Get("format"); format {
	case "", "png":
		index := 0
		if v := r.URL.Query().Get("sheet"); v != "" {
			if index, err = strconv.Atoi(v); err != nil || index < 0 || index >= len(sheets) {
				s.writeError(w, label.ValidationError("preview", "sheet %q out of range 0..%d", v, len(sheets)-1))
				return
			}
		}
		if err := s.Renderer.WritePNG(&buf, sheets[index]); err != nil {
			s.writeError(w, label.EncodingError("preview", "couldn't render sheet %d: %v", index, err))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("X-Sheet-Count", strconv.Itoa(len(sheets)))
	case "pdf":
		if err := s.Renderer.WritePDF(&buf, sheets); err != nil {
			s.writeError(w, label.EncodingError("preview", "couldn't render proof: %v", err))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
	default:
		s.writeError(w, label.ValidationError("preview", "unknown format %q", format))
		return
	}
	if _, err := buf.WriteTo(w); err != nil {
		s.logger().Error("Couldn't write preview", "err", err)
	}
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	var req model.TestRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil && err != io.EOF {
			s.writeError(w, label.ValidationError("request", "malformed JSON: %v", err))
			return
		}
	}
	device := req.Device
	if device == "" {
		device = req.Ip
	}
	sel, err := s.selector(device)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Spooler.Check(r.Context(), sel); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.StatusResponse{Status: "ok", Message: fmt.Sprintf("printer %s is reachable", sel)})
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	if s.Presets == nil {
		writeJSON(w, http.StatusOK, []model.PresetResponse{})
		return
	}
	presets, err := s.Presets.List()
	if err != nil {
		s.writeError(w, fmt.Errorf("Couldn't list presets:\n%w", err))
		return
	}
	out := make([]model.PresetResponse, len(presets))
	for i, p := range presets {
		out[i] = model.FromPreset(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	if s.Presets == nil {
		s.writeError(w, label.ConfigurationError("presets", "no preset database configured"))
		return
	}
	var req model.PresetRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, label.ValidationError("request", "malformed JSON: %v", err))
		return
	}
	p, err := req.Preset()
	if err != nil {
		s.writeError(w, err)
		return
	}
	repo := s.Presets
	if err := repo.Transact(func(tx *sql.Tx) error {
		return repo.Create(tx, p)
	}); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger().Info("Created preset", "name", p.Name, "uuid", p.Uuid.String())
	writeJSON(w, http.StatusCreated, model.FromPreset(*p))
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if s.Presets == nil {
		http.NotFound(w, r)
		return
	}
	name := r.PathValue("name")
	var deleted bool
	repo := s.Presets
	if err := repo.Transact(func(tx *sql.Tx) (err error) {
		deleted, err = repo.Delete(tx, name)
		return err
	}); err != nil {
		s.writeError(w, err)
		return
	}
	if !deleted {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch label.KindOf(err) {
	case label.KindValidation, label.KindConfiguration:
		return http.StatusBadRequest
	case label.KindEncoding:
		return http.StatusUnprocessableEntity
	case label.KindTransport:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := model.FromError(err)
	if n := printer.SentSheets(err); n >= 0 {
		resp.SentSheets = &n
	}
	if status >= http.StatusInternalServerError {
		s.logger().Error("Request failed", "status", status, "err", err)
	} else {
		s.logger().Info("Request rejected", "status", status, "err", err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Couldn't write response", "err", err)
	}
}

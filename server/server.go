package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"notes2blog/pipeline"
	"notes2blog/publisher"
)

const (
	maxUploadBytes  = 32 << 20
	defaultFilename = "uploaded_image.jpg"
)

var (
	errImagePathRequired = errors.New("image_path required")
	errFileRequired      = errors.New("file required")
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, s *pipeline.State) (*pipeline.State, error)
}

// Options configures a Server.
type Options struct {
	// Vision reports whether the hosted vision transcriber is active.
	Vision bool
	// Timeout bounds a single /process run; zero means no limit.
	Timeout time.Duration
	Verbose bool
	Logger  *log.Logger
}

type Server struct {
	runner Runner
	store  *publisher.Store
	opts   Options
	logger *log.Logger
}

func New(runner Runner, store *publisher.Store, opts Options) (*Server, error) {
	if runner == nil {
		return nil, errors.New("pipeline runner required")
	}
	if store == nil {
		return nil, errors.New("store required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: store, opts: opts, logger: logger}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("POST /process", s.handleProcess)
	mux.HandleFunc("GET /article", s.handleArticle)
	mux.HandleFunc("GET /article/preview", s.handlePreview)
	return s.logMiddleware(mux)
}

func (s *Server) infof(format string, args ...interface{}) {
	if !s.opts.Verbose {
		return
	}
	s.logger.Printf("[INFO] "+format, args...)
}

// --- Handlers ---

type rootResp struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Vision  bool   `json:"vision"`
}

type ingestResp struct {
	ImagePath string `json:"image_path"`
}

type processReq struct {
	ImagePath string `json:"image_path"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResp{OK: true, Message: "Notes→Blog backend ready", Vision: s.opts.Vision})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: errFileRequired.Error()})
		return
	}
	defer file.Close()

	filename := header.Filename
	if filename == "" {
		filename = defaultFilename
	}
	name, err := s.store.SaveUpload(filename, file)
	if err != nil {
		s.logger.Printf("[server] save upload failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	s.infof("Ingested %s as %s", filename, name)
	writeJSON(w, http.StatusOK, ingestResp{ImagePath: name})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImagePath == "" {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: errImagePathRequired.Error()})
		return
	}

	ctx := r.Context()
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	state := pipeline.NewState(req.ImagePath)
	final, err := s.runner.Run(ctx, state)
	if err != nil {
		snapshot, _ := json.Marshal(state)
		s.logger.Printf("[server] process %s failed: %v, current state: %s", req.ImagePath, err, snapshot)
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	s.infof("Processed %s: validated=%v retries=%d", req.ImagePath, final.Validated, final.RetryCount)
	writeJSON(w, http.StatusOK, final.Result())
}

func (s *Server) handleArticle(w http.ResponseWriter, _ *http.Request) {
	data, err := s.store.ReadOutput(pipeline.ArticleMetadataFile, pipeline.ArticleDir)
	if err != nil {
		s.writeReadError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	md, err := s.store.ReadOutput(pipeline.ArticleMarkdownFile, pipeline.ArticleDir)
	if err != nil {
		s.writeReadError(w, err)
		return
	}
	html, err := publisher.RenderHTML(string(md))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// --- Helpers ---

func (s *Server) writeReadError(w http.ResponseWriter, err error) {
	if errors.Is(err, os.ErrNotExist) {
		writeJSON(w, http.StatusNotFound, errorResp{Error: "no article published yet"})
		return
	}
	s.logger.Printf("[server] read article failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResp{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		path := r.URL.Path
		if path == "" {
			path = "/"
		}
		s.logger.Printf("[server] %s %s %d %s", r.Method, path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}

package httpadapter

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/erp-document-processor/internal/adapters/http/openapi"
	"github.com/kirillkom/erp-document-processor/internal/config"
	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/core/ports"
	"github.com/kirillkom/erp-document-processor/internal/core/usecase"
)

//go:embed web/index.html
var indexHTML []byte

// Observer receives per-request business counters. *metrics.HTTPServerMetrics implements it.
type Observer interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
	RecordDispatch(decision, sink string, err error)
	RecordExport(format string)
}

type Dependencies struct {
	Processor  ports.DocumentProcessor
	Dispatcher ports.ERPDispatcher
	Exporters  map[string]ports.TransformedDataExporter
	Observer   Observer
	Logger     *slog.Logger
}

type Router struct {
	cfg        config.Config
	processor  ports.DocumentProcessor
	dispatcher ports.ERPDispatcher
	exporters  map[string]ports.TransformedDataExporter
	observer   Observer
	logger     *slog.Logger
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:        cfg,
		processor:  deps.Processor,
		dispatcher: deps.Dispatcher,
		exporters:  deps.Exporters,
		observer:   deps.Observer,
		logger:     logger,
	}
}

func (rt *Router) Handler() (http.Handler, error) {
	doc, err := openapi.Load()
	if err != nil {
		return nil, err
	}
	contract, err := openapi.JSON(doc)
	if err != nil {
		return nil, err
	}

	process := http.Handler(http.HandlerFunc(rt.processDocument))
	process = backpressureMiddleware(process, rt.cfg.PipelineMaxConcurrent,
		time.Duration(rt.cfg.PipelineQueueWaitMS)*time.Millisecond)

	mux := http.NewServeMux()
	mux.HandleFunc("/", rt.index)
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(contract)
	})
	mux.Handle("/v1/documents/process", process)
	mux.HandleFunc("/v1/exports/transformed", rt.exportTransformed)
	mux.HandleFunc("/v1/erp/dispatch", rt.dispatchToERP)
	if rt.observer != nil {
		mux.Handle("/metrics", rt.observer.Handler())
	}

	var handler http.Handler = mux
	if rt.cfg.OpenAPIValidation {
		validator, err := openapi.NewValidator(doc, func(w http.ResponseWriter, status int, message string) {
			writeJSON(w, status, errorResponse{Error: message, Kind: "invalid_input"})
		})
		if err != nil {
			return nil, err
		}
		handler = validator.Middleware(handler)
	}
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.observer != nil {
		handler = rt.observer.Middleware(handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler), nil
}

func (rt *Router) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Kind: "not_found"})
		return
	}
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) processDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "read upload", fmt.Errorf("multipart field 'file' is required")))
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "read upload", err))
		return
	}

	result, err := rt.processor.Process(r.Context(), domain.UploadedDocument{
		Filename:  fileHeader.Filename,
		MediaType: fileHeader.Header.Get("Content-Type"),
		Body:      body,
	})
	if err != nil {
		rt.logger.Warn("process_document_failed",
			"request_id", requestIDFromContext(r.Context()),
			"filename", fileHeader.Filename,
			"error", err,
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) exportTransformed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "json"
	}
	exporter, ok := rt.exporters[format]
	if !ok {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "export", fmt.Errorf("unknown format %q", format)))
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "export", err))
		return
	}
	data, err := usecase.ParseTransformedData(raw)
	if err != nil {
		writeError(w, err)
		return
	}

	var out bytes.Buffer
	if err := exporter.Export(&out, data); err != nil {
		writeError(w, err)
		return
	}
	if rt.observer != nil {
		rt.observer.RecordExport(format)
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exporter.FileName()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Bytes())
}

func (rt *Router) dispatchToERP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode dispatch", fmt.Errorf("invalid json")))
		return
	}

	dispatch, err := rt.dispatcher.Dispatch(r.Context(), req)
	if rt.observer != nil {
		rt.observer.RecordDispatch(string(req.Decision), rt.cfg.ERPSink, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, dispatch)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Kind: "method_not_allowed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

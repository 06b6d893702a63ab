package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
	"github.com/mkravets/rag-assistant/internal/infrastructure/extractor"
	"github.com/mkravets/rag-assistant/internal/observability/metrics"
)

const (
	maxInFlightRequests = 64
	inFlightWait        = 100 * time.Millisecond
)

// RouterOptions carries the cross-cutting knobs of the API surface.
type RouterOptions struct {
	Service        string
	Presets        map[string]domain.AssistantConfig
	Metrics        *metrics.HTTPServerMetrics
	RateLimitRPS   float64
	RateLimitBurst int
}

type Router struct {
	assistant   ports.AssistantExecutor
	collections ports.CollectionManager
	ingestor    ports.DocumentIngestor
	opts        RouterOptions
}

func NewRouter(
	assistant ports.AssistantExecutor,
	collections ports.CollectionManager,
	ingestor ports.DocumentIngestor,
	opts RouterOptions,
) *Router {
	if opts.Service == "" {
		opts.Service = "api"
	}
	return &Router{
		assistant:   assistant,
		collections: collections,
		ingestor:    ingestor,
		opts:        opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/assistants/execute", rt.executeAssistant)
	mux.HandleFunc("/v1/assistants/execute/stream", rt.executeAssistantStream)
	mux.HandleFunc("/v1/collections", rt.collectionsRoot)
	mux.HandleFunc("/v1/collections/", rt.collectionsByName)
	if rt.opts.Metrics != nil {
		mux.Handle("/metrics", rt.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, maxInFlightRequests, inFlightWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(rt.opts.Service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type executeRequest struct {
	Assistant string                  `json:"assistant,omitempty"`
	Config    *domain.AssistantConfig `json:"config,omitempty"`
	Question  string                  `json:"question"`
}

// resolveConfig picks the assistant configuration for a request: an
// inline config wins, otherwise the named preset is looked up.
func (rt *Router) resolveConfig(req executeRequest) (domain.AssistantConfig, bool) {
	if req.Config != nil {
		cfg := *req.Config
		if cfg.Name == "" {
			cfg.Name = req.Assistant
		}
		if cfg.Name == "" {
			cfg.Name = "inline"
		}
		return cfg, true
	}
	cfg, ok := rt.opts.Presets[req.Assistant]
	return cfg, ok
}

func (rt *Router) decodeExecuteRequest(w http.ResponseWriter, r *http.Request) (executeRequest, domain.AssistantConfig, bool) {
	var req executeRequest
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return req, domain.AssistantConfig{}, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return req, domain.AssistantConfig{}, false
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return req, domain.AssistantConfig{}, false
	}

	cfg, ok := rt.resolveConfig(req)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown assistant: " + req.Assistant})
		return req, domain.AssistantConfig{}, false
	}
	return req, cfg, true
}

func (rt *Router) executeAssistant(w http.ResponseWriter, r *http.Request) {
	req, cfg, ok := rt.decodeExecuteRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	answer, err := rt.assistant.Execute(r.Context(), cfg, req.Question)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordRetrieval(rt.opts.Service, string(cfg.Retrieval.Mode()))
		rt.opts.Metrics.RecordAssistantExecution(
			rt.opts.Service, "execute", string(cfg.Generation.EffectiveMode()),
			answer.Metadata.RetrievedDocs, time.Since(start),
		)
		rt.opts.Metrics.RecordDroppedCitations(rt.opts.Service, answer.Metadata.DroppedCitations)
	}

	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) executeAssistantStream(w http.ResponseWriter, r *http.Request) {
	req, cfg, ok := rt.decodeExecuteRequest(w, r)
	if !ok {
		return
	}

	stream, err := newSSEStream(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	start := time.Now()
	tokens := 0
	retrievedDocs := 0
	err = rt.assistant.ExecuteStream(r.Context(), cfg, req.Question, func(chunk domain.StreamChunk) error {
		if chunk.IsToken() {
			tokens++
			return stream.sendToken(chunk.Token)
		}
		if chunk.Final.Result != nil {
			retrievedDocs = chunk.Final.Result.Metadata.RetrievedDocs
		} else {
			retrievedDocs = len(chunk.Final.Contexts)
		}
		return stream.sendFinal(chunk.Final)
	})
	if err != nil {
		// Headers are already written; the error travels in-band.
		stream.sendError(err)
		return
	}
	stream.done()

	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordRetrieval(rt.opts.Service, string(cfg.Retrieval.Mode()))
		rt.opts.Metrics.RecordAssistantExecution(
			rt.opts.Service, "execute_stream", string(cfg.Generation.EffectiveMode()),
			retrievedDocs, time.Since(start),
		)
		rt.opts.Metrics.RecordStreamTokens(rt.opts.Service, cfg.Generation.LLMModel, tokens)
	}
}

func (rt *Router) collectionsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.listCollections(w, r)
	case http.MethodPost:
		rt.createCollection(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

type createCollectionRequest struct {
	Name                string `json:"name"`
	ChunkSize           int    `json:"chunk_size"`
	ChunkOverlap        int    `json:"chunk_overlap"`
	DenseEmbeddingModel string `json:"dense_embedding_model"`
	DistanceMetric      string `json:"distance_metric"`
}

func (rt *Router) createCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	cfg := domain.CollectionConfig{
		Name:                strings.TrimSpace(req.Name),
		ChunkSize:           req.ChunkSize,
		ChunkOverlap:        req.ChunkOverlap,
		DenseEmbeddingModel: req.DenseEmbeddingModel,
		DistanceMetric:      req.DistanceMetric,
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.DenseEmbeddingModel == "" {
		cfg.DenseEmbeddingModel = "jina/jina-embeddings-v2-base-de"
	}
	if cfg.DistanceMetric == "" {
		cfg.DistanceMetric = domain.DistanceCosine
	}

	if err := rt.collections.CreateCollection(r.Context(), &cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (rt *Router) listCollections(w http.ResponseWriter, r *http.Request) {
	configs, err := rt.collections.ListCollections(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if configs == nil {
		configs = []domain.CollectionConfig{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": configs})
}

func (rt *Router) collectionsByName(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/collections/")
	name, action, _ := strings.Cut(rest, "/")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "collection name is required"})
		return
	}

	switch {
	case action == "" && r.Method == http.MethodDelete:
		rt.deleteCollection(w, r, name)
	case action == "chunking" && r.Method == http.MethodPut:
		rt.updateChunking(w, r, name)
	case action == "index" && r.Method == http.MethodPost:
		rt.requestIndex(w, r, name)
	case action == "documents" && r.Method == http.MethodPost:
		rt.addDocument(w, r, name)
	case action == "documents" && r.Method == http.MethodDelete:
		rt.removeDocument(w, r, name)
	case action == "files" && r.Method == http.MethodPost:
		rt.addFile(w, r, name)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) deleteCollection(w http.ResponseWriter, r *http.Request, name string) {
	if err := rt.collections.DeleteCollection(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "name": name})
}

type chunkingRequest struct {
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`
}

func (rt *Router) updateChunking(w http.ResponseWriter, r *http.Request, name string) {
	var req chunkingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ChunkSize <= 0 || req.ChunkOverlap < 0 || req.ChunkOverlap >= req.ChunkSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "chunk_overlap must be smaller than a positive chunk_size"})
		return
	}

	if err := rt.collections.UpdateChunking(r.Context(), name, req.ChunkSize, req.ChunkOverlap); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reindex scheduled", "name": name})
}

func (rt *Router) requestIndex(w http.ResponseWriter, r *http.Request, name string) {
	if err := rt.collections.RequestIndex(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "index scheduled", "name": name})
}

type addDocumentRequest struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	SourceCategory string `json:"source_category,omitempty"`
}

func (rt *Router) addDocument(w http.ResponseWriter, r *http.Request, name string) {
	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	doc, err := rt.ingestor.AddDocument(r.Context(), &domain.RawDocument{
		CollectionName: name,
		URL:            req.URL,
		Title:          req.Title,
		Content:        req.Content,
		SourceCategory: req.SourceCategory,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

// addFile ingests an uploaded file: the extractor for the file extension
// turns it into text, which then follows the regular document path.
func (rt *Router) addFile(w http.ResponseWriter, r *http.Request, name string) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	ext, err := extractor.ForFilename(fileHeader.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	content, err := ext.Extract(r.Context(), file, fileHeader.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := rt.ingestor.AddDocument(r.Context(), &domain.RawDocument{
		CollectionName: name,
		URL:            "file://" + fileHeader.Filename,
		Title:          fileHeader.Filename,
		Content:        content,
		SourceCategory: domain.SourceCategoryFile,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) removeDocument(w http.ResponseWriter, r *http.Request, name string) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter 'url' is required"})
		return
	}
	if err := rt.ingestor.RemoveDocument(r.Context(), name, url); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "url": url})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

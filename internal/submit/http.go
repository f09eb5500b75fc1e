package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/example/d4scope/internal/annotation"
)

// Form field names shared by the client and the mock handler.
const (
	FieldImage       = "image"
	FieldParameters  = "parameters"
	FieldAnnotations = "annotations"
)

// Route is the path the mock handler is mounted on.
const Route = "/api/process-image"

const maxUpload = 64 << 20

type envelope struct {
	Result Result `json:"result"`
}

// HTTPAnalyzer posts multipart requests to an analysis endpoint.
type HTTPAnalyzer struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPAnalyzer returns a client for endpoint. A nil client gets a five
// minute timeout.
func NewHTTPAnalyzer(endpoint string, client *http.Client) *HTTPAnalyzer {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &HTTPAnalyzer{endpoint: strings.TrimSuffix(endpoint, "/"), httpClient: client}
}

// Analyze implements Analyzer.
func (c *HTTPAnalyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	body, contentType, err := encodeForm(req)
	if err != nil {
		return Result{}, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	hreq.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(hreq)
	if err != nil {
		return Result{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Result{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return env.Result, nil
}

func encodeForm(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	name := req.Filename
	if name == "" {
		name = "image.png"
	}
	fw, err := mw.CreateFormFile(FieldImage, name)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(req.Image); err != nil {
		return nil, "", err
	}
	params, err := json.Marshal(req.Parameters)
	if err != nil {
		return nil, "", fmt.Errorf("encode parameters: %w", err)
	}
	if err := mw.WriteField(FieldParameters, string(params)); err != nil {
		return nil, "", err
	}
	var ann bytes.Buffer
	if err := annotation.Encode(&ann, req.Annotations); err != nil {
		return nil, "", fmt.Errorf("encode annotations: %w", err)
	}
	if err := mw.WriteField(FieldAnnotations, ann.String()); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// MockHandler serves the mock analysis route. It echoes the submitted
// parameters as the analysis results.
func MockHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			http.Error(w, "invalid form: "+err.Error(), http.StatusBadRequest)
			return
		}
		file, hdr, err := r.FormFile(FieldImage)
		if err != nil {
			http.Error(w, "missing image", http.StatusBadRequest)
			return
		}
		file.Close()
		var params map[string]any
		if err := json.Unmarshal([]byte(r.FormValue(FieldParameters)), &params); err != nil {
			http.Error(w, "invalid parameters: "+err.Error(), http.StatusBadRequest)
			return
		}
		if raw := r.FormValue(FieldAnnotations); raw != "" {
			exp, err := annotation.Decode(strings.NewReader(raw))
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			log.Printf("mock analysis: %s, %d circles, %d clusters", hdr.Filename, len(exp.Circles), len(exp.Clusters))
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(envelope{Result: Result{ProcessedImage: PlaceholderImage, AnalysisResults: params}}); err != nil {
			log.Printf("mock analysis response: %v", err)
		}
	})
}

// NewMux mounts MockHandler on Route.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(Route, MockHandler())
	return mux
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
	"unicode/utf8"

	"github/itish2003/pdfquery/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

const (
	uploadPath = "/upload_pdf/"
	queryPath  = "/query/"

	// maxErrorBody caps how much of a failed response ends up in an error message.
	maxErrorBody = 512
)

// PDFService is the external service that ingests PDFs and answers questions.
type PDFService interface {
	UploadPDF(ctx context.Context, name string, content io.Reader) (*models.Result, error)
	Query(ctx context.Context, question string) (*models.Result, error)
}

// pdfServiceImpl talks to the service over HTTP.
type pdfServiceImpl struct {
	httpClient *http.Client
	baseURL    string
	logger     logrus.FieldLogger
}

// NewPDFService creates a client for the service at baseURL.
func NewPDFService(client *http.Client, baseURL string, logger logrus.FieldLogger) PDFService {
	return &pdfServiceImpl{
		httpClient: client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// UploadPDF sends content as the multipart field "file". The part type is
// sniffed from the first bytes and the rest is streamed, so the file is
// never held in memory as a whole.
func (s *pdfServiceImpl) UploadPDF(ctx context.Context, name string, content io.Reader) (*models.Result, error) {
	var head bytes.Buffer
	mtype, err := mimetype.DetectReader(io.TeeReader(content, &head))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(writeFilePart(mw, name, mtype.String(), io.MultiReader(&head, content)))
	}()

	s.logger.WithFields(logrus.Fields{"file": name, "type": mtype.String()}).Debug("SERVICE: Uploading PDF")
	result, err := s.post(ctx, uploadPath, mw.FormDataContentType(), pr)

	// Unblock the writer if the request ended before the body was consumed.
	pr.Close()
	<-done
	return result, err
}

func writeFilePart(mw *multipart.Writer, name, contentType string, content io.Reader) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name)))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}
	return nil
}

// Query sends {"question": question} as JSON.
func (s *pdfServiceImpl) Query(ctx context.Context, question string) (*models.Result, error) {
	reqBody, err := json.Marshal(models.QueryRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query request: %w", err)
	}

	s.logger.WithField("question", question).Debug("SERVICE: Submitting query")
	return s.post(ctx, queryPath, "application/json", bytes.NewBuffer(reqBody))
}

func (s *pdfServiceImpl) post(ctx context.Context, path, contentType string, body io.Reader) (*models.Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"endpoint": path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("SERVICE: Response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Detail: errorDetail(raw)}
	}

	return decodeResult(raw)
}

func decodeResult(raw []byte) (*models.Result, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("failed to decode response: expected a JSON object, got %s", strings.TrimSpace(string(raw)))
	}
	return &models.Result{Raw: json.RawMessage(raw), Fields: fields}, nil
}

// errorDetail pulls a readable message out of an error body. FastAPI style
// {"detail": "..."} and {"error": "..."} bodies are recognised.
func errorDetail(raw []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			switch v := body[key].(type) {
			case string:
				return v
			case nil:
			default:
				if b, err := json.Marshal(v); err == nil {
					return string(b)
				}
			}
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return text
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

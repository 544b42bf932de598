package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadPDFSendsMultipartFile(t *testing.T) {
	var gotName, gotType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload_pdf/", r.URL.Path)

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBody = string(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"filename": "report.pdf", "message": "File uploaded successfully"}`))
	}))
	defer server.Close()

	svc := NewPDFService(server.Client(), server.URL+"/", testLogger())
	content := "%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n"
	result, err := svc.UploadPDF(context.Background(), "report.pdf", strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", gotName)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, content, gotBody)
	assert.Equal(t, "File uploaded successfully", result.Fields["message"])
	assert.Equal(t, "{\n  \"filename\": \"report.pdf\",\n  \"message\": \"File uploaded successfully\"\n}", result.Pretty())
}

func TestQuerySendsJSONQuestion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/query/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"question": "What is the total?"}, body)

		_, _ = w.Write([]byte(`{"response": "42"}`))
	}))
	defer server.Close()

	svc := NewPDFService(server.Client(), server.URL, testLogger())
	result, err := svc.Query(context.Background(), "What is the total?")
	require.NoError(t, err)
	assert.Equal(t, "42", result.Fields["response"])
}

func TestPDFServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "fastapi detail",
			status:     http.StatusBadRequest,
			body:       `{"detail": "Please upload a PDF first"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "service returned status 400: Please upload a PDF first",
		},
		{
			name:       "validation detail list",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail": [{"loc": ["body", "question"]}]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    `service returned status 422: [{"loc":["body","question"]}]`,
		},
		{
			name:       "plain text",
			status:     http.StatusInternalServerError,
			body:       "Internal Server Error\n",
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "service returned status 500: Internal Server Error",
		},
		{
			name:    "html body",
			status:  http.StatusOK,
			body:    "<html>not json</html>",
			wantMsg: "failed to decode response",
		},
		{
			name:    "json array",
			status:  http.StatusOK,
			body:    `[1, 2, 3]`,
			wantMsg: "failed to decode response",
		},
		{
			name:    "json null",
			status:  http.StatusOK,
			body:    `null`,
			wantMsg: "expected a JSON object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewPDFService(server.Client(), server.URL, testLogger())
			_, err := svc.Query(context.Background(), "q")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)

			var svcErr *ServiceError
			if tt.wantStatus != 0 {
				require.ErrorAs(t, err, &svcErr)
				assert.Equal(t, tt.wantStatus, svcErr.StatusCode)
			} else {
				assert.False(t, errors.As(err, &svcErr))
			}
		})
	}
}

func TestPDFServiceTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	svc := NewPDFService(http.DefaultClient, url, testLogger())
	_, err := svc.UploadPDF(context.Background(), "a.pdf", strings.NewReader("%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload_pdf")
}

func TestUploadPDFStreamsLargeFiles(t *testing.T) {
	var gotType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotType = header.Header.Get("Content-Type")
		gotBody = string(data)
		_, _ = w.Write([]byte(`{"message": "ok"}`))
	}))
	defer server.Close()

	// Well past the sniffing window, so the body is sent in pieces.
	content := "%PDF-1.4\n" + strings.Repeat("0123456789", 100_000)
	svc := NewPDFService(server.Client(), server.URL, testLogger())
	_, err := svc.UploadPDF(context.Background(), "big.pdf", strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, len(content), len(gotBody))
	assert.Equal(t, content, gotBody)
}

// brokenReader yields its data and then fails instead of returning EOF.
type brokenReader struct {
	data io.Reader
	err  error
}

func (r *brokenReader) Read(p []byte) (int, error) {
	n, err := r.data.Read(p)
	if errors.Is(err, io.EOF) {
		return n, r.err
	}
	return n, err
}

func TestUploadPDFReportsReadErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	content := &brokenReader{
		data: strings.NewReader("%PDF-1.4\n" + strings.Repeat("x", 10_000)),
		err:  errors.New("disk gone"),
	}
	svc := NewPDFService(server.Client(), server.URL, testLogger())
	_, err := svc.UploadPDF(context.Background(), "broken.pdf", content)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestErrorDetailTruncatesLongBodies(t *testing.T) {
	detail := errorDetail([]byte(strings.Repeat("x", maxErrorBody+100)))
	assert.Len(t, detail, maxErrorBody+len("..."))
}

func TestErrorDetailTruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("\x00", maxErrorBody-1) + "é" + "tail"
	detail := errorDetail([]byte(body))

	assert.True(t, utf8.ValidString(detail))
	assert.Equal(t, strings.Repeat("\x00", maxErrorBody-1)+"...", detail)
}

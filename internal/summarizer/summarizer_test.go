package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"mailtriage/pkg/apperr"
	"mailtriage/pkg/config"
	"mailtriage/pkg/trace"
)

func TestPrepareInput(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		wantErr  bool
		wantRune int
	}{
		{"empty", "", true, 0},
		{"whitespace only", " \n\t ", true, 0},
		{"invalid utf8", "\xff", true, 0},
		{"short", "hello", false, 5},
		{"exactly cap", strings.Repeat("a", MaxInputChars), false, MaxInputChars},
		{"over cap", strings.Repeat("a", MaxInputChars+500), false, MaxInputChars},
		{"multibyte over cap", strings.Repeat("é", MaxInputChars+1), false, MaxInputChars},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := prepareInput(tc.text)
			if tc.wantErr {
				if !apperr.Is(err, apperr.KindValidation) {
					t.Fatalf("err = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n := utf8.RuneCountInString(got); n != tc.wantRune {
				t.Errorf("rune count = %d, want %d", n, tc.wantRune)
			}
			if !utf8.ValidString(got) {
				t.Error("truncation produced invalid UTF-8")
			}
		})
	}
}

func TestLengthsWithDefaults(t *testing.T) {
	if diff := cmp.Diff(Lengths{Min: 30, Max: 130}, Lengths{}.withDefaults()); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if got := (Lengths{Min: 200, Max: 50}).withDefaults(); got.Min != 50 {
		t.Errorf("min not clamped to max: %+v", got)
	}
}

func TestHTTPSummarizer_Success(t *testing.T) {
	var gotReq inferenceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/"+DefaultModel {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get(trace.HeaderName); got != "trace-1" {
			t.Errorf("trace header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode([]inferenceResult{{SummaryText: "  Server is down.  "}})
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(HTTPConfig{BaseURL: srv.URL, APIToken: "tok"}, zap.NewNop())
	ctx := trace.WithContext(context.Background(), "trace-1")
	got, err := s.Summarize(ctx, strings.Repeat("x", 2000))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "Server is down." {
		t.Errorf("summary = %q", got)
	}

	want := inferenceParameters{MinLength: 30, MaxLength: 130, DoSample: false}
	if diff := cmp.Diff(want, gotReq.Parameters); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
	if len(gotReq.Inputs) != MaxInputChars {
		t.Errorf("input length = %d, want %d", len(gotReq.Inputs), MaxInputChars)
	}
}

func TestHTTPSummarizer_ModelFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(HTTPConfig{BaseURL: srv.URL}, zap.NewNop())
	_, err := s.Summarize(context.Background(), "urgent: please reply")
	if !apperr.Is(err, apperr.KindDependency) {
		t.Fatalf("err = %v, want dependency error", err)
	}
	if !strings.Contains(err.Error(), "Model is currently loading") {
		t.Errorf("err = %v, want model message", err)
	}
}

func TestHTTPSummarizer_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(HTTPConfig{BaseURL: srv.URL}, zap.NewNop())
	if _, err := s.Summarize(context.Background(), "text"); !apperr.Is(err, apperr.KindDependency) {
		t.Errorf("err = %v, want dependency error", err)
	}
}

func TestHTTPSummarizer_ValidationDoesNotCallModel(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(HTTPConfig{BaseURL: srv.URL}, zap.NewNop())
	if _, err := s.Summarize(context.Background(), "   "); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("model endpoint was called for invalid input")
	}
}

func TestHTTPSummarizer_CircuitOpensAfterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(HTTPConfig{BaseURL: srv.URL}, zap.NewNop())
	for i := 0; i < 5; i++ {
		_, _ = s.Summarize(context.Background(), "text")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("endpoint called %d times, want 3 before the breaker opens", got)
	}
}

type mockInvoker struct {
	invokeFunc func(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

func (m *mockInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	return m.invokeFunc(ctx, params, optFns...)
}

func TestBedrockSummarizer_Success(t *testing.T) {
	invoker := &mockInvoker{
		invokeFunc: func(ctx context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
			if *params.ModelId != DefaultBedrockModel {
				t.Errorf("model id = %q", *params.ModelId)
			}
			var req claudeRequest
			if err := json.Unmarshal(params.Body, &req); err != nil {
				t.Fatalf("unmarshal request: %v", err)
			}
			if req.MaxTokens != 130 {
				t.Errorf("max_tokens = %d, want 130", req.MaxTokens)
			}
			if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
				t.Errorf("messages = %+v", req.Messages)
			}
			return &bedrockruntime.InvokeModelOutput{
				Body: []byte(`{"content":[{"type":"text","text":"Quarterly review moved to Monday."}]}`),
			}, nil
		},
	}

	s := NewBedrockSummarizer(invoker, "", Lengths{}, 0)
	got, err := s.Summarize(context.Background(), "The meeting is rescheduled.")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "Quarterly review moved to Monday." {
		t.Errorf("summary = %q", got)
	}
}

func TestBedrockSummarizer_InvokeError(t *testing.T) {
	invoker := &mockInvoker{
		invokeFunc: func(context.Context, *bedrockruntime.InvokeModelInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	s := NewBedrockSummarizer(invoker, "", Lengths{}, 0)
	if _, err := s.Summarize(context.Background(), "text"); !apperr.Is(err, apperr.KindDependency) {
		t.Errorf("err = %v, want dependency error", err)
	}
}

func TestBedrockSummarizer_NoText(t *testing.T) {
	invoker := &mockInvoker{
		invokeFunc: func(context.Context, *bedrockruntime.InvokeModelInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
			return &bedrockruntime.InvokeModelOutput{Body: []byte(`{"content":[]}`)}, nil
		},
	}
	s := NewBedrockSummarizer(invoker, "", Lengths{}, 0)
	if _, err := s.Summarize(context.Background(), "text"); !apperr.Is(err, apperr.KindDependency) {
		t.Errorf("err = %v, want dependency error", err)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), config.SummarizerConfig{Backend: "gpt"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNew_DefaultsToHTTP(t *testing.T) {
	s, err := New(context.Background(), config.SummarizerConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(*HTTPSummarizer); !ok {
		t.Errorf("got %T, want *HTTPSummarizer", s)
	}
}

func TestNew_BedrockModelID(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")

	tests := []struct {
		name  string
		model string
		want  string
	}{
		{"unset", "", DefaultBedrockModel},
		{"http default checkpoint", DefaultModel, DefaultBedrockModel},
		{"explicit", "anthropic.claude-3-haiku-20240307-v1:0", "anthropic.claude-3-haiku-20240307-v1:0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(context.Background(), config.SummarizerConfig{
				Backend: "bedrock",
				Region:  "us-east-1",
				Model:   tt.model,
			}, zap.NewNop())
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			b, ok := s.(*BedrockSummarizer)
			if !ok {
				t.Fatalf("got %T, want *BedrockSummarizer", s)
			}
			if b.modelID != tt.want {
				t.Errorf("model id = %q, want %q", b.modelID, tt.want)
			}
		})
	}
}

package ai

import (
	"collab-chat/contract"
	"collab-chat/errors"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPGateway_Generate(t *testing.T) {
	req := require.New(t)
	var received responsesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/responses", r.URL.Path)
		req.Equal("Bearer secret-key", r.Header.Get("Authorization"))
		req.NoError(json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"output_text":"  4  "}`))
	}))
	defer srv.Close()

	gateway := NewHTTPGateway(Config{BaseURL: srv.URL + "/", APIKey: "secret-key", Model: "test-model"})

	// When a prompt is generated
	text, err := gateway.Generate(context.Background(), contract.Prompt{Text: " what is 2+2", Language: "English"})

	// Then the trimmed output text is returned and the prompt was sent verbatim
	req.NoError(err)
	req.Equal("4", text)
	req.Equal(" what is 2+2", received.Input)
	req.Equal("test-model", received.Model)
	req.Equal("Reply in English.", received.Instructions)
}

func TestHTTPGateway_Generate_FallsBackToOutputContent(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":[{"content":[{"type":"output_text","text":""},{"type":"output_text","text":"hello"}]}]}`))
	}))
	defer srv.Close()

	text, err := NewHTTPGateway(Config{BaseURL: srv.URL}).Generate(context.Background(), contract.Prompt{Text: "hi"})
	req.NoError(err)
	req.Equal("hello", text)
}

func TestHTTPGateway_Generate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"quota exceeded", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}},
		{"empty output", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"output_text":""}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTPGateway(Config{BaseURL: srv.URL}).Generate(context.Background(), contract.Prompt{Text: "hi"})
			req.ErrorIs(err, errors.ErrGeneration)
		})
	}
}

func TestHTTPGateway_Generate_Timeout(t *testing.T) {
	req := require.New(t)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPGateway(Config{BaseURL: srv.URL}).Generate(ctx, contract.Prompt{Text: "hi"})
	req.ErrorIs(err, errors.ErrGeneration)
}

func TestUnavailable_Generate(t *testing.T) {
	_, err := Unavailable{}.Generate(context.Background(), contract.Prompt{Text: "hi"})
	require.ErrorIs(t, err, errors.ErrGeneration)
}

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)
	req.Equal("French", DetectLanguage("Bonjour, pourriez-vous m'expliquer comment fonctionne ce projet et ses différentes étapes ?"))
	req.Equal("", Instructions(""))
}

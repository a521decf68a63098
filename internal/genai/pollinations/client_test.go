package pollinations

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"genai-slides/internal/genai/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		APIToken:     "test-token",
		ImageBaseURL: srv.URL + "/prompt/",
		TextURL:      srv.URL + "/openai/chat/completions",
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsEmptyToken(t *testing.T) {
	for _, token := range []string{"", "   "} {
		_, err := NewClient(Config{APIToken: token})
		assert.ErrorIs(t, err, provider.ErrInvalidToken)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(Config{APIToken: "abc"})
	require.NoError(t, err)
	assert.Equal(t, DefaultImageBaseURL, c.imageBaseURL)
	assert.Equal(t, DefaultTextURL, c.textURL)

	c, err = NewClient(Config{APIToken: "abc", ImageBaseURL: "http://localhost/prompt"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/prompt/", c.imageBaseURL)
}

func TestEscapePrompt(t *testing.T) {
	unreservedOnly := regexp.MustCompile(`^([A-Za-z0-9\-_.~]|%[0-9A-F]{2})*$`)
	prompts := []string{
		"a cat",
		"sunset over the sea/ocean?",
		"50% off & free: #1 deal; a=b+c, @home [x] (y) !*'$",
		"日本の富士山",
		"",
	}
	for _, p := range prompts {
		escaped := EscapePrompt(p)
		assert.Regexp(t, unreservedOnly, escaped, "prompt %q", p)
		assert.NotContains(t, escaped, "+")
	}
	assert.Equal(t, "a%20cat%2Fdog", EscapePrompt("a cat/dog"))
}

func TestGenerateImage_Success(t *testing.T) {
	prompt := "a red fox / in the snow? 100%"
	imageBytes := []byte("\x89PNG fake image bytes")

	var gotPath string
	var gotQuery map[string]string
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(imageBytes)
	})

	seed := int64(7)
	opts := provider.DefaultImageOptions()
	opts.Seed = &seed
	opts.Private = false

	out := filepath.Join(t.TempDir(), "fox.png")
	path, err := c.GenerateImage(context.Background(), prompt, out, opts)
	require.NoError(t, err)
	assert.Equal(t, out, path)

	assert.Equal(t, "/prompt/"+EscapePrompt(prompt), gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, map[string]string{
		"model":   "flux",
		"width":   "1024",
		"height":  "1024",
		"nologo":  "true",
		"enhance": "true",
		"private": "false",
		"seed":    "7",
	}, gotQuery)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, imageBytes, written)
}

func TestGenerateImage_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, "slow down")
	})

	out := filepath.Join(t.TempDir(), "x.png")
	_, err := c.GenerateImage(context.Background(), "anything", out, provider.DefaultImageOptions())
	require.Error(t, err)

	var apiErr *provider.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "slow down", apiErr.Body)
	assert.Contains(t, err.Error(), "429")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no file should be written on failure")
}

func TestGenerateImage_UnwritablePath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("img"))
	})

	out := filepath.Join(t.TempDir(), "missing-dir", "x.png")
	_, err := c.GenerateImage(context.Background(), "p", out, provider.DefaultImageOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestGenerateImage_InvalidOptions(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	opts := provider.DefaultImageOptions()
	opts.Width = 0
	_, err := c.GenerateImage(context.Background(), "p", filepath.Join(t.TempDir(), "x.png"), opts)
	assert.ErrorIs(t, err, provider.ErrInvalidOptions)
	assert.False(t, called)
}

func TestGenerateText_Success(t *testing.T) {
	var body map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openai/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "application/json"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":" hi "}}]}`)
	})

	opts := provider.DefaultTextOptions()
	opts.SystemPrompt = "You write slides."
	text, err := c.GenerateText(context.Background(), "say hi", opts)
	require.NoError(t, err)
	assert.Equal(t, "hi", text)

	assert.Equal(t, "gpt-4", body["model"])
	assert.InDelta(t, 0.7, body["temperature"], 1e-9)
	assert.EqualValues(t, 2048, body["max_tokens"])
	messages, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]interface{}{"role": "system", "content": "You write slides."}, messages[0])
	assert.Equal(t, map[string]interface{}{"role": "user", "content": "say hi"}, messages[1])
}

func TestGenerateText_OmitsMaxTokensWhenZero(t *testing.T) {
	var body map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	})

	opts := provider.DefaultTextOptions()
	opts.MaxTokens = 0
	_, err := c.GenerateText(context.Background(), "p", opts)
	require.NoError(t, err)

	_, present := body["max_tokens"]
	assert.False(t, present)
	assert.Len(t, body["messages"], 1)
}

func TestGenerateText_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"bad token"}`)
	})

	_, err := c.GenerateText(context.Background(), "p", provider.DefaultTextOptions())
	var apiErr *provider.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "401")
}

func TestGenerateText_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing choices", `{"id":"abc","object":"chat.completion"}`},
		{"empty choices", `{"choices":[]}`},
		{"missing message", `{"choices":[{"index":0}]}`},
		{"missing content", `{"choices":[{"message":{"role":"assistant"}}]}`},
		{"not json", `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.GenerateText(context.Background(), "p", provider.DefaultTextOptions())
			var parseErr *provider.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.body, parseErr.Response)
			assert.Contains(t, err.Error(), tt.body)
		})
	}
}

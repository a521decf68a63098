package tools

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"genai-slides/internal/genai/provider"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	imageCalls []provider.ImageOptions
	textCalls  []provider.TextOptions
	prompts    []string
	err        error
	text       string
}

func (f *fakeProvider) GenerateImage(ctx context.Context, prompt string, outputPath string, opts provider.ImageOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.imageCalls = append(f.imageCalls, opts)
	if f.err != nil {
		return "", f.err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		return "", err
	}
	return outputPath, os.WriteFile(outputPath, buf.Bytes(), 0644)
}

func (f *fakeProvider) GenerateText(ctx context.Context, prompt string, opts provider.TextOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.textCalls = append(f.textCalls, opts)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeProvider) Close() error { return nil }

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, localPath, prefix string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.published = append(f.published, localPath)
	return "https://cdn.example.com/" + prefix + "/" + filepath.Base(localPath), nil
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content type %T", res.Content[0])
		return ""
	}
}

func TestGenerateImage_LocalPath(t *testing.T) {
	gen := &fakeProvider{}
	dir := t.TempDir()
	h := NewHandlers(gen, Options{ImageModel: "turbo", OutputDir: dir})

	res, err := h.GenerateImage(context.Background(), callRequest("generate_image", map[string]any{
		"prompt":  "a lighthouse",
		"width":   float64(640),
		"seed":    float64(42),
		"private": false,
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError, resultText(t, res))

	text := resultText(t, res)
	require.True(t, strings.HasPrefix(text, "Generated image: "), text)
	path := strings.TrimPrefix(text, "Generated image: ")
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, ".png", filepath.Ext(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)

	require.Len(t, gen.imageCalls, 1)
	opts := gen.imageCalls[0]
	assert.Equal(t, "turbo", opts.Model)
	assert.Equal(t, 640, opts.Width)
	assert.Equal(t, provider.DefaultImageHeight, opts.Height)
	require.NotNil(t, opts.Seed)
	assert.Equal(t, int64(42), *opts.Seed)
	assert.False(t, opts.Private)
	assert.True(t, opts.NoLogo)
}

func TestGenerateImage_Published(t *testing.T) {
	pub := &fakePublisher{}
	h := NewHandlers(&fakeProvider{}, Options{OutputDir: t.TempDir(), Publisher: pub})

	res, err := h.GenerateImage(context.Background(), callRequest("generate_image", map[string]any{"prompt": "p"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "https://cdn.example.com/images/")
	assert.Len(t, pub.published, 1)
}

func TestGenerateImage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		gen     *fakeProvider
		pub     Publisher
		args    map[string]any
		wantMsg string
	}{
		{"missing prompt", &fakeProvider{}, nil, map[string]any{}, "prompt parameter is required"},
		{"invalid width", &fakeProvider{}, nil, map[string]any{"prompt": "p", "width": float64(0)}, "invalid generation options"},
		{"provider failure", &fakeProvider{err: &provider.APIError{StatusCode: 500, Body: "down"}}, nil, map[string]any{"prompt": "p"}, "500"},
		{"publish failure", &fakeProvider{}, &fakePublisher{err: errors.New("bucket gone")}, map[string]any{"prompt": "p"}, "bucket gone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(tt.gen, Options{OutputDir: t.TempDir(), Publisher: tt.pub})
			res, err := h.GenerateImage(context.Background(), callRequest("generate_image", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.wantMsg)
		})
	}
}

func TestGenerateText(t *testing.T) {
	gen := &fakeProvider{text: "hello there"}
	h := NewHandlers(gen, Options{TextModel: "openai"})

	res, err := h.GenerateText(context.Background(), callRequest("generate_text", map[string]any{
		"prompt":        "say hi",
		"system_prompt": "be brief",
		"temperature":   0.2,
		"max_tokens":    float64(0),
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "hello there", resultText(t, res))

	require.Len(t, gen.textCalls, 1)
	opts := gen.textCalls[0]
	assert.Equal(t, "openai", opts.Model)
	assert.Equal(t, "be brief", opts.SystemPrompt)
	assert.InDelta(t, 0.2, opts.Temperature, 1e-9)
	assert.Equal(t, 0, opts.MaxTokens)
}

func TestGenerateText_Errors(t *testing.T) {
	h := NewHandlers(&fakeProvider{}, Options{})
	res, err := h.GenerateText(context.Background(), callRequest("generate_text", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.GenerateText(context.Background(), callRequest("generate_text", map[string]any{"prompt": "p", "temperature": 3.5}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "invalid generation options")

	h = NewHandlers(&fakeProvider{err: &provider.ParseError{Err: errors.New("missing choices"), Response: "{}"}}, Options{})
	res, err = h.GenerateText(context.Background(), callRequest("generate_text", map[string]any{"prompt": "p"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "failed to generate text")
}

const deckOutline = `{"title":"Oceans","subtitle":"Deep dive","slides":[
  {"heading":"Currents","bullets":["Gulf Stream","Kuroshio","Humboldt"],"image_prompt":"ocean currents map"},
  {"heading":"Life","bullets":["Plankton","Whales"]}]}`

func TestBuildDeck(t *testing.T) {
	gen := &fakeProvider{}
	dir := t.TempDir()
	h := NewHandlers(gen, Options{OutputDir: dir})

	res, err := h.BuildDeck(context.Background(), callRequest("build_deck", map[string]any{"outline": deckOutline}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	text := resultText(t, res)
	assert.True(t, strings.HasPrefix(text, "Built presentation (4 slides): "), text)
	path := strings.TrimPrefix(text, "Built presentation (4 slides): ")
	assert.Equal(t, ".pptx", filepath.Ext(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, []string{"ocean currents map"}, gen.prompts)
}

func TestBuildDeck_WithoutImagesAndPublished(t *testing.T) {
	gen := &fakeProvider{}
	pub := &fakePublisher{}
	h := NewHandlers(gen, Options{OutputDir: t.TempDir(), Publisher: pub})

	res, err := h.BuildDeck(context.Background(), callRequest("build_deck", map[string]any{
		"outline":     deckOutline,
		"with_images": false,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Empty(t, gen.prompts)
	assert.Contains(t, resultText(t, res), "https://cdn.example.com/decks/deck_")
}

func TestBuildDeck_Errors(t *testing.T) {
	h := NewHandlers(&fakeProvider{err: errors.New("quota")}, Options{OutputDir: t.TempDir()})

	res, err := h.BuildDeck(context.Background(), callRequest("build_deck", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.BuildDeck(context.Background(), callRequest("build_deck", map[string]any{"outline": "title: only"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "invalid outline")

	res, err = h.BuildDeck(context.Background(), callRequest("build_deck", map[string]any{"outline": deckOutline}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "quota")
}

func TestRegisterGenAITools(t *testing.T) {
	s := server.NewMCPServer("test", "0.0.1", server.WithToolCapabilities(true))
	require.NoError(t, RegisterGenAITools(s, &fakeProvider{}, Options{OutputDir: t.TempDir()}))
	assert.Error(t, RegisterGenAITools(s, nil, Options{}))

	for _, tool := range []mcp.Tool{GenerateImageTool(), GenerateTextTool(), BuildDeckTool()} {
		want := "prompt"
		if tool.Name == "build_deck" {
			want = "outline"
		}
		assert.Contains(t, tool.InputSchema.Required, want)
	}
}

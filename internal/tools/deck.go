package tools

import (
	"context"
	"fmt"

	"genai-slides/internal/deck"
	"genai-slides/internal/utils"

	"github.com/mark3labs/mcp-go/mcp"
)

// BuildDeckTool build_deck 的定义
func BuildDeckTool() mcp.Tool {
	return mcp.NewTool(
		"build_deck",
		mcp.WithDescription("Build a 16:9 PowerPoint deck from an outline: a title slide, one slide per outline entry "+
			"(heading, bullets, optional generated image) and a closing slide. Returns the .pptx path, or a URL when uploads are enabled."),
		mcp.WithString("outline",
			mcp.Required(),
			mcp.Description(`Outline as JSON or YAML: {"title","subtitle","slides":[{"heading","bullets":[...],"image_prompt"}],"end_title","end_subtitle"}`),
		),
		mcp.WithBoolean("with_images",
			mcp.Description("Generate images for slides that have an image_prompt"),
			mcp.DefaultBool(true),
		),
	)
}

// BuildDeck build_deck 处理函数
func (h *Handlers) BuildDeck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("outline")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("outline parameter is required: %v", err)), nil
	}

	outline, err := deck.ParseOutline([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var gen deck.ImageGenerator
	if req.GetBool("with_images", true) {
		gen = h.gen
	}

	outPath, err := utils.NewOutputPath(h.opts.OutputDir, "deck", ".pptx")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to prepare output path: %v", err)), nil
	}

	imgOpts := h.ImageOptionsFromRequest(req)
	result, err := deck.Compose(ctx, gen, outline, h.opts.OutputDir, outPath, deck.WithImageOptions(imgOpts))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build deck: %v", err)), nil
	}

	location, err := h.publish(ctx, result.Path, "decks")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to upload deck: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Built presentation (%d slides): %s", result.Slides, location)), nil
}

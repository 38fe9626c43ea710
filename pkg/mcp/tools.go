package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/JoaoClaudiano/gittree/pkg/cache"
	"github.com/JoaoClaudiano/gittree/pkg/models"
)

// Tool argument structs.

type buildModelArgs struct {
	models.RawRepository
	Format string `json:"format"`
}

type prefixArgs struct {
	Prefix string `json:"prefix"`
}

type invalidateArgs struct {
	Repository string `json:"repository"`
}

// toolHandler is a function that handles a tool call.
type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

// toolHandlers maps tool names to their handlers.
var toolHandlers = map[string]toolHandler{
	"gittree_build_model":   handleBuildModel,
	"gittree_cache_stats":   handleCacheStats,
	"gittree_cache_entries": handleCacheEntries,
	"gittree_invalidate":    handleInvalidate,
}

var repositorySchema = map[string]any{
	"type":     "object",
	"required": []string{"owner", "name"},
	"properties": map[string]any{
		"owner":  map[string]any{"type": "string"},
		"name":   map[string]any{"type": "string"},
		"branch": map[string]any{"type": "string", "description": "Branch (optional)"},
	},
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name:        "gittree_build_model",
		Description: "Build (or fetch from cache) the repository model: file tree, metrics and module dependency graph.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"repository"},
			"properties": map[string]any{
				"repository": repositorySchema,
				"files": map[string]any{
					"type":        "object",
					"description": "Either {\"entries\": [{path, type, sizeBytes}]} or {\"root\": nested node}",
				},
				"modules": map[string]any{
					"type":        "array",
					"description": "Per-module dependency lists: [{modulePath, dependencies}]",
				},
				"format": map[string]any{
					"type":        "string",
					"enum":        []string{"summary", "json"},
					"description": "Output format (default summary)",
				},
			},
		},
	},
	{
		Name:        "gittree_cache_stats",
		Description: "Show model cache statistics (entries, size, capacity, hits, misses).",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "gittree_cache_entries",
		Description: "List cached models, optionally filtered by key prefix such as owner/name.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"prefix": map[string]any{
					"type":        "string",
					"description": "Cache key prefix (optional)",
				},
			},
		},
	},
	{
		Name:        "gittree_invalidate",
		Description: "Remove cached models for owner/name (all branches) or owner/name@branch.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"repository"},
			"properties": map[string]any{
				"repository": map[string]any{
					"type":        "string",
					"description": "owner/name or owner/name@branch",
				},
			},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}
}

func handleBuildModel(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args buildModelArgs
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return errorResult("Invalid arguments: " + err.Error())
		}
	}
	if err := args.Repository.Validate(); err != nil {
		return errorResult(err.Error())
	}

	res, err := s.svc.Resolve(ctx, args.Repository, args.Files, args.Modules)
	var note string
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrCapacityExceeded) && res.Model != nil:
		note = "Warning: model not cached: " + err.Error() + "\n"
	default:
		return errorResult("Error building model: " + err.Error())
	}

	if args.Format == "json" {
		data, err := json.MarshalIndent(res.Model, "", "  ")
		if err != nil {
			return errorResult("Error encoding model: " + err.Error())
		}
		return textResult(string(data))
	}
	return textResult(note + formatModel(res.Model, res.CacheKey, cacheStatus(res.Hit, res.Bypassed || note != "")))
}

func handleCacheStats(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	store := s.svc.Store()
	if store == nil {
		return textResult("Cache is not configured.")
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return errorResult("Error fetching cache stats: " + err.Error())
	}
	return textResult(formatCacheStats(stats))
}

func handleCacheEntries(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	store := s.svc.Store()
	if store == nil {
		return textResult("Cache is not configured.")
	}
	var args prefixArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	entries, err := store.List(ctx, args.Prefix)
	if err != nil {
		return errorResult("Error listing cache entries: " + err.Error())
	}
	return textResult(formatCacheEntries(entries))
}

func handleInvalidate(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args invalidateArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	if args.Repository == "" {
		return errorResult("repository is required")
	}
	n, err := s.svc.Invalidate(ctx, args.Repository)
	if err != nil {
		return errorResult("Error invalidating cache: " + err.Error())
	}
	return textResult(formatInvalidated(args.Repository, n))
}

func cacheStatus(hit, bypassed bool) string {
	switch {
	case hit:
		return "hit"
	case bypassed:
		return "bypass"
	default:
		return "miss"
	}
}

package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JoaoClaudiano/gittree/pkg/models"
)

// formatModel formats a repository model as a text report.
func formatModel(m *models.RepositoryModel, cacheKey, status string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", m.Repository)
	fmt.Fprintf(&b, "Cache:      %s (%s)\n\n", status, cacheKey)

	s := m.Metrics
	fmt.Fprintf(&b, "Files:       %d\n", s.TotalFiles)
	fmt.Fprintf(&b, "Directories: %d\n", s.TotalDirectories)
	fmt.Fprintf(&b, "Total size:  %d bytes\n", s.TotalSizeBytes)
	fmt.Fprintf(&b, "Max depth:   %d\n", s.MaxDepth)
	if s.LargestFile != nil {
		fmt.Fprintf(&b, "Largest:     %s (%d bytes)\n", s.LargestFile.Path, s.LargestFile.SizeBytes)
	}

	b.WriteString("\n" + formatDistribution(s.LanguageDistribution))
	fmt.Fprintf(&b, "\nGraph: %d modules, %d dependencies\n", len(m.Graph.Nodes), len(m.Graph.Edges))
	for _, e := range m.Graph.Edges {
		fmt.Fprintf(&b, "  %s -> %s\n", e.SourceID, e.TargetID)
	}

	b.WriteString("\nTree:\n")
	writeTree(&b, m.Tree, "  ")
	return b.String()
}

// formatDistribution formats extension counts as a table, most common first.
func formatDistribution(dist map[string]int) string {
	if len(dist) == 0 {
		return "No files.\n"
	}
	exts := make([]string, 0, len(dist))
	for ext := range dist {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		if dist[exts[i]] != dist[exts[j]] {
			return dist[exts[i]] > dist[exts[j]]
		}
		return exts[i] < exts[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %8s\n", "Extension", "Files")
	b.WriteString(strings.Repeat("-", 21) + "\n")
	for _, ext := range exts {
		fmt.Fprintf(&b, "%-12s %8d\n", ext, dist[ext])
	}
	return b.String()
}

func writeTree(b *strings.Builder, n *models.TreeNode, indent string) {
	if n == nil {
		return
	}
	if n.IsDir() {
		fmt.Fprintf(b, "%s%s/\n", indent, n.Name)
	} else if n.Size != nil {
		fmt.Fprintf(b, "%s%s (%d)\n", indent, n.Name, *n.Size)
	} else {
		fmt.Fprintf(b, "%s%s\n", indent, n.Name)
	}
	for _, c := range n.Children {
		writeTree(b, c, indent+"  ")
	}
}

// formatCacheStats formats cache stats as text.
func formatCacheStats(stats models.CacheStats) string {
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	capacity := "unbounded"
	if stats.CapacityBytes > 0 {
		capacity = fmt.Sprintf("%d bytes (%d free)", stats.CapacityBytes, stats.RemainingBytes)
	}
	return fmt.Sprintf("Cache Statistics\n"+
		"  Entries:  %d\n"+
		"  Size:     %d bytes\n"+
		"  Capacity: %s\n"+
		"  Eviction: %s\n"+
		"  Hits:     %d\n"+
		"  Misses:   %d\n"+
		"  Hit Rate: %.1f%%\n",
		stats.Entries, stats.SizeBytes, capacity, stats.Eviction, stats.Hits, stats.Misses, hitRate)
}

// formatCacheEntries formats cache entries as a text table.
func formatCacheEntries(entries []models.CacheEntry) string {
	if len(entries) == 0 {
		return "No cached models found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-60s %10s %-20s\n", "Key", "Size", "Created")
	b.WriteString(strings.Repeat("-", 92) + "\n")
	for _, e := range entries {
		key := e.Key
		if len(key) > 60 {
			key = key[:45] + "..." + key[len(key)-12:]
		}
		fmt.Fprintf(&b, "%-60s %10d %-20s\n", key, e.SizeBytes, e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

func formatInvalidated(repo string, n int) string {
	if n == 1 {
		return fmt.Sprintf("Removed 1 cached model for %s.", repo)
	}
	return fmt.Sprintf("Removed %d cached models for %s.", n, repo)
}

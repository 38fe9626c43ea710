package models

// FileStat names a single file and its size.
type FileStat struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"sizeBytes"`
}

// MetricsSummary aggregates statistics over a built tree.
type MetricsSummary struct {
	TotalFiles           int            `json:"totalFiles"`
	TotalDirectories     int            `json:"totalDirectories"`
	TotalSizeBytes       int64          `json:"totalSizeBytes"`
	MaxDepth             int            `json:"maxDepth"`
	LargestFile          *FileStat      `json:"largestFile,omitempty"`
	LanguageDistribution map[string]int `json:"languageDistribution"`
}

// Clone returns a deep copy of s.
func (s MetricsSummary) Clone() MetricsSummary {
	out := s
	if s.LargestFile != nil {
		lf := *s.LargestFile
		out.LargestFile = &lf
	}
	if s.LanguageDistribution != nil {
		out.LanguageDistribution = make(map[string]int, len(s.LanguageDistribution))
		for k, v := range s.LanguageDistribution {
			out.LanguageDistribution[k] = v
		}
	}
	return out
}

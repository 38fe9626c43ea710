package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JoaoClaudiano/gittree/pkg/cache"
	"github.com/JoaoClaudiano/gittree/pkg/models"
	"github.com/JoaoClaudiano/gittree/pkg/repomodel"
)

func newBuildCmd(configPath *string) *cobra.Command {
	var (
		format  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "build <input>",
		Short: "Build a repository model from a YAML or JSON listing (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "summary" && format != "json" {
				return fmt.Errorf("unknown format %q (use summary or json)", format)
			}

			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			_, svc, closeStore, err := openService(*configPath, noCache)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := svc.Resolve(cmd.Context(), raw.Repository, raw.Files, raw.Modules)
			if err != nil {
				if !errors.Is(err, cache.ErrCapacityExceeded) || res.Model == nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: model not cached: %v\n", err)
				res.Bypassed = true
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Model)
			}
			return printSummary(out, res)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "summary", "output format: summary or json")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "build without reading or writing the cache")
	return cmd
}

func readInput(stdin io.Reader, path string) (models.RawRepository, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.RawRepository{}, fmt.Errorf("read input: %w", err)
	}
	return models.DecodeRawRepository(data)
}

func printSummary(out io.Writer, res repomodel.Result) error {
	m := res.Model
	s := m.Metrics

	status := "miss"
	switch {
	case res.Hit:
		status = "hit"
	case res.Bypassed:
		status = "bypass"
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "REPOSITORY\t%s\n", m.Repository)
	fmt.Fprintf(w, "CACHE\t%s\n", status)
	fmt.Fprintf(w, "FILES\t%d\n", s.TotalFiles)
	fmt.Fprintf(w, "DIRECTORIES\t%d\n", s.TotalDirectories)
	fmt.Fprintf(w, "TOTAL SIZE\t%d\n", s.TotalSizeBytes)
	fmt.Fprintf(w, "MAX DEPTH\t%d\n", s.MaxDepth)
	if s.LargestFile != nil {
		fmt.Fprintf(w, "LARGEST FILE\t%s (%d)\n", s.LargestFile.Path, s.LargestFile.SizeBytes)
	}
	fmt.Fprintf(w, "MODULES\t%d\n", len(m.Graph.Nodes))
	fmt.Fprintf(w, "DEPENDENCIES\t%d\n", len(m.Graph.Edges))
	if err := w.Flush(); err != nil {
		return err
	}

	if len(s.LanguageDistribution) == 0 {
		return nil
	}
	exts := make([]string, 0, len(s.LanguageDistribution))
	for ext := range s.LanguageDistribution {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXTENSION\tFILES")
	for _, ext := range exts {
		fmt.Fprintf(w, "%s\t%d\n", ext, s.LanguageDistribution[ext])
	}
	return w.Flush()
}

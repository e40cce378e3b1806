package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/tourdex/internal/domain/search/request"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
	"github.com/kailas-cloud/tourdex/internal/engine"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	lang     string
	sort     string
	limit    int
	offset   int
	province string
	category string
	lat      float64
	lon      float64
	radiusKm float64
	format   string // "text", "json"
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one search against the configured corpus",
		Long: `Run one search against the configured corpus and print the ranked results.

Examples:
  tourdex search "เชียงใหม่"
  tourdex search "wat arun" --sort popularity --limit 5
  tourdex search "ทะเล" --lat 7.89 --lon 98.30 --radius-km 30 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, root, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&opts.lang, "lang", "", "Language hint: th, en (default: auto)")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "Sort: relevance, popularity, newest, distance")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Results to skip")
	cmd.Flags().StringVar(&opts.province, "province", "", "Filter by province")
	cmd.Flags().StringVar(&opts.category, "category", "", "Filter by category")
	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "Latitude of the search center")
	cmd.Flags().Float64Var(&opts.lon, "lon", 0, "Longitude of the search center")
	cmd.Flags().Float64Var(&opts.radiusKm, "radius-km", 0, "Search radius in kilometers (default 50 with --lat/--lon)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

// params converts flags to search parameters. Geo flags apply only when set.
func (o searchOptions) params(cmd *cobra.Command, query string) request.Params {
	p := request.Params{
		Query:    query,
		Language: o.lang,
		Sort:     o.sort,
		Limit:    &o.limit,
		Offset:   &o.offset,
		Province: o.province,
		Category: o.category,
	}
	if cmd.Flags().Changed("lat") {
		p.Lat = &o.lat
	}
	if cmd.Flags().Changed("lon") {
		p.Lon = &o.lon
	}
	if cmd.Flags().Changed("radius-km") {
		p.RadiusKm = &o.radiusKm
	}
	return p
}

func runSearch(ctx context.Context, cmd *cobra.Command, root *rootOptions, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", opts.format)
	}

	req, err := request.New(opts.params(cmd, query))
	if err != nil {
		return err
	}

	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	backend, err := engine.OpenCorpus(ctx, cfg.Corpus, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	eng, err := engine.Build(cfg, backend.Source, logger)
	if err != nil {
		return err
	}
	defer eng.Release()

	resp, err := eng.Search.Search(ctx, &req)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		return writeSearchJSON(cmd.OutOrStdout(), resp)
	}
	return writeSearchText(cmd.OutOrStdout(), resp)
}

type cliResult struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Province     string   `json:"province,omitempty"`
	Category     string   `json:"category,omitempty"`
	Score        float64  `json:"score"`
	Similarity   float64  `json:"similarity"`
	MatchedField string   `json:"matched_field"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
}

type cliResponse struct {
	Query       string      `json:"query"`
	Normalized  string      `json:"normalized"`
	Expansion   []string    `json:"expansion"`
	TotalCount  int         `json:"total_count"`
	LatencyMs   int64       `json:"latency_ms"`
	Results     []cliResult `json:"results"`
	Suggestions []string    `json:"suggestions,omitempty"`
}

func toCLIResponse(resp result.Response) cliResponse {
	out := cliResponse{
		Query:      resp.Query,
		Normalized: resp.Normalized,
		Expansion:  resp.Expansion,
		TotalCount: resp.TotalCount,
		LatencyMs:  resp.Latency.Milliseconds(),
		Results:    make([]cliResult, 0, len(resp.Results)),
	}
	if out.Expansion == nil {
		out.Expansion = []string{}
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, cliResult{
			ID:           r.Document.ID(),
			Name:         r.Document.Name(),
			Province:     r.Document.Province(),
			Category:     r.Document.Category(),
			Score:        r.Score,
			Similarity:   r.Match.Score,
			MatchedField: r.Match.MatchedField(),
			DistanceKm:   r.DistanceKm,
		})
	}
	for _, s := range resp.Suggestions {
		out.Suggestions = append(out.Suggestions, s.Text)
	}
	return out
}

func writeSearchJSON(w io.Writer, resp result.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toCLIResponse(resp))
}

func writeSearchText(w io.Writer, resp result.Response) error {
	out := toCLIResponse(resp)

	if _, err := fmt.Fprintf(w, "%d result(s) for %q in %dms\n", out.TotalCount, out.Query, out.LatencyMs); err != nil {
		return err
	}
	if len(out.Expansion) > 0 {
		if _, err := fmt.Fprintf(w, "expanded: %s\n", strings.Join(out.Expansion, ", ")); err != nil {
			return err
		}
	}
	if len(out.Results) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "#\tID\tNAME\tPROVINCE\tMATCH\tSCORE\tDISTANCE")
		for i, r := range out.Results {
			dist := "-"
			if r.DistanceKm != nil {
				dist = fmt.Sprintf("%.1f km", *r.DistanceKm)
			}
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.3f\t%s\n",
				i+1, r.ID, r.Name, r.Province, r.MatchedField, r.Score, dist)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(out.Suggestions) > 0 {
		if _, err := fmt.Fprintf(w, "did you mean: %s\n", strings.Join(out.Suggestions, ", ")); err != nil {
			return err
		}
	}
	return nil
}

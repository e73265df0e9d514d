package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"hybridsearch/internal/model"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search properties with a natural language query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var intentCmd = &cobra.Command{
	Use:   "intent",
	Short: "Search with an already extracted intent payload",
	Long:  `Reads a JSON intent object from --file ("-" for stdin) and runs it through validation, retrieval and ranking.`,
	RunE:  runIntent,
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, intentCmd} {
		c.Flags().Int("limit", 0, "number of results to show (0 uses the configured default)")
		c.Flags().Bool("json", false, "print the raw response as JSON")
	}
	intentCmd.Flags().StringP("file", "f", "", "intent payload file, or - for stdin")
	_ = intentCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(searchCmd, intentCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	resp, err := engine.Search.Search(ctx, strings.Join(args, " "), limit)
	if err != nil {
		return fmt.Errorf("search aborted: %w", err)
	}
	return printResponse(cmd, resp)
}

func runIntent(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	payload, err := readPayload(cmd.InOrStdin(), file)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	resp, err := engine.Search.SearchIntent(ctx, payload, limit)
	if err != nil {
		return fmt.Errorf("search aborted: %w", err)
	}
	return printResponse(cmd, resp)
}

func readPayload(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading intent file: %w", err)
	}
	return data, nil
}

func printResponse(cmd *cobra.Command, resp *model.SearchResponse) error {
	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	writeResultsTable(out, resp)
	if resp.Status == model.StatusFailed {
		return fmt.Errorf("search failed")
	}
	return nil
}

func writeResultsTable(out io.Writer, resp *model.SearchResponse) {
	if resp.Status != model.StatusOK {
		status := color.YellowString("%s", resp.Status)
		if resp.Status == model.StatusFailed {
			status = color.RedString("%s", resp.Status)
		}
		fmt.Fprintf(out, "%s: %s\n", status, resp.Message)
		return
	}
	if len(resp.Degraded) > 0 {
		fmt.Fprintln(out, color.YellowString("warning: ranked without %s signal", strings.Join(resp.Degraded, ", ")))
	}

	fmt.Fprintf(out, "%s (%dms):\n\n", color.GreenString("Showing %d of %d results", len(resp.Results), resp.Total), resp.Took)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tSCORE\tPRICE\tZONE\tREASONS")
	for i, r := range resp.Results {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%s\t%s\t%s\n",
			i+1, r.ID, r.Score, formatNumber(r.Price), r.Zone, strings.Join(r.MatchedReasons, "; "))
	}
	w.Flush()
}

func formatNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *v)
}

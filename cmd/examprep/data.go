package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavelanni/examprep/internal/apikey"
	"github.com/pavelanni/examprep/internal/history"
)

func usageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show today's model usage",
		Args:  cobra.NoArgs,
		RunE:  runUsage,
	}
	storageFlags(cmd.Flags())
	cmd.Flags().Bool("json", false, "Print as JSON")
	return cmd
}

func runUsage(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	st, err := openStores(cmd.Context(), v)
	if err != nil {
		return err
	}
	defer st.Close()

	snap := st.usage.Snapshot(cmd.Context())
	out := cmd.OutOrStdout()
	if v.GetBool("json") {
		return writeJSON(out, snap)
	}
	fmt.Fprintf(out, "Day:       %s\n", snap.Usage.DayKey)
	fmt.Fprintf(out, "Requests:  %d / %d\n", snap.Usage.RequestsToday, snap.Limit)
	fmt.Fprintf(out, "Tokens:    %d\n", snap.Usage.TokensToday)
	if snap.OverLimit {
		fmt.Fprintln(out, "Advisory limit reached.")
	}
	return nil
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or export completed tests",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List completed tests, most recent first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	storageFlags(list.Flags())

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one completed test",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
	storageFlags(show.Flags())

	export := &cobra.Command{
		Use:   "export",
		Short: "Export the history with summary statistics as JSON",
		Args:  cobra.NoArgs,
		RunE:  runHistoryExport,
	}
	storageFlags(export.Flags())
	export.Flags().StringP("output", "o", "-", "Output file path (- for stdout)")

	clr := &cobra.Command{
		Use:   "clear",
		Short: "Delete the whole history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClear,
	}
	storageFlags(clr.Flags())
	clr.Flags().Bool("yes", false, "Confirm deletion")

	cmd.AddCommand(list, show, export, clr)
	return cmd
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	st, err := openStores(cmd.Context(), viperForCmd(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	entries := st.history.All(cmd.Context())
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No completed tests.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSUBJECT\tSCORE\tCORRECT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\t%d/%d\n",
			e.ID, e.Date.Local().Format("2006-01-02 15:04"), e.Subject, e.Score, e.CorrectQuestions, e.TotalQuestions)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	stats := history.Summarize(entries)
	fmt.Fprintf(out, "\n%d tests, average %.1f%%, best %s (%.1f%%), weakest %s (%.1f%%)\n",
		stats.Count, stats.Average, stats.Best.Subject, stats.Best.Average, stats.Worst.Subject, stats.Worst.Average)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	st, err := openStores(cmd.Context(), viperForCmd(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	e, err := st.history.ByID(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return writeJSON(cmd.OutOrStdout(), e)
}

func runHistoryExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	st, err := openStores(cmd.Context(), v)
	if err != nil {
		return err
	}
	defer st.Close()

	export := history.Export(st.history.All(cmd.Context()))
	export.ExportedAt = time.Now().UTC()

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return writeJSON(w, export)
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	if !v.GetBool("yes") {
		return errors.New("refusing to delete the history without --yes")
	}
	st, err := openStores(cmd.Context(), v)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.history.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}

func apikeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage the stored model API key",
	}

	set := &cobra.Command{
		Use:   "set [KEY|-]",
		Short: "Store an API key (reads stdin when KEY is - or omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAPIKeySet,
	}
	storageFlags(set.Flags())

	clr := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE:  runAPIKeyClear,
	}
	storageFlags(clr.Flags())

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether an API key is stored",
		Args:  cobra.NoArgs,
		RunE:  runAPIKeyStatus,
	}
	storageFlags(status.Flags())

	cmd.AddCommand(set, clr, status)
	return cmd
}

func runAPIKeySet(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	st, err := openStores(cmd.Context(), viperForCmd(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	var key string
	if len(args) == 1 && args[0] != "-" {
		key = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read key: %w", err)
		}
		key = strings.TrimSpace(line)
	}
	if err := st.apiKeys.Save(cmd.Context(), key); err != nil {
		return fmt.Errorf("save key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", apikey.Mask(strings.TrimSpace(key)))
	return nil
}

func runAPIKeyClear(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	st, err := openStores(cmd.Context(), viperForCmd(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.apiKeys.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "API key removed.")
	return nil
}

func runAPIKeyStatus(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	st, err := openStores(cmd.Context(), viperForCmd(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	key, ok := st.apiKeys.Get(cmd.Context())
	if !ok {
		fmt.Fprintln(out, "No API key stored.")
		return nil
	}
	sealed := "unencrypted"
	if st.apiKeys.Sealed() {
		sealed = "encrypted"
	}
	fmt.Fprintf(out, "%s (%s)\n", apikey.Mask(key), sealed)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

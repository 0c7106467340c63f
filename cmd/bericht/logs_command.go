package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bericht/internal/api"
	"bericht/internal/logging"
	"bericht/internal/logs"
)

// fileReadLines bounds how much of a log file is loaded for offline queries.
const fileReadLines = 10 * logging.DefaultStoreCapacity

type logsOptions struct {
	level     string
	from      string
	to        string
	requestID string
	limit     int
	json      bool
	server    string
	file      string
}

func newLogsCommand(ctx *commandContext) *cobra.Command {
	opts := logsOptions{}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Query buffered log records",
		Long: "Query the log buffer of a running server, or read a JSON log file with --file.\n" +
			"Records are returned newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := opts.query()
			if err != nil {
				return err
			}

			var resp api.LogResponse
			if opts.file != "" {
				resp, err = queryLogFile(opts.file, query)
			} else {
				resp, err = queryServer(cmd.Context(), ctx, opts.server, query)
			}
			if err != nil {
				return err
			}

			if opts.json {
				return writeJSON(cmd, resp)
			}
			return printLogTable(cmd, resp)
		},
	}

	cmd.Flags().StringVar(&opts.level, "level", "", "Only show records with this level")
	cmd.Flags().StringVar(&opts.from, "from", "", "Only show records at or after this ISO-8601 time")
	cmd.Flags().StringVar(&opts.to, "to", "", "Only show records at or before this ISO-8601 time")
	cmd.Flags().StringVar(&opts.requestID, "request-id", "", "Only show records for this request id")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", logging.DefaultQueryLimit, "Maximum number of records")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the raw JSON response")
	cmd.Flags().StringVar(&opts.server, "server", "", "Server address (defaults to server.bind)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Read records from a JSON log file (or .zst archive) instead of a server")
	return cmd
}

func (o logsOptions) query() (logging.Query, error) {
	if o.limit < 0 {
		return logging.Query{}, fmt.Errorf("--limit must be zero or greater")
	}
	q := logging.Query{
		Level:     strings.TrimSpace(o.level),
		RequestID: strings.TrimSpace(o.requestID),
		Limit:     o.limit,
	}
	var err error
	if q.From, err = parseBound("--from", o.from); err != nil {
		return logging.Query{}, err
	}
	if q.To, err = parseBound("--to", o.to); err != nil {
		return logging.Query{}, err
	}
	return q, nil
}

func parseBound(flag, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	ts, ok := logging.ParseTimestamp(value)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: invalid timestamp %q", flag, value)
	}
	return ts, nil
}

func queryServer(cmdCtx context.Context, ctx *commandContext, server string, q logging.Query) (api.LogResponse, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return api.LogResponse{}, err
	}
	if strings.TrimSpace(server) == "" {
		server = cfg.Server.Bind
	}
	client, err := logs.NewClient(server, cfg.Server.APIToken)
	if err != nil {
		return api.LogResponse{}, err
	}
	if client == nil {
		return api.LogResponse{}, errors.New("no server address configured; set server.bind or pass --server")
	}
	resp, err := client.Fetch(cmdCtx, q)
	if logs.IsAPIUnavailable(err) {
		return api.LogResponse{}, fmt.Errorf("bericht server not reachable at %s (is it running?)", server)
	}
	return resp, err
}

func queryLogFile(path string, q logging.Query) (api.LogResponse, error) {
	records, err := logs.ReadFile(path, fileReadLines)
	if err != nil {
		return api.LogResponse{}, err
	}
	store := logging.NewStore(len(records))
	for _, rec := range records {
		store.Append(rec)
	}
	return api.NewLogResponse(q, store.Query(q)), nil
}

func printLogTable(cmd *cobra.Command, resp api.LogResponse) error {
	out := cmd.OutOrStdout()
	if resp.Count == 0 {
		fmt.Fprintln(out, "No log records matched")
		return nil
	}
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(resp.Logs))
	for _, entry := range resp.Logs {
		rows = append(rows, []string{
			entry.Timestamp,
			colorizeLevel(entry.Level, colorize),
			valueOrDash(entry.RequestID),
			entry.Message,
			formatExtra(entry.Extra),
		})
	}
	headers := []string{"Timestamp", "Level", "Request", "Message", "Fields"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
	fmt.Fprintln(out, renderTable(headers, rows, aligns, 4))
	fmt.Fprintf(out, "%d record(s)\n", resp.Count)
	return nil
}

func valueOrDash(value *string) string {
	if value == nil || *value == "" {
		return "-"
	}
	return *value
}

func formatExtra(extra map[string]any) string {
	if len(extra) == 0 {
		return ""
	}
	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+formatValue(extra[key]))
	}
	return strings.Join(parts, " ")
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

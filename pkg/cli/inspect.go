package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mcptap/mcptap/pkg/config"
	"github.com/mcptap/mcptap/pkg/logging"
	"github.com/mcptap/mcptap/pkg/store"
)

var inspectFlagVals struct {
	sessionDir string
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [session]",
	Short: "Summarize the calls in a saved session",
	Long: `Print a summary of a saved session: one line per captured call with
method, tool, server, streaming flag, event count and duration. With no
argument the most recent session is inspected; with an argument sessions
are looked up by ID or file path.

Without any saved sessions, 'inspect' lists nothing and exits non-zero.`,
	Example: `  # Inspect the most recent session
  mcptap inspect

  # Inspect a session by ID or exported file
  mcptap inspect 3f2a...
  mcptap inspect golden.json

  # List all saved sessions
  mcptap inspect --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		all, _ := cmd.Flags().GetBool("all")
		if all {
			return runListSessions(inspectFlagVals.sessionDir)
		}
		return runInspect(inspectFlagVals.sessionDir, ref)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectFlagVals.sessionDir, "session-dir", config.DefaultSessionDir, "Directory session artifacts are read from")
	inspectCmd.Flags().Bool("all", false, "List all saved sessions instead of one session's calls")
}

func runInspect(sessionDir, ref string) error {
	sessions, err := store.NewFileStore(sessionDir, logging.Nop())
	if err != nil {
		return err
	}

	export, err := loadSessionRef(sessions, ref)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s (%s mode)\n", export.ID, export.Mode)
	fmt.Printf("Started: %s\n", export.StartTime.Format("2006-01-02 15:04:05"))
	if export.EndTime != nil {
		fmt.Printf("Ended:   %s\n", export.EndTime.Format("2006-01-02 15:04:05"))
	}
	if len(export.Servers) > 0 {
		fmt.Printf("Servers: %v\n", export.Servers)
	}
	stats := export.Stats
	fmt.Printf("Calls:   %d total, %d streamed, %d plain, %d errored\n",
		stats.TotalCalls, stats.SSECalls, stats.PlainCalls, stats.ErrorCalls)
	if stats.CacheHits > 0 || stats.CacheMisses > 0 {
		fmt.Printf("Replay:  %d hits, %d misses\n", stats.CacheHits, stats.CacheMisses)
	}

	if len(export.Calls) == 0 {
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMETHOD\tTOOL\tSERVER\tSSE\tEVENTS\tDURATION")
	for _, call := range export.Calls {
		sseFlag := ""
		if call.WasSSE {
			sseFlag = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%dms\n",
			call.ID, call.Method, call.ToolName, call.Server,
			sseFlag, len(call.Events), call.DurationMs)
	}
	return w.Flush()
}

func runListSessions(sessionDir string) error {
	sessions, err := store.NewFileStore(sessionDir, logging.Nop())
	if err != nil {
		return err
	}

	summaries, err := sessions.List()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		return fmt.Errorf("no saved sessions in %s", sessionDir)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tSTARTED\tCALLS\tSERVERS")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\n",
			s.ID, s.Mode, s.StartTime.Format("2006-01-02 15:04:05"), s.CallCount, s.Servers)
	}
	return w.Flush()
}

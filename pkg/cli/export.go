package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcptap/mcptap/pkg/capture"
	"github.com/mcptap/mcptap/pkg/config"
	"github.com/mcptap/mcptap/pkg/logging"
	"github.com/mcptap/mcptap/pkg/store"
)

var exportFlagVals struct {
	sessionDir string
	sessionRef string
}

var exportCmd = &cobra.Command{
	Use:   "export [output-file]",
	Short: "Write a recorded session artifact to a JSON file",
	Long: `Export a saved session as a standalone JSON artifact, suitable for
checking into a repository or feeding to another mcptap instance with
'serve --mode replay --session <file>'.`,
	Example: `  # Export the most recent session
  mcptap export session.json

  # Export a specific session by ID
  mcptap export --session 3f2a... golden.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := "mcptap-session.json"
		if len(args) == 1 {
			out = args[0]
		}
		return runExport(exportFlagVals.sessionDir, exportFlagVals.sessionRef, out)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFlagVals.sessionDir, "session-dir", config.DefaultSessionDir, "Directory session artifacts are read from")
	exportCmd.Flags().StringVar(&exportFlagVals.sessionRef, "session", "", "Session to export, by ID or file path (default: most recent)")
}

func runExport(sessionDir, sessionRef, out string) error {
	sessions, err := store.NewFileStore(sessionDir, logging.Nop())
	if err != nil {
		return err
	}

	export, err := loadSessionRef(sessions, sessionRef)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(out, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Printf("exported session %s (%d calls) to %s\n", export.ID, len(export.Calls), out)
	return nil
}

// loadSessionRef loads by reference, or the latest session when empty.
func loadSessionRef(sessions store.Store, ref string) (*capture.SessionExport, error) {
	if ref != "" {
		return sessions.Load(ref)
	}
	return sessions.Latest()
}

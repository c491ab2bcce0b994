package main

import (
	"bufio"

	"github.com/spf13/cobra"
)

var clearAllCommand = &cobra.Command{
	Use:   "clear-all",
	Short: "Delete ALL saved resumes and analyses",
	Long:  "Deletes every saved resume, analysis and uploaded file on the service. Asks for confirmation unless --yes is given.",
	RunE:  runClearAllCmd,
}

var clearAllYes bool

func init() {
	clearAllCommand.Flags().BoolVarP(&clearAllYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(clearAllCommand)
}

func runClearAllCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	confirmer := &promptConfirmer{
		in:        bufio.NewReader(cmd.InOrStdin()),
		out:       cmd.OutOrStdout(),
		assumeYes: clearAllYes,
	}
	s := a.newSession(nil)
	done, err := s.Engine().ClearEverything(cmd.Context(), confirmer)
	if err != nil {
		a.printer.PrintGateway(s.Gateway().State())
		return err
	}
	if !done {
		a.printer.PrintHint("Cancelled.")
		return nil
	}
	snap := s.Snapshot()
	a.printer.PrintSuccess("All saved data cleared.")
	a.printer.PrintSaved(snap.Records, snap.Criteria, snap.OpenID)
	return nil
}

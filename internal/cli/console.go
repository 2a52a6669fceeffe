/*
PURPOSE:
  Defines the 'console' subcommand.
  A line-oriented operator session: adjust inputs, run, compare, export.

REQUIREMENTS:
  User-specified:
  - One operator, one session; nothing is kept after quit except written files.
  - Compare the latest run against the previous one.

  Implementation-discovered:
  - A failed command prints the error and keeps the session alive.
  - Runs block the prompt; the controller still rejects overlapping starts.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Session

ERROR HANDLING:
  - Command errors are printed, not returned. Only input read errors end the session.

USAGE:
  pfr-console console
  > set T_in 320
  > run
  > compare
*/

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daryltucker/pfr-console/internal/engine"
)

const consoleHelp = `Commands:
  show                   current inputs and the latest result
  set <field> <value>    change one input (T_in, Flow_Velocity, T_jacket)
  preset <name>          load a preset
  presets                list presets
  run                    run the simulation
  compare                latest run against the previous one
  export                 write the CSV export
  plot                   write PNG profile plots
  html                   write the HTML chart report
  history [n]            last n runs from the run log (default 10)
  quit                   end the session`

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive operator session",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		return runConsole(cmd.Context(), s, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(ctx context.Context, s *engine.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "PFR operator console. Type 'help' for commands.")
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := consoleCommand(ctx, s, out, fields[0], fields[1:]); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func consoleCommand(ctx context.Context, s *engine.Session, out io.Writer, name string, args []string) error {
	switch name {
	case "help":
		fmt.Fprintln(out, consoleHelp)

	case "show":
		printParams(out, s.Store.Get())
		snap := s.Controller.Snapshot()
		fmt.Fprintf(out, "state=%s runs=%d\n", snap.LastOutcome, snap.Seq)
		if snap.LastError != "" {
			fmt.Fprintln(out, snap.LastError)
		}
		if kpi, ok := s.KPIs(); ok {
			printKPIs(out, kpi)
		}

	case "set":
		if len(args) != 2 {
			return fmt.Errorf("usage: set <field> <value>")
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("bad value %q: %w", args[1], err)
		}
		if err := s.Set(args[0], v); err != nil {
			return err
		}
		printParams(out, s.Store.Get())

	case "preset":
		if len(args) == 0 {
			return fmt.Errorf("usage: preset <name>")
		}
		p, err := s.ApplyPreset(strings.Join(args, " "))
		if err != nil {
			return err
		}
		printParams(out, p)

	case "presets":
		printPresets(out, s.Catalog.List())

	case "run":
		if _, err := s.Run(ctx); err != nil {
			return err
		}
		kpi, _ := s.KPIs()
		printKPIs(out, kpi)

	case "compare":
		recs := s.Records()
		if len(recs) == 0 {
			return fmt.Errorf("no result yet")
		}
		printRecords(out, recs)

	case "export":
		path, err := s.Export()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %s\n", path)

	case "plot":
		paths, err := s.Plot()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, strings.Join(paths, "\n"))

	case "html":
		path, err := s.SaveReport()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Report %s\n", path)

	case "history":
		n := 10
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("bad count %q: %w", args[0], err)
			}
			n = v
		}
		recs, err := s.History(n)
		if err != nil {
			return err
		}
		printHistory(out, recs)

	default:
		return fmt.Errorf("unknown command %q (try 'help')", name)
	}
	return nil
}

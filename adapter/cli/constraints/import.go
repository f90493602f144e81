package constraints

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/felixgeelhaar/stride/adapter/cli"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Replace the constraints from a YAML file",
	Long: `Read constraints from YAML ("-" reads stdin) and save them.

Example file:

  timezone: Europe/Berlin
  wake_time: "06:30"
  sleep_time: "22:30"
  commute_minutes: 25
  work:
    - {day: monday, start: "09:00", end: "17:00"}
    - {day: tuesday, start: "09:00", end: "17:00"}
  commitments:
    - {day: thursday, start: "18:00", end: "19:30", name: Choir}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		var in io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open constraints: %w", err)
			}
			defer f.Close()
			in = f
		}
		parsed, err := Parse(in)
		if err != nil {
			return err
		}
		if importDryRun {
			parsed.UserID = app.CurrentUserID
			if err := parsed.Validate(); err != nil {
				return err
			}
			return printConstraints(cmd.OutOrStdout(), &parsed)
		}

		saved, err := app.SaveConstraintsHandler.Handle(cmd.Context(), commands.SaveConstraintsCommand{
			UserID:      app.CurrentUserID,
			Constraints: parsed,
		})
		if err != nil {
			return fmt.Errorf("failed to save constraints: %w", err)
		}
		return printConstraints(cmd.OutOrStdout(), saved)
	},
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate and print without saving")
}

// Parse decodes a constraints document. Unknown keys are rejected so a
// typo does not silently drop a work day.
func Parse(r io.Reader) (domain.UserConstraints, error) {
	var c domain.UserConstraints
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return c, errors.New("constraints file is empty")
		}
		return c, fmt.Errorf("invalid constraints file: %w", err)
	}
	return c, nil
}

package cli

import (
	"fmt"
	"scheduleBoard/internal/session"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newReleasesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "releases",
		Short: "Даты релиза сценариев",
	}

	cmd.AddCommand(newReleasesListCmd(app))
	cmd.AddCommand(newReleasesSetCmd(app))
	return cmd
}

func newReleasesListCmd(app *App) *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Даты релиза видимых каналов",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			s.SetChannelFilter(channel)

			releases := s.VisibleReleaseDates()
			if app.JSON {
				return writeJSON(cmd, releases)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CHANNEL\tSCRIPT\tRELEASE\tUPDATED BY")
			for _, r := range releases {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Channel, r.ScriptNo, r.ReleaseDate, r.UpdatedBy)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&channel, "channel", session.ChannelAll, "канал или ALL")
	return cmd
}

func newReleasesSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <channel> <script_no> <date>",
		Short: "Задать или перезаписать дату релиза",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}

			saved, err := s.UpsertReleaseDate(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(cmd, saved)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s -> %s\n", saved.Channel, saved.ScriptNo, saved.ReleaseDate)
			return nil
		},
	}
}

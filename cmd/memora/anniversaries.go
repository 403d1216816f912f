package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/memora/internal/domain/entities"
)

type anniversaryFlags struct {
	date string
	days []int
}

func (f anniversaryFlags) today() (time.Time, error) {
	if f.date == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(entities.DateLayout, f.date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (want YYYY-MM-DD)", f.date)
	}
	return t, nil
}

func (f *anniversaryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "Pretend today is this date (YYYY-MM-DD)")
	cmd.Flags().IntSliceVar(&f.days, "days", nil, "Lead times in days (default 1,7)")
}

func newAnniversariesCmd() *cobra.Command {
	var flags anniversaryFlags

	cmd := &cobra.Command{
		Use:   "anniversaries",
		Short: "List upcoming birthdays and death anniversaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			today, err := flags.today()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				reminders, err := d.Anniversaries.Upcoming(cmd.Context(), today, flags.days)
				if err != nil {
					return fmt.Errorf("finding anniversaries: %w", err)
				}
				if len(reminders) == 0 {
					fmt.Println("No upcoming anniversaries.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tIN\tMEMORIAL\tMESSAGE")
				for _, r := range reminders {
					fmt.Fprintf(w, "%s\t%dd\t%s\t%s\n",
						r.Date.Format(entities.DateLayout), r.DaysAhead, r.Memorial.ID, r.Message())
				}
				return w.Flush()
			})
		},
	}
	flags.register(cmd)
	cmd.AddCommand(newAnniversariesNotifyCmd())
	return cmd
}

func newAnniversariesNotifyCmd() *cobra.Command {
	var flags anniversaryFlags

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send reminders to memorial creators",
		Long:  "Notifies each creator of upcoming anniversaries. Meant to run once a day from cron.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			today, err := flags.today()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				sent, err := d.Anniversaries.NotifyUpcoming(cmd.Context(), today, flags.days)
				if err != nil {
					return fmt.Errorf("sending reminders: %w", err)
				}
				fmt.Printf("Sent %d reminder(s)\n", sent)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

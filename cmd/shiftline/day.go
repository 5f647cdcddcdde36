package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/shiftline/internal/model"
	"github.com/dukerupert/shiftline/internal/recurrence"
	"github.com/dukerupert/shiftline/internal/store"
	"github.com/dukerupert/shiftline/internal/view"
)

func newResolveCmd(a *app) *cobra.Command {
	var personID, date string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the shift a person works on a date.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := a.parseDay(date)
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			person, err := store.NewPersonStore(db).GetByID(personID)
			if err != nil {
				return err
			}
			if person == nil {
				return fmt.Errorf("person %q not found", personID)
			}
			shifts, err := store.NewShiftStore(db).ListByPerson(personID)
			if err != nil {
				return err
			}

			v := view.PersonDay(inZone(shifts, a.loc), day, a.cfg.Mapper())
			return printDay(cmd.OutOrStdout(), person.Name, day, v, asJSON)
		},
	}
	cmd.Flags().StringVar(&personID, "person", "", "person id")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the day view as JSON")
	_ = cmd.MarkFlagRequired("person")
	return cmd
}

func newTagDayCmd(a *app) *cobra.Command {
	var tagID, date string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tagday",
		Short: "Print everything scheduled against a tag on a date.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := a.parseDay(date)
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			tag, err := store.NewTagStore(db).GetByID(tagID)
			if err != nil {
				return err
			}
			if tag == nil {
				return fmt.Errorf("tag %q not found", tagID)
			}
			ss := store.NewShiftStore(db)
			tagShifts, err := ss.ListByTag(tagID)
			if err != nil {
				return err
			}
			personShifts, err := ss.ListAllPersonShifts()
			if err != nil {
				return err
			}

			v := view.TagDay(inZone(personShifts, a.loc), inZone(tagShifts, a.loc), day, a.cfg.Mapper())
			return printDay(cmd.OutOrStdout(), tag.Name, day, v, asJSON)
		},
	}
	cmd.Flags().StringVar(&tagID, "tag", "", "tag id")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the day view as JSON")
	_ = cmd.MarkFlagRequired("tag")
	return cmd
}

func inZone(shifts []model.Shift, loc *time.Location) []model.Shift {
	out := make([]model.Shift, len(shifts))
	for i, s := range shifts {
		out[i] = s.In(loc)
	}
	return out
}

func printDay(w io.Writer, owner string, day time.Time, v *view.DayView, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	date := day.Format("2006-01-02")
	if v == nil {
		_, err := fmt.Fprintf(w, "%s: nothing scheduled on %s\n", owner, date)
		return err
	}

	fmt.Fprintf(w, "%s %s %s-%s", owner, date, v.Start.Format("15:04"), v.End.Format("15:04"))
	if v.Shift.IsRecurring {
		fmt.Fprintf(w, " (%s)", describe(v.Shift.RecurrenceRule))
	}
	fmt.Fprintln(w)
	if v.Empty {
		_, err := fmt.Fprintln(w, "  no segments")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, seg := range v.Segments {
		start := v.Start.Add(time.Duration(seg.Start) * time.Minute)
		end := v.Start.Add(time.Duration(seg.End) * time.Minute)
		fmt.Fprintf(tw, "  %s-%s\t%s\t%s\t%s\n", start.Format("15:04"), end.Format("15:04"), seg.Label, seg.Location, seg.User)
	}
	return tw.Flush()
}

func describe(rule string) string {
	r, err := recurrence.Parse(rule)
	if err != nil {
		return rule
	}
	return r.Describe()
}

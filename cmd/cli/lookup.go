package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sessionmeta/internal/meta"
)

type lookupResult struct {
	Found bool `json:"found"`
	Row   any  `json:"row"`
}

func newLookupCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Exact lookup by composite key",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "workshop COHORT COHORT_YEAR WORKSHOP SESSION",
			Short: "Look up one workshop session",
			Args:  cobra.ExactArgs(4),
			RunE: func(cmd *cobra.Command, args []string) error {
				nums, err := atoiAll(args[1:])
				if err != nil {
					return err
				}
				ix, err := opts.loadIndex(cmd)
				if err != nil {
					return err
				}
				rec, ok := ix.LookupWorkshop(args[0], nums[0], nums[1], nums[2])
				return printJSON(cmd.OutOrStdout(), lookupResult{Found: ok, Row: rec})
			},
		},
		&cobra.Command{
			Use:   "mmm YEAR MONTH",
			Short: "Look up one midmonth mentoring session",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				nums, err := atoiAll(args[:1])
				if err != nil {
					return err
				}
				ix, err := opts.loadIndex(cmd)
				if err != nil {
					return err
				}
				rec, ok := ix.LookupMMM(nums[0], args[1])
				return printJSON(cmd.OutOrStdout(), lookupResult{Found: ok, Row: rec})
			},
		},
		&cobra.Command{
			Use:   "mwm YEAR MONTH SESSION",
			Short: "Look up one midweek mentoring session",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				nums, err := atoiAll([]string{args[0], args[2]})
				if err != nil {
					return err
				}
				ix, err := opts.loadIndex(cmd)
				if err != nil {
					return err
				}
				rec, ok := ix.LookupMWM(nums[0], args[1], nums[1])
				return printJSON(cmd.OutOrStdout(), lookupResult{Found: ok, Row: rec})
			},
		},
		&cobra.Command{
			Use:   "podcast YEAR EPISODE",
			Short: "Look up one podcast episode",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				nums, err := atoiAll(args)
				if err != nil {
					return err
				}
				ix, err := opts.loadIndex(cmd)
				if err != nil {
					return err
				}
				rec, ok := ix.LookupPodcast(nums[0], nums[1])
				return printJSON(cmd.OutOrStdout(), lookupResult{Found: ok, Row: rec})
			},
		},
	)
	return cmd
}

func newPartialCmd(opts *globalOptions) *cobra.Command {
	var q meta.WorkshopQuery
	cmd := &cobra.Command{
		Use:   "partial",
		Short: "List workshop sessions matching every given criterion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ix, err := opts.loadIndex(cmd)
			if err != nil {
				return err
			}
			rows := ix.LookupWorkshopPartial(q)
			return printJSON(cmd.OutOrStdout(), map[string]any{"found": len(rows) > 0, "rows": rows})
		},
	}
	cmd.Flags().StringVar(&q.Cohort, "cohort", "", "cohort token, e.g. PEP")
	cmd.Flags().IntVar(&q.CohortYear, "cohort-year", 0, "cohort year")
	cmd.Flags().IntVar(&q.WorkshopNumber, "workshop", 0, "workshop number")
	cmd.Flags().IntVar(&q.SessionNumber, "session", 0, "session number")
	cmd.Flags().StringVar(&q.Title, "title", "", "case-insensitive title substring")
	cmd.Flags().StringVar(&q.Speaker, "speaker", "", "speaker name, resolved fuzzily")
	return cmd
}

func newSpeakerCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "speaker NAME",
		Short: "Resolve a free-text name to a known speaker or host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := opts.loadIndex(cmd)
			if err != nil {
				return err
			}
			name, ok := ix.MatchSpeaker(args[0])
			return printJSON(cmd.OutOrStdout(), map[string]any{"found": ok, "speaker": name})
		},
	}
}

func atoiAll(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", a)
		}
		out[i] = n
	}
	return out, nil
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/rxtable/internal/convert"
)

func processCmd(opts *options) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "process <pdf>",
		Short: "Parse a prescription PDF, render the table and publish it for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			a, err := opts.setup(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			pub, err := a.publisher(cmd.Context())
			if err != nil {
				return err
			}
			res, err := convert.Run(cmd.Context(), args[0], userID, pub, a.conv)
			if err != nil {
				return err
			}
			b, _ := json.MarshalIndent(res, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id owning the prescription")
	return cmd
}

func parseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <pdf>",
		Short: "Print the medication records found in a prescription PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := a.conv.Extractor.Text(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			records := convert.ParsePrescription(text)
			if records == nil {
				records = []convert.Record{}
			}
			b, _ := json.MarshalIndent(records, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

func renderCmd(opts *options) *cobra.Command {
	var out string
	var userID string

	cmd := &cobra.Command{
		Use:   "render <pdf>",
		Short: "Render the medication table to a local PNG without publishing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			plan, err := convert.Build(cmd.Context(), args[0], userID, a.conv)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, plan.PNG, 0o644); err != nil {
				return err
			}
			b := plan.Image.Bounds()
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d, %d records)\n", out, b.Dx(), b.Dy(), len(plan.Records))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "prescription_table.png", "output PNG path")
	cmd.Flags().StringVarP(&userID, "user", "u", "local", "user id used for the storage key")
	return cmd
}

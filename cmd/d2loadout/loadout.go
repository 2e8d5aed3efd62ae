package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/martinricard/d2loadout-widget/internal/render"
)

var (
	jsonOutput bool
	noColor    bool
	withLink   bool
)

var loadoutCmd = &cobra.Command{
	Use:   "loadout <Name#1234 | membershipType membershipId>",
	Short: "Print the equipped loadout of a player's most recent character",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runLoadout,
}

var linkCmd = &cobra.Command{
	Use:   "link <Name#1234 | membershipType membershipId>",
	Short: "Print the DIM loadout link of a player's most recent character",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runLink,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether Bungie's Destiny 2 APIs are down for maintenance",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	loadoutCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the JSON response instead of text")
	loadoutCmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")
	loadoutCmd.Flags().BoolVar(&withLink, "dimlink", false, "include the DIM link")
}

func runLoadout(cmd *cobra.Command, args []string) error {
	req, err := requestFromArgs(args)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	req.WithLink = withLink
	res, err := a.service.Loadout(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	text := render.Result(res)
	if noColor {
		text = render.StripANSI(text)
	}
	_, err = fmt.Fprint(out, text)
	return err
}

func runLink(cmd *cobra.Command, args []string) error {
	req, err := requestFromArgs(args)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	req.WithLink = true
	res, err := a.service.Loadout(cmd.Context(), req)
	if err != nil {
		return err
	}
	if res.DIMLink == "" {
		return errors.New("dim link could not be built; see logs")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), res.DIMLink)
	return err
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	st, err := a.service.Status(cmd.Context())
	if err != nil {
		return err
	}
	if !st.Maintenance {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), render.Colorize(render.Green, "Destiny 2 services operational"))
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), render.Colorf(render.Red, "Maintenance: %s", st.Message))
	return err
}

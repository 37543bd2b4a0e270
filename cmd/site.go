package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/csams/podcast-admin/internal/api"
	"github.com/csams/podcast-admin/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

const siteTitleWidth = 60

var (
	participation models.Participation

	siteCmd = &cobra.Command{
		Use:   "site",
		Short: "Read the site's public sections and send participation requests",
	}

	siteVideosCmd = &cobra.Command{
		Use:   "videos",
		Short: "List the channel's latest videos",
		Args:  cobra.NoArgs,
		RunE: withClient(func(cmd *cobra.Command, client *api.Client) error {
			videos, err := client.Videos(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(videos) == 0 {
				fmt.Fprintln(out, "no videos")
			}
			for _, v := range videos {
				fmt.Fprintf(out, "%s  %s  %s\n", column(v.Title), published(v.Published), v.Link)
			}
			return nil
		}),
	}

	siteRecommendationsCmd = &cobra.Command{
		Use:   "recommendations",
		Short: "List guest testimonials",
		Args:  cobra.NoArgs,
		RunE: withClient(func(cmd *cobra.Command, client *api.Client) error {
			recs, err := client.Recommendations(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "no recommendations")
			}
			for _, r := range recs {
				fmt.Fprintf(out, "%s: %q", r.GuestName, r.Text)
				if r.EpisodeTitle != "" {
					fmt.Fprintf(out, " (%s)", r.EpisodeTitle)
				}
				fmt.Fprintln(out)
			}
			return nil
		}),
	}

	siteAwardsCmd = &cobra.Command{
		Use:   "awards",
		Short: "List the show's awards",
		Args:  cobra.NoArgs,
		RunE: withClient(func(cmd *cobra.Command, client *api.Client) error {
			awards, err := client.Awards(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(awards) == 0 {
				fmt.Fprintln(out, "no awards")
			}
			for _, a := range awards {
				printAward(out, a)
			}
			return nil
		}),
	}

	siteParticipateCmd = &cobra.Command{
		Use:   "participate",
		Short: "Ask to take part in an episode",
		Args:  cobra.NoArgs,
		RunE: withClient(func(cmd *cobra.Command, client *api.Client) error {
			if err := client.Participate(cmd.Context(), participation); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "participation request sent for %s\n", participation.Email)
			return nil
		}),
	}
)

func init() {
	f := siteParticipateCmd.Flags()
	f.StringVar(&participation.Name, "name", "", "your name")
	f.StringVar(&participation.Email, "email", "", "contact email")
	f.StringVar(&participation.Phone, "phone", "", "contact phone")
	f.StringVarP(&participation.Message, "message", "m", "", "what you would like to talk about")

	siteCmd.AddCommand(siteVideosCmd, siteRecommendationsCmd, siteAwardsCmd, siteParticipateCmd)
}

func withClient(run func(cmd *cobra.Command, client *api.Client) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		return run(cmd, client)
	}
}

// column pads or truncates s to a fixed display width.
func column(s string) string {
	return runewidth.FillRight(runewidth.Truncate(s, siteTitleWidth, "…"), siteTitleWidth)
}

func published(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return humanize.Time(t)
}

func printAward(out io.Writer, a models.Award) {
	fmt.Fprintln(out, a.Title)
	if a.Description != "" {
		fmt.Fprintf(out, "  %s\n", a.Description)
	}
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/quickpad-go/internal/binder"
	"github.com/user/quickpad-go/internal/model"
)

// addHeadSize is how many videos add prints after saving
const addHeadSize = 5

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add REFERENCE CAPTION...",
		Short: "Save a video reference with a caption",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reference := args[0]
			caption := strings.Join(args[1:], " ")
			if err := binder.ValidateInput(reference, caption); err != nil {
				return err
			}

			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			done := make(chan error, 1)
			a.binder.AddVideo(reference, caption, func(err error) { done <- err })
			if err := <-done; err != nil {
				return fmt.Errorf("could not save the video: %w", err)
			}

			videos, err := a.store.ListVideos(cmd.Context())
			if err != nil {
				return err
			}
			return printVideos(os.Stdout, head(videos, addHeadSize))
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every saved video, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			videos, err := a.store.ListVideos(cmd.Context())
			if err != nil {
				return err
			}
			return printVideos(os.Stdout, videos)
		},
	}
}

func head(videos []model.Video, n int) []model.Video {
	if len(videos) > n {
		return videos[:n]
	}
	return videos
}

// printVideos writes one aligned row per video
func printVideos(w io.Writer, videos []model.Video) error {
	if len(videos) == 0 {
		_, err := fmt.Fprintln(w, "No videos yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tCAPTION\tREFERENCE")
	for _, v := range videos {
		created := time.UnixMilli(v.CreatedAt).UTC().Format(time.DateTime)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", v.ID, created, v.Caption, v.URI)
	}
	return tw.Flush()
}

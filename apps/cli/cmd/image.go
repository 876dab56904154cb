package cmd

import (
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/teapot/packages/delivery"
	"github.com/abdul-hamid-achik/teapot/packages/teapot"
)

var imageSaveFlag string

var imageCmd = &cobra.Command{
	Use:   "image <path>",
	Short: "Download and decode an image",
	Long: `Download an image with GET and report its format and size.

Examples:
  teapot image /avatars/1.png --base-url https://cdn.example.com
  teapot image /avatars/1.jpg --base-url https://cdn.example.com --save avatar.png`,
	Args: cobra.ExactArgs(1),
	RunE: imageCommand,
}

func init() {
	imageCmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, "Request header 'Key: Value' (repeatable)")
	imageCmd.Flags().StringVar(&imageSaveFlag, "save", "", "Write the decoded image to this file as PNG")
}

func imageCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	client, _, err := buildClient(cfg)
	if err != nil {
		return err
	}
	headers, err := requestHeaders(cfg.Headers)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	results := make(chan teapot.ImageResult, 1)
	h := client.DownloadImage(args[0], func(r teapot.ImageResult) { results <- r },
		teapot.WithHeaders(headers),
		teapot.WithContext(ctx),
		teapot.WithDeliveryContext(delivery.Immediate))
	if _, err := h.Await(ctx); err != nil {
		return exitWith(ExitRequestFailure, fmt.Errorf("request cancelled: %w", err))
	}

	switch r := (<-results).(type) {
	case *teapot.ImageSuccess:
		b := r.Image.Bounds()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %dx%d (status %d)\n", r.Format, b.Dx(), b.Dy(), r.StatusCode)
		if imageSaveFlag == "" {
			return nil
		}
		f, err := os.Create(imageSaveFlag)
		if err != nil {
			return exitWith(ExitRequestFailure, fmt.Errorf("cannot create %s: %w", imageSaveFlag, err))
		}
		defer f.Close()
		if err := png.Encode(f, r.Image); err != nil {
			return exitWith(ExitRequestFailure, fmt.Errorf("cannot encode image: %w", err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", imageSaveFlag)
		return nil
	case *teapot.ImageFailure:
		return exitWith(exitCodeFor(r.Error), r.Error)
	}
	return nil
}

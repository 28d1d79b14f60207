package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tryon-studio/internal/domain/valueobjects"
)

func newEditCmd() *cobra.Command {
	var (
		imagePath    string
		instructions []string
		out          string
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Apply free-text edits to an existing image and save the result as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd)
			if err != nil {
				return err
			}
			defer syncLogger(c.Logger)
			defer c.Close()

			ctx := cmd.Context()
			files, err := readImages(ctx, imagePath)
			if err != nil {
				return err
			}

			controller := c.NewController()
			if err := controller.SeedResult(reader(files[0]), files[0].mediaType); err != nil {
				return sessionError(controller, err)
			}
			if err := controller.SetMode(valueobjects.ModeEdit); err != nil {
				return err
			}
			if err := applyEdits(ctx, controller, instructions); err != nil {
				return err
			}

			n, err := exportResult(controller, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, n)
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "image to edit")
	cmd.Flags().StringArrayVar(&instructions, "instruction", nil, "edit instruction (repeatable, applied in order)")
	cmd.Flags().StringVar(&out, "out", "generated-image.png", "output PNG path")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("instruction")
	return cmd
}

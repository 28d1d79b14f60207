package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tryon-studio/internal/domain/valueobjects"
)

func newComposeCmd() *cobra.Command {
	var (
		person  string
		garment string
		edits   []string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Dress a person photo in a garment photo and save the result as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd)
			if err != nil {
				return err
			}
			defer syncLogger(c.Logger)
			defer c.Close()

			ctx := cmd.Context()
			files, err := readImages(ctx, person, garment)
			if err != nil {
				return err
			}

			controller := c.NewController()
			if err := controller.UploadUserPhoto(reader(files[0]), files[0].mediaType); err != nil {
				return sessionError(controller, err)
			}
			if err := controller.UploadGarmentPhoto(reader(files[1]), files[1].mediaType); err != nil {
				return sessionError(controller, err)
			}

			if err := controller.Generate(ctx); err != nil {
				return sessionError(controller, err)
			}

			if len(edits) > 0 {
				if err := controller.SetMode(valueobjects.ModeEdit); err != nil {
					return err
				}
				if err := applyEdits(ctx, controller, edits); err != nil {
					return err
				}
			}

			n, err := exportResult(controller, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, n)
			return nil
		},
	}

	cmd.Flags().StringVar(&person, "person", "", "photo of the person")
	cmd.Flags().StringVar(&garment, "garment", "", "photo of the garment")
	cmd.Flags().StringArrayVar(&edits, "edit", nil, "edit instruction applied after generation (repeatable)")
	cmd.Flags().StringVar(&out, "out", "generated-image.png", "output PNG path")
	_ = cmd.MarkFlagRequired("person")
	_ = cmd.MarkFlagRequired("garment")
	return cmd
}

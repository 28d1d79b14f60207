package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tryon-studio/internal/domain/valueobjects"
)

var encodableExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

func newEncodeCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "encode DIR",
		Short: "Write a base64 PNG payload (<name>.txt) for every image in DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if outDir == "" {
				outDir = filepath.Join(dir, "encoded")
			}
			written, err := encodeDir(dir, outDir)
			if err != nil {
				return err
			}
			for _, name := range written {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default DIR/encoded)")
	return cmd
}

// encodeDir converts every image in dir to PNG and stores its base64 payload
// in outDir. It returns the written paths in directory order.
func encodeDir(dir, outDir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !slices.Contains(encodableExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}
		names = append(names, entry.Name())
	}

	written := make([]string, len(names))
	var g errgroup.Group
	g.SetLimit(4)
	for i, name := range names {
		g.Go(func() error {
			path, err := encodeFile(filepath.Join(dir, name), outDir)
			if err != nil {
				return err
			}
			written[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return written, nil
}

func encodeFile(path, outDir string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	img, err := valueobjects.NewImageData(data, "")
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	converted, err := img.ToPNG()
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	target := filepath.Join(outDir, base+payloadExtension)
	if err := os.WriteFile(target, []byte(converted.Payload()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	return target, nil
}

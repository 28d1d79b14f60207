package main

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"tryon-studio/internal/application/usecases"
	"tryon-studio/internal/domain/valueobjects"
)

// payloadExtension marks a base64 payload file as written by the encode
// command.
const payloadExtension = ".txt"

type imageFile struct {
	data      []byte
	mediaType string
}

// readImages loads the given files concurrently, preserving order. Files
// ending in .txt are read as base64 payloads.
func readImages(ctx context.Context, paths ...string) ([]imageFile, error) {
	files := make([]imageFile, len(paths))
	g, _ := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext != payloadExtension {
				files[i] = imageFile{data: data, mediaType: mime.TypeByExtension(ext)}
				return nil
			}
			img, err := valueobjects.NewImageDataFromBase64(strings.TrimSpace(string(data)), "")
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			files[i] = imageFile{data: img.Data(), mediaType: img.MediaType()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// sessionError prefers the message the session shows to its user.
func sessionError(controller *usecases.WorkflowController, err error) error {
	if msg := controller.Snapshot().Error; msg != "" {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return err
}

func exportResult(controller *usecases.WorkflowController, out string) (int, error) {
	_, data, err := controller.ExportResult()
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", out, err)
	}
	return len(data), nil
}

// applyEdits runs each instruction as one edit pass over the current result.
func applyEdits(ctx context.Context, controller *usecases.WorkflowController, instructions []string) error {
	for i, instruction := range instructions {
		controller.SetEditInstruction(instruction)
		if err := controller.SubmitEdit(ctx); err != nil {
			return fmt.Errorf("edit %d: %w", i+1, sessionError(controller, err))
		}
	}
	return nil
}

func reader(f imageFile) *bytes.Reader {
	return bytes.NewReader(f.data)
}

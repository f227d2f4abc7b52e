package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary folders per asset kind.
const (
	folderProducts = "products"
	folderBrands   = "brands"
	folderProfiles = "profiles"
)

// uploadToCloudinary pushes one image and returns its delivery URL.
// The public ID is caller-controlled so re-uploads overwrite predictably.
func (app *application) uploadToCloudinary(file io.Reader, folder, publicID string) (string, error) {
	resp, err := app.cld.Upload.Upload(
		context.Background(),
		file,
		uploader.UploadParams{
			Folder:    folder,
			PublicID:  publicID,
			Overwrite: api.Bool(true),
		},
	)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

func (app *application) deleteFromCloudinary(photoURL string) error {
	publicID, err := extractPublicIDFromURL(photoURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = app.cld.Upload.Destroy(context.Background(), uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo from cloudinary: %w", err)
	}

	return nil
}

// extractPublicIDFromURL recovers the public ID from a Cloudinary
// delivery URL (everything after the /upload/ segment, extension
// stripped).
func extractPublicIDFromURL(photoURL string) (string, error) {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	pathParts := strings.Split(parsedURL.Path, "/")
	for i, part := range pathParts {
		if part == "upload" && i+1 < len(pathParts) {
			id := strings.Join(pathParts[i+1:], "/")
			if dot := strings.LastIndex(id, "."); dot > 0 {
				id = id[:dot]
			}
			return id, nil
		}
	}

	return "", errors.New("failed to extract public ID from URL")
}

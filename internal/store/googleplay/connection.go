package googleplay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/androidpublisher/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/storepush/storepush/internal/artifact"
	"github.com/storepush/storepush/internal/logger"
	"github.com/storepush/storepush/internal/store"
)

// uploadContentType is the media type Play expects for both APKs and bundles.
const uploadContentType = "application/octet-stream"

// connection abstracts the edits surface of the publishing API so that runs
// with server contact disabled can substitute a local implementation.
type connection interface {
	insertEdit(ctx context.Context, packageName string) (string, error)
	uploadArtifact(ctx context.Context, packageName, editID string, art store.Artifact) (int64, error)
	updateTrack(ctx context.Context, packageName, editID string, track *androidpublisher.Track) error
	commitEdit(ctx context.Context, packageName, editID string) error
	deleteEdit(ctx context.Context, packageName, editID string) error
}

// apiConnection talks to the real Google Play Developer API.
type apiConnection struct {
	// service is the generated androidpublisher client.
	service *androidpublisher.Service
}

// newAPIConnection authenticates with the service account credentials file
// and builds the androidpublisher client.
func newAPIConnection(ctx context.Context, credentialsFile string) (*apiConnection, error) {
	data, err := os.ReadFile(filepath.Clean(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, androidpublisher.AndroidpublisherScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	service, err := androidpublisher.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("build androidpublisher client: %w", err)
	}

	return &apiConnection{service: service}, nil
}

// insertEdit opens a server-side edit scoped to packageName.
func (c *apiConnection) insertEdit(ctx context.Context, packageName string) (string, error) {
	edit, err := c.service.Edits.Insert(packageName, nil).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert edit: %w", err)
	}

	return edit.Id, nil
}

// uploadArtifact streams one binary into the edit and returns the version
// code the server assigned to it.
func (c *apiConnection) uploadArtifact(
	ctx context.Context,
	packageName, editID string,
	art store.Artifact,
) (int64, error) {
	file, err := os.Open(filepath.Clean(art.Path))
	if err != nil {
		return 0, fmt.Errorf("open artifact: %w", err)
	}

	// Best-effort cleanup.
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat artifact: %w", err)
	}

	bar := progressbar.DefaultBytes(info.Size(), filepath.Base(art.Path))
	reader := progressbar.NewReader(file, bar)

	switch art.Kind {
	case artifact.KindAAB:
		bundle, uploadErr := c.service.Edits.Bundles.Upload(packageName, editID).
			Media(&reader, googleapi.ContentType(uploadContentType)).
			Context(ctx).Do()
		if uploadErr != nil {
			return 0, fmt.Errorf("upload bundle: %w", uploadErr)
		}

		return bundle.VersionCode, nil
	case artifact.KindAPK:
		apk, uploadErr := c.service.Edits.Apks.Upload(packageName, editID).
			Media(&reader, googleapi.ContentType(uploadContentType)).
			Context(ctx).Do()
		if uploadErr != nil {
			return 0, fmt.Errorf("upload apk: %w", uploadErr)
		}

		return apk.VersionCode, nil
	default:
		return 0, fmt.Errorf("artifact kind %q cannot be uploaded to Google Play", art.Kind)
	}
}

// updateTrack assigns the uploaded version codes to a release track.
func (c *apiConnection) updateTrack(
	ctx context.Context,
	packageName, editID string,
	track *androidpublisher.Track,
) error {
	if _, err := c.service.Edits.Tracks.Update(packageName, editID, track.Track, track).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update track: %w", err)
	}

	return nil
}

// commitEdit makes the edit's mutations live. This cannot be reverted.
func (c *apiConnection) commitEdit(ctx context.Context, packageName, editID string) error {
	if _, err := c.service.Edits.Commit(packageName, editID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("commit edit: %w", err)
	}

	return nil
}

// deleteEdit abandons the edit and everything uploaded into it.
func (c *apiConnection) deleteEdit(ctx context.Context, packageName, editID string) error {
	if err := c.service.Edits.Delete(packageName, editID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete edit: %w", err)
	}

	return nil
}

// offlineConnection mimics the edits surface without any network I/O.
// Edit IDs are fabricated locally and uploads echo the version code that
// extraction already read from the artifact.
type offlineConnection struct{}

func (offlineConnection) insertEdit(ctx context.Context, packageName string) (string, error) {
	editID := uuid.NewString()
	logger.InfoKV(ctx, "Opened local edit, server contact is disabled",
		"package_name", packageName, "edit_id", editID)

	return editID, nil
}

func (offlineConnection) uploadArtifact(
	ctx context.Context,
	_, editID string,
	art store.Artifact,
) (int64, error) {
	logger.InfoKV(ctx, "Would upload artifact",
		"path", art.Path, "edit_id", editID, "version_code", art.Metadata.VersionCode)

	return art.Metadata.VersionCode, nil
}

func (offlineConnection) updateTrack(
	ctx context.Context,
	_, editID string,
	track *androidpublisher.Track,
) error {
	logger.InfoKV(ctx, "Would update track", "track", track.Track, "edit_id", editID)

	return nil
}

func (offlineConnection) commitEdit(ctx context.Context, _, editID string) error {
	logger.InfoKV(ctx, "Would commit edit", "edit_id", editID)

	return nil
}

func (offlineConnection) deleteEdit(ctx context.Context, _, editID string) error {
	logger.InfoKV(ctx, "Would delete edit", "edit_id", editID)

	return nil
}

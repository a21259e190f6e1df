package googleplay

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"google.golang.org/api/androidpublisher/v3"

	"github.com/storepush/storepush/internal/logger"
	"github.com/storepush/storepush/internal/store"
)

const (
	// RolloutTrack is the pseudo-track requesting a staged production release.
	RolloutTrack = "rollout"

	// productionTrack is the Play track staged rollouts actually target.
	productionTrack = "production"

	// Release statuses understood by the Play API.
	statusCompleted  = "completed"
	statusInProgress = "inProgress"
)

// errRolloutPercentageRequired guards against building a staged release
// without a share; callers validate this before any network work.
var errRolloutPercentageRequired = errors.New(`track "rollout" requires a rollout percentage`)

// Store publishes artifacts to Google Play, one edit per package name.
type Store struct {
	// conn is the edits surface, real or local.
	conn connection
	// dryRun leaves every edit uncommitted so nothing goes live.
	dryRun bool
}

// NewStore builds a Google Play store backend.
// With contactServer false the credentials file is never read and no
// network connection is established.
func NewStore(ctx context.Context, credentialsFile string, contactServer, dryRun bool) (*Store, error) {
	if !contactServer {
		return &Store{conn: offlineConnection{}, dryRun: dryRun}, nil
	}

	conn, err := newAPIConnection(ctx, credentialsFile)
	if err != nil {
		return nil, err
	}

	return &Store{conn: conn, dryRun: dryRun}, nil
}

// WithTransaction opens one edit for packageName, runs fn against it and
// guarantees the edit never leaks: it is committed on success (unless dry
// run) and deleted on every other exit path.
func (s *Store) WithTransaction(
	ctx context.Context,
	packageName string,
	fn func(ctx context.Context, edit store.Edit) error,
) error {
	ctx = logger.WithKV(ctx, "package_name", packageName)

	editID, err := s.conn.insertEdit(ctx, packageName)
	if err != nil {
		return fmt.Errorf("open edit for %s: %w", packageName, err)
	}

	committed := false

	defer func() {
		if committed {
			return
		}

		if deleteErr := s.conn.deleteEdit(ctx, packageName, editID); deleteErr != nil {
			logger.WarnKV(ctx, "Failed to abandon edit", "edit_id", editID, "error", deleteErr)
		}
	}()

	e := &edit{conn: s.conn, packageName: packageName, id: editID}
	if err = fn(ctx, e); err != nil {
		return err
	}

	if s.dryRun {
		logger.InfoKV(ctx, "Dry run, abandoning edit without commit", "edit_id", editID)

		return nil
	}

	if err = s.conn.commitEdit(ctx, packageName, editID); err != nil {
		return fmt.Errorf("commit edit %s: %w", editID, err)
	}

	committed = true

	logger.InfoKV(ctx, "Committed edit", "edit_id", editID)

	return nil
}

// edit is one open Google Play edit. It implements store.Edit.
type edit struct {
	// conn is the edits surface the edit was opened on.
	conn connection
	// packageName scopes every API call of this edit.
	packageName string
	// id is the server-assigned (or locally fabricated) edit identifier.
	id string
}

// UpdateApp uploads the artifacts into the edit and assigns the resulting
// version codes to the requested track.
func (e *edit) UpdateApp(ctx context.Context, artifacts []store.Artifact, params store.UpdateParams) error {
	versionCodes := make([]int64, 0, len(artifacts))

	for _, art := range artifacts {
		code, err := e.conn.uploadArtifact(ctx, e.packageName, e.id, art)
		if err != nil {
			return fmt.Errorf("upload %s: %w", filepath.Base(art.Path), err)
		}

		logger.InfoKV(ctx, "Uploaded artifact",
			"path", art.Path, "version_code", code, "edit_id", e.id)

		versionCodes = append(versionCodes, code)
	}

	track, err := trackUpdate(params, versionCodes)
	if err != nil {
		return err
	}

	if err = e.conn.updateTrack(ctx, e.packageName, e.id, track); err != nil {
		return fmt.Errorf("assign %d version code(s) to track %q: %w", len(versionCodes), track.Track, err)
	}

	return nil
}

// trackUpdate translates the update parameters into the Play track resource.
// The "rollout" pseudo-track becomes a staged release on the production track.
func trackUpdate(params store.UpdateParams, versionCodes []int64) (*androidpublisher.Track, error) {
	release := &androidpublisher.TrackRelease{
		VersionCodes: versionCodes,
		Status:       statusCompleted,
	}

	trackName := params.Track
	if trackName == RolloutTrack {
		if params.RolloutPercentage == nil {
			return nil, errRolloutPercentageRequired
		}

		trackName = productionTrack
		release.Status = statusInProgress
		release.UserFraction = float64(*params.RolloutPercentage) / 100
	}

	return &androidpublisher.Track{
		Track:    trackName,
		Releases: []*androidpublisher.TrackRelease{release},
	}, nil
}

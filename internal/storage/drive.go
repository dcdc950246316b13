// Package storage syncs exported workbooks with a Google Drive folder.
// It uses a service-account credentials file and the narrow drive.file
// scope, so only files this tool created are visible to it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// ErrNotFound is returned when a lookup by name matches nothing.
var ErrNotFound = errors.New("file not found")

// File is the metadata subset the sync flows need.
type File struct {
	ID          string
	Name        string
	CreatedTime string
}

// Drive wraps the Drive v3 client with the folder the tool syncs into.
type Drive struct {
	svc      *drive.Service
	folderID string
}

// NewDrive authenticates with the service-account key at credentialsFile.
// folderID may be empty, in which case files land in the account's root.
func NewDrive(ctx context.Context, credentialsFile, folderID string) (*Drive, error) {
	if credentialsFile == "" {
		return nil, errors.New("drive credentials file not configured")
	}
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("drive credentials file: %w", err)
	}

	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveFileScope),
	)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &Drive{svc: svc, folderID: folderID}, nil
}

// Upload sends the local file to the configured folder. A file with the
// same remote name is overwritten in place so repeated exports do not
// pile up copies. Returns the Drive file ID.
func (d *Drive) Upload(ctx context.Context, local, remoteName string) (string, error) {
	if remoteName == "" {
		remoteName = filepath.Base(local)
	}

	f, err := os.Open(local)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", local, err)
	}
	defer f.Close()

	existing, err := d.List(ctx, fmt.Sprintf("name = '%s'", escapeQuery(remoteName)))
	if err != nil {
		return "", err
	}

	if len(existing) > 0 {
		id := existing[0].ID
		log.Info().Str("name", remoteName).Str("id", id).Msg("updating drive file")
		res, err := d.svc.Files.Update(id, &drive.File{}).Media(f).Fields("id").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("updating drive file %s: %w", remoteName, err)
		}
		return res.Id, nil
	}

	log.Info().Str("name", remoteName).Msg("uploading new drive file")
	meta := &drive.File{Name: remoteName}
	if d.folderID != "" {
		meta.Parents = []string{d.folderID}
	}
	res, err := d.svc.Files.Create(meta).Media(f).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("uploading drive file %s: %w", remoteName, err)
	}
	return res.Id, nil
}

// List returns folder contents newest first. extra narrows the search
// with Drive query syntax, e.g. "name contains '상장'".
func (d *Drive) List(ctx context.Context, extra string) ([]File, error) {
	q := "trashed = false"
	if d.folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", d.folderID)
	}
	if extra != "" {
		q += " and (" + extra + ")"
	}

	res, err := d.svc.Files.List().
		Q(q).
		PageSize(10).
		Fields("nextPageToken, files(id, name, createdTime)").
		OrderBy("createdTime desc").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing drive files: %w", err)
	}

	files := make([]File, 0, len(res.Files))
	for _, f := range res.Files {
		files = append(files, File{ID: f.Id, Name: f.Name, CreatedTime: f.CreatedTime})
	}
	return files, nil
}

// FindByName returns the newest file with exactly this name.
func (d *Drive) FindByName(ctx context.Context, name string) (File, error) {
	files, err := d.List(ctx, fmt.Sprintf("name = '%s'", escapeQuery(name)))
	if err != nil {
		return File{}, err
	}
	if len(files) == 0 {
		return File{}, fmt.Errorf("%q on drive: %w", name, ErrNotFound)
	}
	return files[0], nil
}

// Download streams the Drive file with the given ID into local.
func (d *Drive) Download(ctx context.Context, fileID, local string) error {
	res, err := d.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("downloading drive file %s: %w", fileID, err)
	}
	defer res.Body.Close()

	out, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("creating %s: %w", local, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, res.Body); err != nil {
		return fmt.Errorf("writing %s: %w", local, err)
	}
	log.Info().Str("id", fileID).Str("path", local).Msg("drive file downloaded")
	return nil
}

// Ping lists the folder once to verify the credentials actually work.
func (d *Drive) Ping(ctx context.Context) error {
	_, err := d.List(ctx, "")
	return err
}

// Drive query strings quote values with single quotes.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}

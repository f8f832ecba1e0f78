package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/semmidev/pgstash/internal/config"
	"github.com/semmidev/pgstash/internal/domain"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type GDriveStorage struct {
	service  *drive.Service
	folderID string
}

func NewGDrive(ctx context.Context, cfg *config.StorageConfig) (*GDriveStorage, error) {
	service, err := drive.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GDriveStorage{
		service:  service,
		folderID: cfg.FolderID,
	}, nil
}

func (g *GDriveStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return &domain.TransferError{Op: "upload", Name: remoteName, Err: fmt.Errorf("failed to open file: %w", err)}
	}
	defer file.Close()

	fileMetadata := &drive.File{
		Name:    remoteName,
		Parents: []string{g.folderID},
	}

	_, err = g.service.Files.Create(fileMetadata).
		Media(file).
		Context(ctx).
		Do()
	if err != nil {
		return &domain.TransferError{Op: "upload", Name: remoteName, Err: err}
	}

	return nil
}

func (g *GDriveStorage) Download(ctx context.Context, remoteName string, localPath string) error {
	id, err := g.findID(ctx, remoteName)
	if err != nil {
		return &domain.TransferError{Op: "download", Name: remoteName, Err: err}
	}

	resp, err := g.service.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return &domain.TransferError{Op: "download", Name: remoteName, Err: err}
	}
	defer resp.Body.Close()

	if err := writeFile(localPath, resp.Body); err != nil {
		return &domain.TransferError{Op: "download", Name: remoteName, Err: err}
	}

	return nil
}

func (g *GDriveStorage) Exists(ctx context.Context, remoteName string) (bool, error) {
	files, err := g.query(ctx, g.nameQuery(remoteName), "files(id)")
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

func (g *GDriveStorage) List(ctx context.Context) ([]string, error) {
	files, err := g.query(ctx, g.folderQuery(), "files(id, name, createdTime)")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}

	return names, nil
}

func (g *GDriveStorage) Delete(ctx context.Context, remoteName string) error {
	id, err := g.findID(ctx, remoteName)
	if err != nil {
		return &domain.TransferError{Op: "delete", Name: remoteName, Err: err}
	}

	if err := g.service.Files.Delete(id).Context(ctx).Do(); err != nil {
		return &domain.TransferError{Op: "delete", Name: remoteName, Err: err}
	}

	return nil
}

func (g *GDriveStorage) GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error) {
	q := fmt.Sprintf("%s and createdTime < '%s'", g.folderQuery(), cutoffTime.UTC().Format(time.RFC3339))

	files, err := g.query(ctx, q, "files(id, name)")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}

	return names, nil
}

func (g *GDriveStorage) findID(ctx context.Context, remoteName string) (string, error) {
	files, err := g.query(ctx, g.nameQuery(remoteName), "files(id)")
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, remoteName)
	}
	return files[0].Id, nil
}

func (g *GDriveStorage) query(ctx context.Context, q, fields string) ([]*drive.File, error) {
	var files []*drive.File
	err := g.service.Files.List().
		Q(q).
		Fields("nextPageToken", googleapi.Field(fields)).
		Context(ctx).
		Pages(ctx, func(page *drive.FileList) error {
			files = append(files, page.Files...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

func (g *GDriveStorage) folderQuery() string {
	return fmt.Sprintf("'%s' in parents and trashed=false", g.folderID)
}

func (g *GDriveStorage) nameQuery(name string) string {
	return fmt.Sprintf("%s and name='%s'", g.folderQuery(), escapeQuery(name))
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func writeFile(path string, r io.Reader) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

package googleDriveApi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"time"

	"github.com/KotFed0t/sector_dashboard/config"
	"github.com/KotFed0t/sector_dashboard/utils"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const viewLinkTemplate = "https://drive.google.com/file/d/%s/view"

// appTag marks files uploaded by this service so the cleanup job never
// touches anything else living in the service account.
const appTag = "sector_dashboard"

type GoogleDriveApi struct {
	srv *drive.Service
	cfg *config.Config
}

func New(ctx context.Context, cfg *config.Config) *GoogleDriveApi {
	srv, err := drive.NewService(ctx, option.WithCredentialsFile(cfg.GoogleDrive.CredentialsFile))
	if err != nil {
		slog.Error("failed on drive.NewService")
		panic(err)
	}
	return &GoogleDriveApi{srv: srv, cfg: cfg}
}

// UploadFile stores a generated report on Drive, opens it to anyone with
// the link and returns the view link.
func (a *GoogleDriveApi) UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoogleDriveApi.UploadFile"

	slog.Debug("UploadFile start", slog.String("rqID", rqID), slog.String("op", op), slog.String("filename", filename))

	meta := &drive.File{
		Name:          filename,
		AppProperties: map[string]string{"app": appTag},
	}

	var media []googleapi.MediaOption
	if mimeType := mime.TypeByExtension(filepath.Ext(filename)); mimeType != "" {
		meta.MimeType = mimeType
		media = append(media, googleapi.ContentType(mimeType))
	}

	uploaded, err := a.srv.Files.
		Create(meta).
		Media(reader, media...).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		slog.Error("got error from driveApi.Files.Create", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	perm := &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}
	if _, err = a.srv.Permissions.Create(uploaded.Id, perm).Context(ctx).Do(); err != nil {
		slog.Error("got error from driveApi.Permissions.Create", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	slog.Debug("UploadFile completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("fileID", uploaded.Id))

	return fmt.Sprintf(viewLinkTemplate, uploaded.Id), nil
}

// DeleteOldFiles removes reports this service uploaded more than
// GoogleDrive.FileTTL ago and empties the trash, keeping the service
// account's quota bounded. Age filtering happens server side.
func (a *GoogleDriveApi) DeleteOldFiles(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoogleDriveApi.DeleteOldFiles"

	slog.Debug("DeleteOldFiles start", slog.String("rqID", rqID), slog.String("op", op))

	cutoff := time.Now().Add(-a.cfg.GoogleDrive.FileTTL)
	query := fmt.Sprintf(
		"appProperties has { key='app' and value='%s' } and createdTime < '%s'",
		appTag, cutoff.UTC().Format(time.RFC3339),
	)

	deleted := 0
	pageToken := ""
	for {
		call := a.srv.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name)").
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			slog.Error("got error from driveApi.Files.List", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return err
		}

		for _, f := range page.Files {
			if err := a.srv.Files.Delete(f.Id).Context(ctx).Do(); err != nil {
				slog.Error(
					"got error from driveApi.Files.Delete",
					slog.String("rqID", rqID),
					slog.String("op", op),
					slog.String("err", err.Error()),
					slog.String("fileID", f.Id),
					slog.String("filename", f.Name),
				)
				continue
			}
			deleted++
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if err := a.srv.Files.EmptyTrash().Context(ctx).Do(); err != nil {
		slog.Error("got error from driveApi.Files.EmptyTrash", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	slog.Info("old report cleanup done", slog.String("rqID", rqID), slog.Int("deletedFiles", deleted))

	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/internal/dto"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
	"github.com/noah-isme/ladder-inspection-api/pkg/storage"
)

type photoStore interface {
	Save(r io.Reader) (*storage.StoredFile, error)
	Open(rel string) (*os.File, error)
}

type photoSigner interface {
	Sign(subject, rel string) (string, time.Time, error)
	Verify(token string) (*storage.PhotoClaims, error)
}

// PhotoService stores inspection item photos and issues download links.
// Uploads happen before the inspection is recorded; the returned path is
// then sent as the item's photo_path.
type PhotoService struct {
	store       photoStore
	signer      photoSigner
	inspections inspectionGetter
	metrics     *MetricsService
	logger      *zap.Logger
	downloadURL string
}

// NewPhotoService constructs a PhotoService. downloadURL is the absolute
// path of the download endpoint.
func NewPhotoService(store photoStore, signer photoSigner, inspections inspectionGetter, metrics *MetricsService, logger *zap.Logger, downloadURL string) *PhotoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoService{store: store, signer: signer, inspections: inspections, metrics: metrics, logger: logger, downloadURL: downloadURL}
}

// Upload stores a photo and returns its path with a signed download link.
func (s *PhotoService) Upload(ctx context.Context, r io.Reader, actorID string) (*dto.PhotoUploadResponse, error) {
	stored, err := s.store.Save(r)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			s.metrics.RecordPhotoUpload("too_large")
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "photo exceeds the size limit")
		case errors.Is(err, storage.ErrUnsupportedType):
			s.metrics.RecordPhotoUpload("unsupported")
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "photo type is not supported")
		default:
			s.metrics.RecordPhotoUpload("error")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
		}
	}
	s.metrics.RecordPhotoUpload("success")
	s.logger.Info("photo stored", zap.String("path", stored.Path), zap.Int64("size", stored.Size), zap.String("user_id", actorID))

	link, expires, err := s.link(actorID, stored.Path)
	if err != nil {
		return nil, err
	}
	return &dto.PhotoUploadResponse{
		Path:        stored.Path,
		ContentType: stored.ContentType,
		Size:        stored.Size,
		DownloadURL: link,
		ExpiresAt:   expires.UTC().Format(time.RFC3339),
	}, nil
}

// ItemPhotoLink signs a download link for the photo of a stored inspection item.
func (s *PhotoService) ItemPhotoLink(ctx context.Context, inspectionID, itemID string) (*dto.PhotoUploadResponse, error) {
	insp, err := s.inspections.Get(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	for _, item := range insp.Items() {
		if item.ID != itemID {
			continue
		}
		if item.PhotoPath == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item has no photo")
		}
		link, expires, err := s.link(item.ID, *item.PhotoPath)
		if err != nil {
			return nil, err
		}
		return &dto.PhotoUploadResponse{
			Path:        *item.PhotoPath,
			ContentType: mime.TypeByExtension(filepath.Ext(*item.PhotoPath)),
			DownloadURL: link,
			ExpiresAt:   expires.UTC().Format(time.RFC3339),
		}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "inspection item not found")
}

// Open verifies a download token and opens the photo it names. The caller
// closes the file.
func (s *PhotoService) Open(token string) (*os.File, string, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download link")
	}
	file, err := s.store.Open(claims.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "photo not found")
		}
		if errors.Is(err, storage.ErrInvalidPath) {
			return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid photo path")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open photo")
	}
	contentType := mime.TypeByExtension(filepath.Ext(claims.Path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, contentType, nil
}

func (s *PhotoService) link(subject, rel string) (string, time.Time, error) {
	token, expires, err := s.signer.Sign(subject, rel)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return fmt.Sprintf("%s?token=%s", s.downloadURL, url.QueryEscape(token)), expires, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/appditto/capture-server/blobstore"
	"github.com/appditto/capture-server/metrics"
	"github.com/appditto/capture-server/models/dbmodels"
	"github.com/appditto/capture-server/notify"
	"github.com/appditto/capture-server/repository"
	"k8s.io/klog/v2"
)

const (
	NotificationTitle = "New Image Captured"
	NotificationBody  = "A new image has been captured and uploaded"

	DefaultRecentLimit = 100
	MaxRecentLimit     = 1000
)

type ImageStore interface {
	Create(ctx context.Context, imageUrl string) (*dbmodels.Image, error)
	GetLatest(ctx context.Context) (*dbmodels.Image, error)
	GetRecent(ctx context.Context, limit int) ([]dbmodels.Image, error)
}

type DeviceRegistry interface {
	AddOrUpdateToken(ctx context.Context, token string) error
	GetAllTokens(ctx context.Context) ([]string, error)
	DeleteTokens(ctx context.Context, tokens []string) error
}

type LatestCache interface {
	Get(ctx context.Context) (*dbmodels.Image, error)
	// Set stores image unless a newer image is cached
	Set(ctx context.Context, image *dbmodels.Image) (bool, error)
	Invalidate(ctx context.Context) error
}

// UploadService sequences blob upload, record creation and device fan-out.
// Notifier and Cache are optional.
type UploadService struct {
	Images   ImageStore
	Devices  DeviceRegistry
	Blobs    blobstore.Store
	Notifier notify.Notifier
	Cache    LatestCache
	Metrics  *metrics.Metrics
}

// NotificationResult is what happened to the fan-out of one upload
type NotificationResult struct {
	Targets int
	Skipped bool
	Outcome *notify.Outcome
	Err     error
}

func (s *UploadService) RegisterDevice(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrValidation)
	}
	if err := s.Devices.AddOrUpdateToken(ctx, token); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.Metrics.DevicesRegistered.Inc()
	return nil
}

// Upload stores data, persists its record and notifies every registered device.
// Once the record exists the upload has succeeded, fan-out problems are only recorded.
func (s *UploadService) Upload(ctx context.Context, data []byte, filename string) (*dbmodels.Image, error) {
	if len(data) == 0 {
		s.Metrics.UploadFailures.WithLabelValues("validation").Inc()
		return nil, fmt.Errorf("%w: image is required", ErrValidation)
	}

	url, err := s.Blobs.Upload(ctx, data, filename)
	if err != nil {
		s.Metrics.UploadFailures.WithLabelValues("blob").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	image, err := s.Images.Create(ctx, url)
	if err != nil {
		// the blob at url stays orphaned
		s.Metrics.UploadFailures.WithLabelValues("persistence").Inc()
		klog.Errorf("Uploaded %s but failed to persist its record: %v", url, err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.Metrics.ImagesUploaded.Inc()
	klog.Infof("Stored image %s at %s", image.ID, image.ImageUrl)

	if s.Cache != nil {
		if _, err := s.Cache.Set(ctx, image); err != nil {
			klog.Errorf("Error caching latest image %s: %v", image.ID, err)
			// an older record may still be cached
			if err := s.Cache.Invalidate(ctx); err != nil {
				klog.Errorf("Error invalidating latest image cache: %v", err)
			}
		}
	}

	s.recordNotification(ctx, image, s.notifyDevices(ctx, image))
	return image, nil
}

func (s *UploadService) notifyDevices(ctx context.Context, image *dbmodels.Image) NotificationResult {
	if s.Notifier == nil {
		return NotificationResult{Skipped: true}
	}
	tokens, err := s.Devices.GetAllTokens(ctx)
	if err != nil {
		return NotificationResult{Err: fmt.Errorf("%w: listing device tokens: %v", ErrNotification, err)}
	}
	if len(tokens) == 0 {
		return NotificationResult{Skipped: true}
	}

	data := map[string]string{
		"imageUrl":  image.ImageUrl,
		"timestamp": image.Timestamp.Format(time.RFC3339Nano),
	}
	outcome, err := s.Notifier.SendToMany(ctx, tokens, NotificationTitle, NotificationBody, data)
	result := NotificationResult{Targets: len(tokens), Outcome: outcome}
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrNotification, err)
	}
	return result
}

// recordNotification logs and counts the fan-out, and prunes tokens the provider rejected
func (s *UploadService) recordNotification(ctx context.Context, image *dbmodels.Image, result NotificationResult) {
	if result.Skipped {
		klog.V(3).Infof("No devices to notify for image %s", image.ID)
		return
	}
	failed := 0
	if result.Outcome != nil {
		failed = result.Outcome.Failure
		s.Metrics.NotificationsSent.Add(float64(result.Outcome.Success))
		if result.Outcome.Failure > 0 {
			s.Metrics.NotificationFailures.WithLabelValues("delivery").Add(float64(result.Outcome.Failure))
		}
		s.pruneTokens(ctx, result.Outcome.InvalidTokens)
	}
	if result.Err != nil {
		reason := "send"
		if result.Targets == 0 {
			reason = "tokens"
		}
		s.Metrics.NotificationFailures.WithLabelValues(reason).Inc()
		klog.Errorf("Error sending notification for image %s: %v", image.ID, result.Err)
		return
	}
	klog.Infof("Notification sent for image %s to %d devices (%d failed)", image.ID, result.Targets, failed)
}

func (s *UploadService) pruneTokens(ctx context.Context, tokens []string) {
	if len(tokens) == 0 {
		return
	}
	if err := s.Devices.DeleteTokens(ctx, tokens); err != nil {
		klog.Errorf("Error deleting %d invalid device tokens: %v", len(tokens), err)
		return
	}
	s.Metrics.TokensPruned.Add(float64(len(tokens)))
	klog.Infof("Deleted %d invalid device tokens", len(tokens))
}

// GetLatest returns repository.ErrNotFound unwrapped when no image exists
func (s *UploadService) GetLatest(ctx context.Context) (*dbmodels.Image, error) {
	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx)
		if err == nil {
			return cached, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			klog.Errorf("Error reading latest image cache: %v", err)
		}
	}

	image, err := s.Images.GetLatest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, err
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if s.Cache != nil {
		// a concurrent upload may have cached a newer image since the read
		if stored, err := s.Cache.Set(ctx, image); err != nil {
			klog.Errorf("Error filling latest image cache: %v", err)
		} else if !stored {
			klog.V(3).Infof("Latest image cache already holds a newer image than %s", image.ID)
		}
	}
	return image, nil
}

// GetRecent returns up to limit images newest first, limit is clamped to MaxRecentLimit
// and a non-positive limit means DefaultRecentLimit
func (s *UploadService) GetRecent(ctx context.Context, limit int) ([]dbmodels.Image, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	} else if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	images, err := s.Images.GetRecent(ctx, limit)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, err
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return images, nil
}

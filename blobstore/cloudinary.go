package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"k8s.io/klog/v2"
)

type CloudinaryConfig struct {
	CloudName string `yaml:"cloudName"`
	APIKey    string `yaml:"apiKey"`
	APISecret string `yaml:"apiSecret"`
	Folder    string `yaml:"folder"`
}

// uploadAPI is the part of the cloudinary SDK the store needs
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
}

type CloudinaryStore struct {
	uploader uploadAPI
	folder   string
}

func NewCloudinaryStore(config *CloudinaryConfig) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(config.CloudName, config.APIKey, config.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return &CloudinaryStore{uploader: &cld.Upload, folder: config.Folder}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	if _, err := DetectFormat(data); err != nil {
		return "", err
	}
	params := uploader.UploadParams{
		Folder:         s.folder,
		AllowedFormats: api.CldAPIArray(AllowedFormats),
	}
	resp, err := s.uploader.Upload(ctx, bytes.NewReader(data), params)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload failed: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("cloudinary upload returned no url")
	}
	// cloudinary assigns the public id, the client filename is only logged
	klog.V(3).Infof("Uploaded %s to cloudinary as %s", filename, resp.PublicID)
	return resp.SecureURL, nil
}

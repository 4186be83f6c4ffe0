package controller

import (
	"errors"
	"io"
	"strconv"

	"github.com/appditto/capture-server/models"
	"github.com/appditto/capture-server/repository"
	"github.com/appditto/capture-server/service"
	"github.com/appditto/capture-server/utils"
	"github.com/gofiber/fiber/v2"
	"k8s.io/klog/v2"
)

// Multipart field carrying the image
const imageField = "image"

type UploadController struct {
	Service *service.UploadService
}

// SetRoutes mounts the upload API under /upload
func (uc *UploadController) SetRoutes(app *fiber.App) {
	upload := app.Group("/upload")
	upload.Post("/register-device", uc.HandleRegisterDevice)
	upload.Post("/", uc.HandleUpload)
	upload.Get("/latest", uc.HandleLatest)
	upload.Get("/all", uc.HandleAll)
}

func (uc *UploadController) HandleRegisterDevice(c *fiber.Ctx) error {
	var request models.RegisterDeviceRequest
	if err := c.BodyParser(&request); err != nil {
		klog.V(3).Infof("Error parsing register device request %v", err)
		return ErrBadRequest(c, "Token is required")
	}
	if err := utils.Validate(&request); err != nil {
		return ErrBadRequest(c, "Token is required")
	}

	err := uc.Service.RegisterDevice(c.UserContext(), request.Token)
	if errors.Is(err, service.ErrValidation) {
		return ErrBadRequest(c, "Token is required")
	} else if err != nil {
		klog.Errorf("Error registering device: %v", err)
		return ErrInternalServerError(c)
	}

	klog.V(3).Infof("Registered device from %s", utils.IPAddress(c))
	return c.Status(fiber.StatusOK).JSON(&models.MessageResponse{
		Message: "Device registered successfully",
	})
}

func (uc *UploadController) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile(imageField)
	if err != nil {
		klog.V(3).Infof("Upload from %s without image: %v", utils.IPAddress(c), err)
		return ErrBadRequest(c, "Image is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		klog.V(3).Infof("Error opening uploaded image %v", err)
		return ErrBadRequest(c, "Image is required")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		klog.V(3).Infof("Error reading uploaded image %v", err)
		return ErrBadRequest(c, "Image is required")
	}

	image, err := uc.Service.Upload(c.UserContext(), data, fileHeader.Filename)
	if errors.Is(err, service.ErrValidation) {
		return ErrBadRequest(c, "Image is required")
	} else if err != nil {
		klog.Errorf("Upload error: %v", err)
		return ErrInternalServerError(c)
	}
	return c.Status(fiber.StatusCreated).JSON(image)
}

func (uc *UploadController) HandleLatest(c *fiber.Ctx) error {
	image, err := uc.Service.GetLatest(c.UserContext())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound(c, "No image found")
	} else if err != nil {
		klog.Errorf("Error fetching latest image: %v", err)
		return ErrInternalServerError(c)
	}
	return c.Status(fiber.StatusOK).JSON(&models.LatestImageResponse{
		ImageUrl:  image.ImageUrl,
		Timestamp: image.Timestamp,
	})
}

func (uc *UploadController) HandleAll(c *fiber.Ctx) error {
	// unparseable limits fall back to the default inside the service
	limit, _ := strconv.Atoi(c.Query("limit"))
	images, err := uc.Service.GetRecent(c.UserContext(), limit)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound(c, "No images found")
	} else if err != nil {
		klog.Errorf("Error fetching images: %v", err)
		return ErrInternalServerError(c)
	}
	return c.Status(fiber.StatusOK).JSON(images)
}

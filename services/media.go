package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	appcontext "github.com/alphabatem/common/context"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wheelchair-racer/wr_api/clock"
	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/model"
	"github.com/wheelchair-racer/wr_api/ratelimit"
	"github.com/wheelchair-racer/wr_api/shared"
)

const (
	MEDIA_SVC = "media_svc"

	MaxPostImages        = 10
	postImageConcurrency = 4
)

// Uploads are served from a public bucket, so only raster formats are
// accepted. SVG can carry script.
var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type MediaService struct {
	appcontext.DefaultService

	objects ObjectStore
	users   UserStore
	assets  MediaStore
	limiter Throttle
	clock   clock.Clock
}

// image is an upload that passed size and content checks.
type image struct {
	data        []byte
	contentType string
	ext         string
}

func (svc MediaService) Id() string {
	return MEDIA_SVC
}

func (svc *MediaService) Configure(ctx *appcontext.Context) error {
	svc.clock = clock.NewSystemClock()
	return svc.DefaultService.Configure(ctx)
}

func (svc *MediaService) Start() error {
	pg := svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.users = pg.Users()
	svc.assets = pg.Media()
	svc.objects = svc.Service(MINIO_SVC).(*MinIOService)
	svc.limiter = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	return nil
}

// ==================== UPLOADS ====================

// UploadAvatar stores a new profile picture and points the user's profile
// at it.
func (svc *MediaService) UploadAvatar(ctx context.Context, userID string, file *multipart.FileHeader) (*dto.MediaUploadResponse, error) {
	if err := svc.limiter.Allow(ratelimit.ImageUpload, userID); err != nil {
		return nil, err
	}

	img, err := readImage(file, shared.MaxAvatarSize)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("%s/%s/%d%s", shared.AvatarPrefix, userID, svc.clock.Now().UnixMilli(), img.ext)
	if err := svc.objects.UploadFile(ctx, objectName, bytes.NewReader(img.data), int64(len(img.data)), img.contentType); err != nil {
		return nil, shared.NewInternalError(err, "Failed to upload avatar")
	}

	url := svc.objects.PublicURL(objectName)
	if err := svc.users.UpdateAvatar(userID, url); err != nil {
		svc.deleteObjects([]string{objectName})
		return nil, err
	}

	resp := dto.MediaUploadResponse{
		URL:         url,
		ObjectName:  objectName,
		ContentType: img.contentType,
		FileSize:    int64(len(img.data)),
	}
	svc.recordAssets(userID, model.MediaKindAvatar, []dto.MediaUploadResponse{resp})

	return &resp, nil
}

// UploadPostImages stores up to MaxPostImages images concurrently. If any
// upload fails the ones that succeeded are removed again.
func (svc *MediaService) UploadPostImages(ctx context.Context, userID string, files []*multipart.FileHeader) (*dto.PostImagesResponse, error) {
	if len(files) == 0 {
		return nil, shared.NewBadRequestError(nil, "No images provided")
	}
	if len(files) > MaxPostImages {
		return nil, shared.NewBadRequestError(nil, fmt.Sprintf("At most %d images can be uploaded at once", MaxPostImages))
	}

	for range files {
		if err := svc.limiter.Allow(ratelimit.ImageUpload, userID); err != nil {
			return nil, err
		}
	}

	images := make([]*image, len(files))
	for i, file := range files {
		img, err := readImage(file, shared.MaxPostImageSize)
		if err != nil {
			return nil, err
		}
		images[i] = img
	}

	now := svc.clock.Now().UnixMilli()
	results := make([]dto.MediaUploadResponse, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(postImageConcurrency)
	for i, img := range images {
		objectName := fmt.Sprintf("%s/%s/%d-%s%s", shared.PostImagePrefix, userID, now, randomSuffix(), img.ext)
		g.Go(func() error {
			if err := svc.objects.UploadFile(gctx, objectName, bytes.NewReader(img.data), int64(len(img.data)), img.contentType); err != nil {
				return err
			}
			results[i] = dto.MediaUploadResponse{
				URL:         svc.objects.PublicURL(objectName),
				ObjectName:  objectName,
				ContentType: img.contentType,
				FileSize:    int64(len(img.data)),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var uploaded []string
		for _, res := range results {
			if res.ObjectName != "" {
				uploaded = append(uploaded, res.ObjectName)
			}
		}
		svc.deleteObjects(uploaded)
		return nil, shared.NewInternalError(err, "Failed to upload images")
	}

	svc.recordAssets(userID, model.MediaKindPostImage, results)

	return &dto.PostImagesResponse{Images: results}, nil
}

// ==================== HELPERS ====================

// readImage loads file into memory and checks its size and sniffed type.
func readImage(file *multipart.FileHeader, maxSize int64) (*image, error) {
	if file.Size > maxSize {
		return nil, shared.NewBadRequestError(nil, fmt.Sprintf("Image too large. Maximum size: %dMB", maxSize/(1024*1024)))
	}

	src, err := file.Open()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to open uploaded file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to read uploaded file")
	}
	if int64(len(data)) > maxSize {
		return nil, shared.NewBadRequestError(nil, fmt.Sprintf("Image too large. Maximum size: %dMB", maxSize/(1024*1024)))
	}
	if len(data) == 0 {
		return nil, shared.NewBadRequestError(nil, "Uploaded file is empty")
	}

	mtype := mimetype.Detect(data)
	contentType := mtype.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if !mimetype.EqualsAny(contentType, allowedImageTypes...) {
		return nil, shared.NewBadRequestError(nil, "Only JPEG, PNG, GIF and WebP images are allowed")
	}

	return &image{data: data, contentType: contentType, ext: mtype.Extension()}, nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (svc *MediaService) deleteObjects(objectNames []string) {
	for _, name := range objectNames {
		if err := svc.objects.DeleteFile(context.Background(), name); err != nil {
			log.WithError(err).WithField("object", name).Warn("Failed to delete uploaded object")
		}
	}
}

func (svc *MediaService) recordAssets(userID, kind string, uploads []dto.MediaUploadResponse) {
	now := svc.clock.Now()
	assets := make([]model.MediaAsset, 0, len(uploads))
	for _, upload := range uploads {
		assets = append(assets, model.MediaAsset{
			UserID:      userID,
			Kind:        kind,
			ObjectName:  upload.ObjectName,
			URL:         upload.URL,
			ContentType: upload.ContentType,
			FileSize:    upload.FileSize,
			CreatedAt:   now,
		})
	}
	if err := svc.assets.CreateMediaAssets(assets); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to record media assets")
	}
}

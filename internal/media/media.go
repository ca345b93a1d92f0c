// Package media загружает изображения и видео каталога в S3-совместимое хранилище.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/magabrotheeeer/watchhub/internal/config"
)

// Виды загружаемых файлов.
const (
	KindImage = "image"
	KindVideo = "video"
)

var (
	// ErrInvalidKind вид файла не image и не video.
	ErrInvalidKind = errors.New("kind must be image or video")
	// ErrInvalidKey ключ объекта вне каталогов images/ и videos/.
	ErrInvalidKey = errors.New("invalid object key")
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// objectAPI подмножество *s3.Client.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Storage хранилище медиа одного бакета.
type Storage struct {
	client    objectAPI
	bucket    string
	publicURL string
	now       func() time.Time
}

// Upload параметры загрузки.
type Upload struct {
	Kind        string
	Title       string
	Filename    string
	ContentType string
	Body        io.Reader
}

// Object загруженный объект.
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// New создает S3 клиента по настройкам media. Пустой MediaEndpoint означает AWS.
func New(ctx context.Context, cfg config.Media) (*Storage, error) {
	const op = "media.New"
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.MediaRegion)}
	if cfg.MediaAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.MediaAccessKey, cfg.MediaSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.MediaEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.MediaEndpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.MediaPublicBaseURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.MediaBucket, cfg.MediaRegion)
	}
	return newStorage(client, cfg.MediaBucket, publicURL), nil
}

func newStorage(client objectAPI, bucket, publicURL string) *Storage {
	return &Storage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// ObjectKey строит ключ вида images/<title>_<unix millis>.<ext>.
func ObjectKey(kind, title, filename string, at time.Time) (string, error) {
	if kind != KindImage && kind != KindVideo {
		return "", ErrInvalidKind
	}
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "bin"
	}
	name := unsafeChars.ReplaceAllString(title, "_")
	return kind + "s/" + name + "_" + strconv.FormatInt(at.UnixMilli(), 10) + "." + strings.ToLower(ext), nil
}

// Put загружает файл и возвращает ключ и публичный URL.
func (s *Storage) Put(ctx context.Context, in Upload) (*Object, error) {
	const op = "media.Put"
	key, err := ObjectKey(in.Kind, in.Title, in.Filename, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         in.Body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=3600"),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: upload %s: %w", op, key, err)
	}
	return &Object{Key: key, URL: s.publicURL + "/" + key}, nil
}

// Delete удаляет объект по ключу.
func (s *Storage) Delete(ctx context.Context, key string) error {
	const op = "media.Delete"
	if !validKey(key) {
		return fmt.Errorf("%s: %w", op, ErrInvalidKey)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// KeyOfKind сообщает, лежит ли ключ в каталоге своего вида: images/ для image, videos/ для video.
func KeyOfKind(key, kind string) bool {
	if kind != KindImage && kind != KindVideo {
		return false
	}
	return !strings.Contains(key, "..") && strings.HasPrefix(key, kind+"s/") && len(key) > len(kind)+2
}

func validKey(key string) bool {
	if strings.Contains(key, "..") {
		return false
	}
	return strings.HasPrefix(key, "images/") || strings.HasPrefix(key, "videos/")
}

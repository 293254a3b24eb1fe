// Package tabular stores exported registration tables as CSV documents in S3.
package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"clubevents/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	folderExports  = "exports"
	contentTypeCSV = "text/csv; charset=utf-8"
	defaultExpiry  = 15 * time.Minute
)

// Config holds the export bucket settings.
type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	URLExpiry       time.Duration
}

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Exporter implements domain.TabularExporter. A document is one CSV object under
// exports/<id>.csv.
type S3Exporter struct {
	objects   objectAPI
	presigner presignAPI
	bucket    string
	expiry    time.Duration
	logger    *slog.Logger
}

var _ domain.TabularExporter = (*S3Exporter)(nil)

// NewS3Exporter builds an exporter with static credentials when they are configured.
func NewS3Exporter(cfg Config, logger *slog.Logger) *S3Exporter {
	awsCfg := aws.Config{Region: cfg.Region}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		)
	} else {
		logger.Warn("export bucket client has no static credentials configured")
	}
	client := s3.NewFromConfig(awsCfg)
	return newS3Exporter(client, s3.NewPresignClient(client), cfg.Bucket, cfg.URLExpiry, logger)
}

func newS3Exporter(objects objectAPI, presigner presignAPI, bucket string, expiry time.Duration, logger *slog.Logger) *S3Exporter {
	if expiry <= 0 {
		expiry = defaultExpiry
	}
	return &S3Exporter{objects: objects, presigner: presigner, bucket: bucket, expiry: expiry, logger: logger}
}

// Key returns the object key of a document.
func Key(documentID string) string {
	return path.Join(folderExports, documentID+".csv")
}

// Create stores an empty document titled title and returns its id.
func (e *S3Exporter) Create(ctx context.Context, title string) (string, error) {
	id := uuid.NewString()
	if err := e.put(ctx, id, title, nil); err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	e.logger.DebugContext(ctx, "export document created", "document_id", id, "title", title)
	return id, nil
}

// WriteRange writes rows starting at rng, for example "Sheet1!A1". Rows above the anchor
// are kept; everything from the anchor down is replaced. Writing at row 1 creates the
// document if it does not exist.
func (e *S3Exporter) WriteRange(ctx context.Context, documentID, rng string, rows [][]string) error {
	if err := validateID(documentID); err != nil {
		return err
	}
	startRow, err := parseAnchor(rng)
	if err != nil {
		return err
	}

	existing, title, readErr := e.read(ctx, documentID)
	var kept [][]string
	if startRow > 1 {
		if readErr != nil {
			return fmt.Errorf("read document: %w", readErr)
		}
		if len(existing) > startRow-1 {
			existing = existing[:startRow-1]
		}
		kept = existing
		for len(kept) < startRow-1 {
			kept = append(kept, []string{})
		}
	}

	if err := e.put(ctx, documentID, title, append(kept, rows...)); err != nil {
		return fmt.Errorf("write range %s: %w", rng, err)
	}
	return nil
}

// URL returns a presigned link to download the document.
func (e *S3Exporter) URL(ctx context.Context, documentID string) (string, error) {
	if err := validateID(documentID); err != nil {
		return "", err
	}
	req, err := e.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.bucket),
		Key:    aws.String(Key(documentID)),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = e.expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

func (e *S3Exporter) put(ctx context.Context, documentID, title string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(Key(documentID)),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String(contentTypeCSV),
		ContentLength: aws.Int64(int64(buf.Len())),
	}
	if title != "" {
		input.Metadata = map[string]string{"title": title}
	}
	if _, err := e.objects.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (e *S3Exporter) read(ctx context.Context, documentID string) ([][]string, string, error) {
	out, err := e.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.bucket),
		Key:    aws.String(Key(documentID)),
	})
	if err != nil {
		return nil, "", err
	}
	defer out.Body.Close()
	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", err
	}
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, "", fmt.Errorf("decode csv: %w", err)
	}
	return rows, out.Metadata["title"], nil
}

func validateID(documentID string) error {
	if _, err := uuid.Parse(documentID); err != nil {
		return fmt.Errorf("invalid document id %q", documentID)
	}
	return nil
}

// parseAnchor returns the 1-based start row of an A1-style anchor. Only column A is
// supported.
func parseAnchor(rng string) (int, error) {
	cell := rng
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		cell = rng[i+1:]
	}
	if !strings.HasPrefix(cell, "A") {
		return 0, errors.New("range must start in column A: " + rng)
	}
	row, err := strconv.Atoi(cell[1:])
	if err != nil || row < 1 {
		return 0, fmt.Errorf("invalid range %q", rng)
	}
	return row, nil
}

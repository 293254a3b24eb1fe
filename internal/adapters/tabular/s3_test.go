package tabular

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type storedObject struct {
	body     string
	metadata map[string]string
	ctype    string
}

type fakeBucket struct {
	objects map[string]storedObject
	putErr  error
	expires time.Duration
}

func newFakeBucket() *fakeBucket { return &fakeBucket{objects: map[string]storedObject{}} }

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	raw, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = storedObject{body: string(raw), metadata: in.Metadata, ctype: aws.ToString(in.ContentType)}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(obj.body)), Metadata: obj.metadata}, nil
}

func (f *fakeBucket) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://" + aws.ToString(in.Bucket) + ".s3.amazonaws.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=sig"}, nil
}

func TestS3Exporter_CreateWriteURL(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	e := newS3Exporter(bucket, bucket, "exports-bucket", 30*time.Minute, testLogger)

	id, err := e.Create(ctx, "Event Registrations - Chess Night")
	require.NoError(t, err)
	obj, ok := bucket.objects[Key(id)]
	require.True(t, ok)
	assert.Empty(t, obj.body)
	assert.Equal(t, "Event Registrations - Chess Night", obj.metadata["title"])

	rows := [][]string{
		{"Name", "Email", "Reason", "Status", "Timestamp"},
		{"Ada, L.", "ada@uni.edu", `says "hi"`, "confirmed", "2026-05-01T10:00:00Z"},
	}
	require.NoError(t, e.WriteRange(ctx, id, "Sheet1!A1", rows))
	obj = bucket.objects[Key(id)]
	assert.Equal(t, "Name,Email,Reason,Status,Timestamp\n\"Ada, L.\",ada@uni.edu,\"says \"\"hi\"\"\",confirmed,2026-05-01T10:00:00Z\n", obj.body)
	assert.Equal(t, contentTypeCSV, obj.ctype)

	url, err := e.URL(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, url, "exports-bucket")
	assert.Contains(t, url, "exports/"+id+".csv")
	assert.Equal(t, 30*time.Minute, bucket.expires)
}

func TestS3Exporter_WriteRangeBelowAnchorKeepsRowsAbove(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	e := newS3Exporter(bucket, bucket, "b", 0, testLogger)
	assert.Equal(t, defaultExpiry, e.expiry)

	id, err := e.Create(ctx, "Report")
	require.NoError(t, err)
	require.NoError(t, e.WriteRange(ctx, id, "Sheet1!A1", [][]string{{"h"}, {"old-1"}, {"old-2"}}))
	require.NoError(t, e.WriteRange(ctx, id, "Sheet1!A2", [][]string{{"new-1"}}))

	obj := bucket.objects[Key(id)]
	assert.Equal(t, "h\nnew-1\n", obj.body)
	assert.Equal(t, "Report", obj.metadata["title"])
}

func TestS3Exporter_Errors(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	e := newS3Exporter(bucket, bucket, "b", time.Minute, testLogger)

	t.Run("document id must be a uuid", func(t *testing.T) {
		assert.Error(t, e.WriteRange(ctx, "../../etc/passwd", "A1", nil))
		_, err := e.URL(ctx, "not-a-uuid")
		assert.Error(t, err)
	})

	t.Run("bad anchors", func(t *testing.T) {
		id := "7d3c6a1e-6f5b-4c1a-9a51-0e0f3b2a9c11"
		for _, rng := range []string{"Sheet1!B1", "Sheet1!A0", "Sheet1!Ax", ""} {
			assert.Error(t, e.WriteRange(ctx, id, rng, nil), rng)
		}
	})

	t.Run("missing document below anchor", func(t *testing.T) {
		err := e.WriteRange(ctx, "7d3c6a1e-6f5b-4c1a-9a51-0e0f3b2a9c11", "Sheet1!A3", [][]string{{"x"}})
		assert.ErrorContains(t, err, "read document")
	})

	t.Run("put failure", func(t *testing.T) {
		bucket.putErr = errors.New("AccessDenied")
		defer func() { bucket.putErr = nil }()
		_, err := e.Create(ctx, "x")
		assert.ErrorContains(t, err, "AccessDenied")
	})
}

func TestParseAnchor(t *testing.T) {
	tests := map[string]int{"Sheet1!A1": 1, "A7": 7, "My!Sheet!A12": 12}
	for in, want := range tests {
		got, err := parseAnchor(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

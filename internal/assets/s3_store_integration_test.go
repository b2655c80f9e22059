package assets

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/abgdnv/catalog/internal/ident"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	skipIntegrationTests = "CATALOG_SKIP_INTEGRATION_TESTS"
	minioImg             = "minio/minio:RELEASE.2025-04-22T22-12-26Z"
	minioUser            = "minioadmin"
	minioPassword        = "minioadmin"
	bucket               = "catalog-images"
)

// S3StoreSuite runs S3Store against MinIO.
type S3StoreSuite struct {
	suite.Suite
	ctx       context.Context
	logger    *slog.Logger
	container testcontainers.Container
	client    *s3.Client
	endpoint  string
}

func (s *S3StoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.container, err = testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        minioImg,
			Cmd:          []string{"server", "/data"},
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		},
		Started: true,
	})
	require.NoError(s.T(), err, "Failed to run MinIO container")

	s.endpoint, err = s.container.PortEndpoint(s.ctx, "9000/tcp", "http")
	require.NoError(s.T(), err, "Failed to get MinIO endpoint")

	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider(minioUser, minioPassword, ""),
	}
	s.client = NewS3Client(cfg, s.endpoint)

	_, err = s.client.CreateBucket(s.ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	require.NoError(s.T(), err, "Failed to create bucket")
	s.logger.Info("Initialization complete for S3StoreSuite")
}

func (s *S3StoreSuite) TearDownSuite() {
	if s.container != nil {
		if err := testcontainers.TerminateContainer(s.container); err != nil {
			s.logger.Warn("failed to terminate MinIO container", "error", err)
		}
	}
}

func TestS3StoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(S3StoreSuite))
}

func (s *S3StoreSuite) TestUploadThenDeleteByURL() {
	// given
	store := NewS3Store(s.client, bucket, PublicBaseURL(bucket, "", s.endpoint+"/"+bucket))
	namer := NewNamer("product-images", ident.NewID)
	key := namer.NewKey("photo.png")

	// when
	imageURL, err := store.Upload(s.ctx, key, []byte("png-bytes"), "image/png")

	// then
	require.NoError(s.T(), err)
	obj, err := s.client.GetObject(s.ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	require.NoError(s.T(), err)
	body, err := io.ReadAll(obj.Body)
	_ = obj.Body.Close()
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []byte("png-bytes"), body)
	assert.Equal(s.T(), "image/png", aws.ToString(obj.ContentType))

	// when
	derived, err := namer.KeyFromURL(imageURL)
	require.NoError(s.T(), err)
	require.NoError(s.T(), store.Delete(s.ctx, derived))

	// then
	_, err = s.client.HeadObject(s.ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	assert.Error(s.T(), err, "object must be gone")
	assert.NoError(s.T(), store.Delete(s.ctx, derived), "deleting a missing object is not an error")
}

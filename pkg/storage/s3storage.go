package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/opencost/gputco/pkg/log"
)

// defaultS3RequestTimeout bounds each object operation. Persisted documents are a few KB.
const defaultS3RequestTimeout = 30 * time.Second

// S3Config is the provider section of a bucket storage configuration:
//
//	type: S3
//	prefix: gputco
//	config:
//	  bucket: tco-settings
//	  endpoint: s3.us-east-1.amazonaws.com
//	  region: us-east-1
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Insecure  bool   `yaml:"insecure"`

	// STSEndpoint is used for IAM credentials when no static keys are given.
	STSEndpoint    string        `yaml:"sts_endpoint"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Transport replaces the default HTTP transport; used by tests.
	Transport http.RoundTripper `yaml:"-"`
}

// S3Storage stores objects in an S3 compatible bucket.
type S3Storage struct {
	bucket  string
	client  *minio.Client
	timeout time.Duration
}

// NewS3Storage returns a new S3Storage from a YAML S3Config.
func NewS3Storage(conf []byte) (*S3Storage, error) {
	var config S3Config
	if err := yaml.Unmarshal(conf, &config); err != nil {
		return nil, errors.Wrap(err, "parsing s3 config")
	}

	return NewS3StorageWith(config)
}

// NewS3StorageWith returns a new S3Storage using the provided config values.
func NewS3StorageWith(config S3Config) (*S3Storage, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	var creds *credentials.Credentials
	if config.AccessKey != "" {
		creds = credentials.NewStaticV4(config.AccessKey, config.SecretKey, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{
				Client:   &http.Client{Transport: http.DefaultTransport},
				Endpoint: config.STSEndpoint,
			},
		})
	}

	opts := &minio.Options{
		Creds:  creds,
		Secure: !config.Insecure,
		Region: config.Region,
	}
	if config.Transport != nil {
		opts.Transport = config.Transport
	}

	client, err := minio.New(config.Endpoint, opts)
	if err != nil {
		return nil, errors.Wrap(err, "initialize s3 client")
	}

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultS3RequestTimeout
	}

	return &S3Storage{
		bucket:  config.Bucket,
		client:  client,
		timeout: timeout,
	}, nil
}

func (c S3Config) validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("no s3 endpoint in config file")
	case c.Bucket == "":
		return errors.New("no s3 bucket in config file")
	case (c.AccessKey == "") != (c.SecretKey == ""):
		return errors.New("access_key and secret_key must be set together; omit both to use envvars/IAM")
	}
	return nil
}

func (s3 *S3Storage) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s3.timeout)
}

func (s3 *S3Storage) StorageType() StorageType {
	return StorageTypeBucketS3
}

func (s3 *S3Storage) FullPath(name string) string {
	return trimLeading(name)
}

func (s3 *S3Storage) Read(name string) ([]byte, error) {
	name = trimLeading(name)
	log.Debugf("S3Storage::Read(%s)", name)

	ctx, cancel := s3.context()
	defer cancel()

	obj, err := s3.client.GetObject(ctx, s3.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, s3.wrap(err, "get s3 object")
	}
	defer obj.Close()

	// GetObject is lazy: a missing key surfaces on the first read
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s3.wrap(err, "read s3 object")
	}
	return data, nil
}

func (s3 *S3Storage) Write(name string, data []byte) error {
	name = trimLeading(name)
	log.Debugf("S3Storage::Write(%s)", name)

	ctx, cancel := s3.context()
	defer cancel()

	_, err := s3.client.PutObject(ctx, s3.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	if err != nil {
		return errors.Wrap(err, "upload s3 object")
	}
	return nil
}

func (s3 *S3Storage) Stat(name string) (*StorageInfo, error) {
	name = trimLeading(name)

	ctx, cancel := s3.context()
	defer cancel()

	info, err := s3.client.StatObject(ctx, s3.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		return nil, s3.wrap(err, "stat s3 object")
	}

	return &StorageInfo{
		Name:    trimName(name),
		Size:    info.Size,
		ModTime: info.LastModified,
	}, nil
}

func (s3 *S3Storage) Exists(name string) (bool, error) {
	_, err := s3.Stat(name)
	if IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (s3 *S3Storage) Remove(name string) error {
	name = trimLeading(name)
	log.Debugf("S3Storage::Remove(%s)", name)

	ctx, cancel := s3.context()
	defer cancel()

	return s3.client.RemoveObject(ctx, s3.bucket, name, minio.RemoveObjectOptions{})
}

// List returns the objects directly under dir; nested prefixes are skipped.
func (s3 *S3Storage) List(dir string) ([]*StorageInfo, error) {
	dir = trimLeading(dir)
	log.Debugf("S3Storage::List(%s)", dir)

	if dir != "" {
		dir = strings.TrimSuffix(dir, DirDelim) + DirDelim
	}

	ctx, cancel := s3.context()
	defer cancel()

	var stats []*StorageInfo
	for object := range s3.client.ListObjects(ctx, s3.bucket, minio.ListObjectsOptions{Prefix: dir}) {
		if object.Err != nil {
			return nil, object.Err
		}
		if object.Key == dir || strings.HasSuffix(object.Key, DirDelim) {
			continue
		}

		stats = append(stats, &StorageInfo{
			Name:    trimName(object.Key),
			Size:    object.Size,
			ModTime: object.LastModified,
		})
	}
	return stats, nil
}

// wrap maps missing-key responses to DoesNotExistError.
func (s3 *S3Storage) wrap(err error, msg string) error {
	switch minio.ToErrorResponse(errors.Cause(err)).Code {
	case "NoSuchKey", "NotFoundObject":
		return DoesNotExistError
	}
	return errors.Wrap(err, msg)
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".yaml", ".yml":
		return "application/yaml"
	}
	return "application/octet-stream"
}

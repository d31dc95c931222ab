package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*S3Options)(nil)

type S3Options struct {
	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"access-key-id" mapstructure:"access-key-id"`
	SecretAccessKey string `json:"secret-access-key" mapstructure:"secret-access-key"`
	UseSSL          bool   `json:"use-ssl" mapstructure:"use-ssl"`
	BucketName      string `json:"bucket-name" mapstructure:"bucket-name"`
	Region          string `json:"region" mapstructure:"region"`

	// InsecureSkipVerify accepts self-signed certificates. Development only.
	InsecureSkipVerify bool `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`
}

func NewS3Options() *S3Options {
	return &S3Options{
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		UseSSL:          false,
		BucketName:      "trip-archive",
		Region:          "us-east-1",
	}
}

func (o *S3Options) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.Endpoint == "" {
		errs = append(errs, errors.New("s3.endpoint must not be empty"))
	}
	if o.BucketName == "" {
		errs = append(errs, errors.New("s3.bucket-name must not be empty"))
	}

	return errs
}

func (o *S3Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, join("s3.endpoint", prefixes...), o.Endpoint, "S3 service endpoint (e.g. s3.amazonaws.com or minio.local:9000)")
	fs.StringVar(&o.AccessKeyID, join("s3.access-key-id", prefixes...), o.AccessKeyID, "S3 access key ID")
	fs.StringVar(&o.SecretAccessKey, join("s3.secret-access-key", prefixes...), o.SecretAccessKey, "S3 secret access key")
	fs.BoolVar(&o.UseSSL, join("s3.use-ssl", prefixes...), o.UseSSL, "Enable SSL for S3 connection")
	fs.StringVar(&o.BucketName, join("s3.bucket-name", prefixes...), o.BucketName, "S3 bucket name for trip history archives")
	fs.StringVar(&o.Region, join("s3.region", prefixes...), o.Region, "S3 region")
	fs.BoolVar(&o.InsecureSkipVerify, join("s3.insecure-skip-verify", prefixes...), o.InsecureSkipVerify, "Skip TLS certificate verification for the S3 endpoint.")
}

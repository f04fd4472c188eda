package weights

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrCheckUnavailable is returned when the remote-check breaker is open.
var ErrCheckUnavailable = errors.New("weights: remote checks temporarily unavailable")

const defaultCheckTimeout = 10 * time.Second

// S3API is the slice of the S3 client the checker needs.
type S3API interface {
	HeadObject(ctx context.Context, input *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Checker verifies that a weight reference is reachable. HTTP and catalog
// references are probed with a HEAD request behind a circuit breaker, s3
// references with HeadObject, file references with a stat. Failures are
// reachability findings, not schema errors; callers surface them as
// warnings.
type Checker struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[int]
	s3      S3API
	logger  zerolog.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(client *resty.Client) CheckerOption {
	return func(c *Checker) {
		c.http = client
	}
}

// WithS3Client injects an S3 client. Without one, the checker builds a
// client from the ambient AWS config on the first s3 check.
func WithS3Client(client S3API) CheckerOption {
	return func(c *Checker) {
		c.s3 = client
	}
}

// WithLogger sets the checker logger.
func WithLogger(logger zerolog.Logger) CheckerOption {
	return func(c *Checker) {
		c.logger = logger
	}
}

// NewChecker creates a Checker.
func NewChecker(opts ...CheckerOption) *Checker {
	c := &Checker{
		http:   resty.New().SetTimeout(defaultCheckTimeout),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
		Name: "weight-checks",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("weight check breaker state change")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return c
}

// Check verifies one reference. A nil error means the weights are
// reachable (or the reference is empty and there is nothing to reach).
func (c *Checker) Check(ctx context.Context, ref Reference) error {
	switch ref.Kind {
	case KindNone:
		return nil
	case KindFile:
		return c.checkFile(ref)
	case KindHTTP, KindCatalog:
		return c.checkHTTP(ctx, ref)
	case KindS3:
		return c.checkS3(ctx, ref)
	default:
		return fmt.Errorf("weights: unsupported reference kind %q", ref.Kind)
	}
}

// CheckRaw parses and checks a MODEL.WEIGHT value in one step.
func (c *Checker) CheckRaw(ctx context.Context, raw string) error {
	ref, err := Parse(raw)
	if err != nil {
		return err
	}
	return c.Check(ctx, ref)
}

func (c *Checker) checkFile(ref Reference) error {
	info, err := os.Stat(ref.Path)
	if err != nil {
		return fmt.Errorf("weights: %s: %w", ref.Path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("weights: %s is a directory", ref.Path)
	}
	return nil
}

func (c *Checker) checkHTTP(ctx context.Context, ref Reference) error {
	status, err := c.breaker.Execute(func() (int, error) {
		resp, err := c.http.R().SetContext(ctx).Head(ref.URL)
		if err != nil {
			return 0, err
		}
		if resp.StatusCode() >= 400 {
			return resp.StatusCode(), fmt.Errorf("weights: %s returned %d", ref.URL, resp.StatusCode())
		}
		return resp.StatusCode(), nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCheckUnavailable
	}
	if err != nil {
		return err
	}

	c.logger.Debug().Str("url", ref.URL).Int("status", status).Msg("weight reference reachable")
	return nil
}

func (c *Checker) checkS3(ctx context.Context, ref Reference) error {
	client, err := c.s3Client(ctx)
	if err != nil {
		return err
	}

	_, err = client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return fmt.Errorf("weights: s3://%s/%s: %w", ref.Bucket, ref.Key, err)
	}
	return nil
}

func (c *Checker) s3Client(ctx context.Context) (S3API, error) {
	if c.s3 != nil {
		return c.s3, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("weights: failed to load AWS config: %w", err)
	}
	c.s3 = s3.NewFromConfig(awsCfg)
	return c.s3, nil
}

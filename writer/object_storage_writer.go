/*
 * Copyright (c) 2024 Gates Solutions LLC.
 *
 *      This file is part of podpingd.
 *
 *     podpingd is free software: you can redistribute it and/or modify it under the terms of the GNU Lesser General Public License as published by the Free Software Foundation, either version 3 of the License, or (at your option) any later version.
 *
 *     podpingd is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser General Public License for more details.
 *
 *     You should have received a copy of the GNU Lesser General Public License along with podpingd. If not, see <https://www.gnu.org/licenses/>.
 */

package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/SilasVt/podpingd/hive/podping"
	"github.com/SilasVt/podpingd/hive/scanner"
	"github.com/SilasVt/podpingd/internal/broadcast"
	"github.com/SilasVt/podpingd/internal/errs"
	"github.com/SilasVt/podpingd/internal/log"
	"github.com/SilasVt/podpingd/internal/metrics"
	"github.com/SilasVt/podpingd/internal/watermark"
)

var objectStoreLogger = log.NewModuleLogger(log.ModuleObjectStore)

const (
	contentTypeJSON  = "application/json"
	contentTypePlain = "text/plain"
)

// URLStyle selects bucket addressing, mirroring the source's rusty_s3
// UrlStyle enum (§6 writer.object_storage_url_style).
type URLStyle int

const (
	URLStylePath URLStyle = iota
	URLStyleVirtualHost
)

// objectStatus maps an S3 response onto the status taxonomy of §4.4.3.
type objectStatus int

const (
	statusOK objectStatus = iota
	statusNotFound
	statusAccessDenied
	statusBadRequest
	statusUnknownError
)

func classifyAWSError(err error) objectStatus {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return statusUnknownError
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
		return statusNotFound
	case "Forbidden", "AccessDenied":
		return statusAccessDenied
	case "BadRequest", "InvalidArgument":
		return statusBadRequest
	default:
		if reqErr, ok := err.(awserr.RequestFailure); ok {
			switch reqErr.StatusCode() {
			case 404:
				return statusNotFound
			case 403:
				return statusAccessDenied
			case 400:
				return statusBadRequest
			}
		}
		return statusUnknownError
	}
}

// ObjectStorageWriter persists podpings and the watermark to an
// S3-compatible bucket, per §4.4.3. It is grounded on the original Rust
// writer's hand-rolled rusty-s3 presigned-PUT approach, but replaces it
// with aws-sdk-go's credentialed client: the bucket descriptor, session,
// and S3 client are shared-immutable handles cloned cheaply across the
// worker goroutines that perform concurrent puts within a block (§9).
type ObjectStorageWriter struct {
	client     *s3.S3
	bucketName string
	failFast   bool
}

// ObjectStorageConfig carries the §6 writer.object_storage_* settings plus
// the AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY environment credentials.
type ObjectStorageConfig struct {
	BaseURL    string
	BucketName string
	Region     string
	URLStyle   URLStyle
	AccessKey  string
	SecretKey  string
	// FailFast upgrades individual put failures from "logged and
	// swallowed" to an error that aborts the Syncer, the MAY-upgrade path
	// named in §4.4.3's open policy choice.
	FailFast bool
}

// NewObjectStorageWriter constructs the S3 client and issues the
// construction-time HEAD bucket check of §4.4.3; failure is FatalInit.
func NewObjectStorageWriter(cfg ObjectStorageConfig) (*ObjectStorageWriter, error) {
	awsCfg := aws.NewConfig().
		WithRegion(cfg.Region).
		WithEndpoint(cfg.BaseURL).
		WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")).
		WithS3ForcePathStyle(cfg.URLStyle == URLStylePath)

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errs.FatalInit(err, "creating object storage session")
	}

	w := &ObjectStorageWriter{
		client:     s3.New(sess),
		bucketName: cfg.BucketName,
		failFast:   cfg.FailFast,
	}

	if _, err := w.client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(cfg.BucketName)}); err != nil {
		status := classifyAWSError(err)
		objectStoreLogger.Error("head_bucket failed", "bucket", cfg.BucketName, "status", status, "err", err)
		return nil, errs.FatalInit(err, fmt.Sprintf("accessing bucket %s", cfg.BucketName))
	}

	return w, nil
}

func objectPath(parts ...string) string {
	return strings.Join(parts, "/")
}

func blockPathPrefix(b scanner.Block) string {
	t := b.Timestamp
	return objectPath(
		itoa(t.Year()), itoa(int(t.Month())), itoa(t.Day()),
		itoa(t.Hour()), itoa(t.Minute()), itoa(t.Second()),
	)
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }

// GetLastBlock implements Writer.GetLastBlock by fetching the watermark
// object; a NotFound status is "absent", per §4.4 and §6.
func (w *ObjectStorageWriter) GetLastBlock(ctx context.Context) (uint64, bool, error) {
	out, err := w.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(w.bucketName),
		Key:    aws.String(watermark.Filename),
	})
	if err != nil {
		if classifyAWSError(err) == statusNotFound {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("object storage writer: get watermark: %w", err)
	}
	defer out.Body.Close()

	data, err := ioutil.ReadAll(out.Body)
	if err != nil {
		return 0, false, fmt.Errorf("object storage writer: read watermark body: %w", err)
	}
	block, ok := watermark.Parse(data)
	return block, ok, nil
}

func (w *ObjectStorageWriter) putObject(ctx context.Context, key, contentType string, body []byte) error {
	_, err := w.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	return err
}

// writeBlock dispatches every podping put concurrently via a worker set,
// joining before returning, matching the original's write_join_set +
// join_all pattern (§4.4.3, §5).
func (w *ObjectStorageWriter) writeBlock(ctx context.Context, b scanner.Block) error {
	if len(b.Transactions) == 0 {
		objectStoreLogger.Info("no podpings for block", "block", b.BlockNum)
		return nil
	}

	prefix := blockPathPrefix(b)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, tx := range b.Transactions {
		for i, pp := range tx.Podpings {
			tx, i, pp := tx, i, pp
			key := objectPath(prefix, podpingFilename(b.BlockNum, tx.TxID, i, pp))

			enc, err := json.Marshal(pp)
			if err != nil {
				objectStoreLogger.Error("failed to marshal podping", "block", b.BlockNum, "tx", tx.TxID, "err", err)
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := w.putObject(ctx, key, contentTypeJSON, enc); err != nil {
					objectStoreLogger.Warn("put_object failed for podping", "key", key, "status", classifyAWSError(err), "err", err)
					if w.failFast {
						mu.Lock()
						if firstErr == nil {
							firstErr = err
						}
						mu.Unlock()
					}
				}
			}()
		}
	}
	wg.Wait()

	if w.failFast && firstErr != nil {
		return fmt.Errorf("object storage writer: put failed under fail-fast policy: %w", firstErr)
	}
	return nil
}

func (w *ObjectStorageWriter) writeWatermark(ctx context.Context, block uint64) error {
	if err := w.putObject(ctx, watermark.Filename, contentTypePlain, watermark.Format(block)); err != nil {
		return fmt.Errorf("object storage writer: put watermark: %w", err)
	}
	return nil
}

// Start implements Writer.Start.
func (w *ObjectStorageWriter) Start(ctx context.Context, sub *broadcast.Subscription[scanner.Block]) error {
	for {
		b, signal, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		switch sig := signal.(type) {
		case broadcast.Lagged:
			metrics.WriterLagTotal.Add(float64(sig.N))
			objectStoreLogger.Warn("object storage writer is lagging", "dropped", sig.N)
			continue
		case broadcast.Closed:
			return errs.FatalRuntime(ErrChannelClosed, "object storage writer channel closed while streaming")
		}

		if err := w.writeBlock(ctx, b); err != nil {
			return err
		}
		if err := w.writeWatermark(ctx, b.BlockNum); err != nil {
			return err
		}
		metrics.WriterLastBlock.Set(float64(b.BlockNum))
	}
}

// StartBatch implements Writer.StartBatch: every block in the batch is
// dispatched concurrently, then one watermark put for the batch's highest
// block number (§4.4.3).
func (w *ObjectStorageWriter) StartBatch(ctx context.Context, sub *broadcast.Subscription[[]scanner.Block]) error {
	for {
		batch, signal, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		switch sig := signal.(type) {
		case broadcast.Lagged:
			metrics.WriterLagTotal.Add(float64(sig.N))
			objectStoreLogger.Warn("object storage writer is lagging", "dropped", sig.N)
			continue
		case broadcast.Closed:
			return nil
		}
		if len(batch) == 0 {
			continue
		}

		var wg sync.WaitGroup
		errCh := make(chan error, len(batch))
		for _, b := range batch {
			b := b
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := w.writeBlock(ctx, b); err != nil {
					errCh <- err
				}
			}()
		}
		wg.Wait()
		close(errCh)
		if err, ok := <-errCh; ok {
			return err
		}

		last := batch[len(batch)-1].BlockNum
		if err := w.writeWatermark(ctx, last); err != nil {
			return err
		}
		metrics.WriterLastBlock.Set(float64(last))
	}
}

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/skip2/go-qrcode"
)

// Receipt identifies a submitted render job
type Receipt struct {
	JobID     string `json:"jobId"`
	StatusURL string `json:"statusUrl,omitempty"`
}

// QR renders the status link (or the job id when there is none) as a
// terminal QR code.
func (r *Receipt) QR() (string, error) {
	content := r.StatusURL
	if content == "" {
		content = r.JobID
	}
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}

// QRPNG encodes the status link as a PNG image
func (r *Receipt) QRPNG(size int) ([]byte, error) {
	content := r.StatusURL
	if content == "" {
		content = r.JobID
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}

type Submitter interface {
	Submit(ctx context.Context, p *Payload) (*Receipt, error)
}

func statusURL(base, jobID string) string {
	if base == "" {
		return ""
	}
	if strings.Contains(base, "{jobId}") {
		return strings.ReplaceAll(base, "{jobId}", jobID)
	}
	return strings.TrimRight(base, "/") + "/" + jobID
}

// HTTPSubmitter posts the payload as JSON. The endpoint answers 2xx with a
// body of {"jobId": ...}; an empty body keeps the locally generated id.
type HTTPSubmitter struct {
	Endpoint  string
	StatusURL string
	Client    *http.Client
}

func NewHTTPSubmitter(endpoint, statusURL string) *HTTPSubmitter {
	return &HTTPSubmitter{
		Endpoint:  endpoint,
		StatusURL: statusURL,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPSubmitter) Submit(ctx context.Context, p *Payload) (*Receipt, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit render job: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("submit render job: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	r := &Receipt{JobID: p.JobID}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, r); err != nil {
			return nil, fmt.Errorf("decode render job response: %w", err)
		}
	}
	if r.JobID == "" {
		r.JobID = p.JobID
	}
	if r.StatusURL == "" {
		r.StatusURL = statusURL(s.StatusURL, r.JobID)
	}
	return r, nil
}

// Uploader is the part of manager.Uploader used here
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Submitter drops the payload at s3://Bucket/jobs/<jobId>.json where the
// render worker picks it up.
type S3Submitter struct {
	Bucket    string
	StatusURL string
	uploader  Uploader
}

func NewS3Submitter(client *s3.Client, bucket, statusURL string) *S3Submitter {
	return &S3Submitter{Bucket: bucket, StatusURL: statusURL, uploader: manager.NewUploader(client)}
}

// JobKey is the object key for a job id
func JobKey(jobID string) string {
	return "jobs/" + jobID + ".json"
}

func (s *S3Submitter) Submit(ctx context.Context, p *Payload) (*Receipt, error) {
	body, err := p.JSON()
	if err != nil {
		return nil, err
	}
	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(JobKey(p.JobID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return nil, fmt.Errorf("unable to upload render job to s3, %s, %w", s.Bucket, err)
	}
	return &Receipt{JobID: p.JobID, StatusURL: statusURL(s.StatusURL, p.JobID)}, nil
}

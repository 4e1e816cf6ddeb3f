package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	sc "github.com/dmitrijs2005/ledgerhouse/internal/server/config"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Exporter writes billing statements to object storage and returns a
// time-limited download link.
type Exporter struct {
	audit  *Service
	config *sc.Config
}

func NewExporter(auditSvc *Service, cfg *sc.Config) *Exporter {
	return &Exporter{audit: auditSvc, config: cfg}
}

func exportStorageKey(userID, startDate, endDate string) string {
	return fmt.Sprintf("billing/%s/%s_%s/%v.csv", userID, startDate, endDate, uuid.New())
}

func (e *Exporter) getS3Client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(e.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			e.config.S3RootUser,
			e.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(e.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// ExportBilling renders the user's billing summary and the billable events
// behind it as CSV, uploads it, and returns the object key together with a
// presigned GET URL valid for 15 minutes.
func (e *Exporter) ExportBilling(ctx context.Context, userID, startDate, endDate string) (string, string, error) {
	summary, err := e.audit.BillingSummary(ctx, userID, startDate, endDate)
	if err != nil {
		return "", "", err
	}
	entries, err := e.audit.Activity(ctx, userID, 0)
	if err != nil {
		return "", "", err
	}

	body, err := renderBillingCSV(summary, entries)
	if err != nil {
		return "", "", err
	}

	client, err := e.getS3Client()
	if err != nil {
		return "", "", err
	}

	bucket := e.config.S3Bucket
	key := exportStorageKey(userID, startDate, endDate)
	contentType := "text/csv"

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	}); err != nil {
		return "", "", fmt.Errorf("uploading billing export: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

func renderBillingCSV(summary *models.BillingSummary, entries []models.AuditEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"user_id", "period_start", "period_end", "queries", "uploads", "exports", "backtests", "live_trades", "total"},
		{
			summary.UserID, summary.PeriodStart, summary.PeriodEnd,
			strconv.FormatUint(summary.TotalQueries, 10),
			strconv.FormatUint(summary.TotalUploads, 10),
			strconv.FormatUint(summary.TotalExports, 10),
			strconv.FormatUint(summary.TotalBacktests, 10),
			strconv.FormatUint(summary.TotalLiveTrades, 10),
			strconv.FormatUint(summary.TotalActions, 10),
		},
		{},
		{"event_id", "timestamp", "action", "resource", "detail"},
	}
	for _, entry := range entries {
		if !entry.Action.IsBillable() {
			continue
		}
		if entry.DatePartition < summary.PeriodStart || entry.DatePartition > summary.PeriodEnd {
			continue
		}
		rows = append(rows, []string{
			entry.EventID, entry.Timestamp, entry.Action.String(), entry.Resource, entry.Detail,
		})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

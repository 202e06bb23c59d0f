package ops

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	appconfig "autoecole_go/config"
	"autoecole_go/middleware"
	"autoecole_go/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// retention window before activity logs move from MySQL to S3
const archiveAfterDays = 30

// LogArchiveService flushes buffered logs to the database and ships old
// logs to S3 as zipped JSON batches.
type LogArchiveService struct {
	db     *gorm.DB
	audit  *middleware.ActivityLogger
	cfg    *appconfig.Config
	awsCfg aws.Config
	cron   *cron.Cron
}

func NewLogArchiveService(db *gorm.DB, audit *middleware.ActivityLogger, cfg *appconfig.Config) *LogArchiveService {
	awsCfg, err := awscfg.LoadDefaultConfig(context.Background(), awscfg.WithRegion(cfg.AWSRegion))
	if err != nil {
		logrus.WithError(err).Warn("Failed to load AWS config; log archiving to S3 will fail until configured")
	}

	return &LogArchiveService{
		db:     db,
		audit:  audit,
		cfg:    cfg,
		awsCfg: awsCfg,
	}
}

// Start schedules hourly log maintenance and runs one pass immediately.
func (las *LogArchiveService) Start() {
	go las.runOnce()

	las.cron = cron.New()
	if _, err := las.cron.AddFunc("@hourly", las.runOnce); err != nil {
		logrus.WithError(err).Error("Failed to schedule log maintenance")
		return
	}
	las.cron.Start()
}

// Stop halts the maintenance schedule.
func (las *LogArchiveService) Stop() {
	if las.cron != nil {
		las.cron.Stop()
	}
}

func (las *LogArchiveService) runOnce() {
	if flushed, err := las.audit.Flush(); err != nil {
		logrus.WithError(err).Warn("Activity log flush failed")
	} else if flushed > 0 {
		logrus.Infof("Flushed %d buffered activity logs", flushed)
	}

	if err := las.ArchiveOldLogs(archiveAfterDays); err != nil {
		logrus.WithError(err).Warn("Activity log archive failed")
	}
}

// ArchiveOldLogs zips logs older than the given number of days, uploads the
// batch to S3 and deletes the archived rows.
func (las *LogArchiveService) ArchiveOldLogs(days int) error {
	cutoff := time.Now().AddDate(0, 0, -days)

	var logs []models.ActivityLog
	if err := las.db.Where("created_at < ?", cutoff).Order("created_at").Find(&logs).Error; err != nil {
		return fmt.Errorf("failed to load old logs: %w", err)
	}
	if len(logs) == 0 {
		return nil
	}

	payload, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("failed to encode logs: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create("activity_logs.json")
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}
	if _, err := entry.Write(payload); err != nil {
		return fmt.Errorf("failed to write zip entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip: %w", err)
	}

	key := fmt.Sprintf("log-archives/%s.zip", time.Now().Format("2006/01/02-150405"))
	client := s3.NewFromConfig(las.awsCfg)
	_, err = client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(las.cfg.S3BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}

	record := models.LogArchive{
		ArchiveKey: key,
		FromDate:   logs[0].CreatedAt,
		ToDate:     logs[len(logs)-1].CreatedAt,
		LogCount:   len(logs),
		SizeBytes:  int64(buf.Len()),
	}
	if err := las.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record archive: %w", err)
	}

	if err := las.db.Unscoped().Where("created_at < ?", cutoff).Delete(&models.ActivityLog{}).Error; err != nil {
		return fmt.Errorf("failed to prune archived logs: %w", err)
	}

	logrus.Infof("Archived %d activity logs to %s", len(logs), key)
	return nil
}

package jobs

import (
	"context"
	"fmt"
	"io"

	"github.com/wonny/pennyscan/pkg/httputil"
	"github.com/wonny/pennyscan/pkg/logger"
)

// KeepAliveJob requests the service's own public URL so free-tier hosts
// do not idle it out between scans
type KeepAliveJob struct {
	client   *httputil.Client
	url      string
	schedule string
	logger   *logger.Logger
}

// NewKeepAliveJob creates a new keep-alive job
func NewKeepAliveJob(client *httputil.Client, url, schedule string, log *logger.Logger) *KeepAliveJob {
	return &KeepAliveJob{
		client:   client,
		url:      url,
		schedule: schedule,
		logger:   log.Component("keepalive_job"),
	}
}

// Name returns the job name
func (j *KeepAliveJob) Name() string {
	return "keepalive"
}

// Schedule returns the cron schedule
func (j *KeepAliveJob) Schedule() string {
	return j.schedule
}

// Run pings the URL once
func (j *KeepAliveJob) Run(ctx context.Context) error {
	resp, err := j.client.Get(ctx, j.url)
	if err != nil {
		return fmt.Errorf("keep-alive ping: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return &httputil.StatusError{StatusCode: resp.StatusCode, URL: j.url}
	}

	j.logger.WithField("status_code", resp.StatusCode).Debug("Keep-alive ping ok")
	return nil
}

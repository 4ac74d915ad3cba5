package ipam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/wingedpig/cidrplan/pkg/model"
	"github.com/wingedpig/cidrplan/pkg/util/workers"
)

const (
	defaultTimeout = 30 * time.Second
	defaultWorkers = 4
)

// SubnetRecord is the JSON body posted per subnet to the IPAM endpoint.
type SubnetRecord struct {
	Cidr             string `json:"cidr"`
	AccountName      string `json:"account_name"`
	VpcName          string `json:"vpc_name"`
	CloudProvider    string `json:"cloud_provider"`
	RegionName       string `json:"region_name"`
	AvailabilityZone string `json:"availability_zone"`
	Role             string `json:"role"`
	UsableIPs        uint64 `json:"usable_ips"`
}

// Client pushes generated subnet records to a remote IPAM service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	workers    int
	retry      workers.RetryConfig
}

// NewClient creates an export client. A non-empty token enables bearer
// auth via an oauth2 transport; rateLimit > 0 caps requests per second.
func NewClient(ctx context.Context, baseURL, token, userAgent string, rateLimit float64) *Client {
	httpClient := &http.Client{Timeout: defaultTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = defaultTimeout
	}

	var limiter *rate.Limiter
	if rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(rateLimit), int(rateLimit)+1)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    limiter,
		userAgent:  userAgent,
		workers:    defaultWorkers,
		retry:      workers.DefaultRetryConfig(),
	}
}

// PushAllocation uploads one subnet record, retrying any failed attempt
// (transport error or non-2xx status) with backoff.
func (c *Client) PushAllocation(ctx context.Context, alloc *model.Allocation) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := json.Marshal(toRecord(alloc))
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	url := fmt.Sprintf("%s/subnets", c.baseURL)
	return workers.Retry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			log.Printf("WARN: Rate limited by IPAM server for %s", alloc.SubnetCidr)
			return fmt.Errorf("rate limited by IPAM server")
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			msg, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
		}
		return nil
	})
}

// PushPlan uploads a whole plan concurrently. Failures are aggregated into
// one error carrying the failure count and the first error received;
// successfully pushed records are not rolled back.
func (c *Client) PushPlan(ctx context.Context, allocations []model.Allocation) error {
	tasks := make([]workers.Task, len(allocations))
	for i := range allocations {
		alloc := &allocations[i]
		tasks[i] = func(ctx context.Context) error {
			return c.PushAllocation(ctx, alloc)
		}
	}

	var failed int
	var firstErr error
	for _, result := range workers.Run(ctx, c.workers, tasks) {
		if result.Error != nil {
			failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("record %s: %w", allocations[result.Index].SubnetCidr, result.Error)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to push %d of %d records: %w", failed, len(allocations), firstErr)
	}

	log.Printf("INFO: Pushed %d subnet records to %s", len(allocations), c.baseURL)
	return nil
}

func toRecord(alloc *model.Allocation) SubnetRecord {
	return SubnetRecord{
		Cidr:             alloc.SubnetCidr.String(),
		AccountName:      alloc.AccountName,
		VpcName:          alloc.VpcName,
		CloudProvider:    alloc.CloudProvider,
		RegionName:       alloc.RegionName,
		AvailabilityZone: alloc.AvailabilityZone,
		Role:             alloc.SubnetRole,
		UsableIPs:        alloc.UsableIPs,
	}
}

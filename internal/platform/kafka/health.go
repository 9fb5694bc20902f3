package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// HealthChecker reports whether the cluster answers metadata requests.
type HealthChecker struct {
	admin *kadm.Client
}

func NewHealthChecker(client *kgo.Client) *HealthChecker {
	return &HealthChecker{admin: kadm.NewClient(client)}
}

// Check returns nil if at least one broker is listed.
func (h *HealthChecker) Check(ctx context.Context) error {
	brokers, err := h.admin.ListBrokers(ctx)
	if err != nil {
		return fmt.Errorf("list kafka brokers: %w", err)
	}
	if len(brokers) == 0 {
		return fmt.Errorf("no kafka brokers reachable")
	}
	return nil
}

// Name returns the check name for health reporting.
func (h *HealthChecker) Name() string {
	return "kafka"
}

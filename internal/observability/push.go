package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends the batch metrics to a Prometheus Pushgateway, replacing the
// previous push of the same job and monitor.
func (m *Metrics) Push(ctx context.Context, url, job, monitor string) error {
	p := push.New(url, job).Grouping("monitor", monitor)
	for _, c := range m.batchCollectors() {
		p = p.Collector(c)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// Top K processes by resident memory. Served on demand through the command
// bridge because enumerating every process is too costly to poll.
package collector

import (
	"context"
	"sort"

	"github.com/Guliveer/vitalis/spy/internal/models"
)

// SampleTopProcesses returns at most k processes sorted by RSS descending.
// The snapshot is best-effort: processes that disappear or deny access
// during enumeration are skipped by the provider. Ties keep the provider's
// enumeration order.
func SampleTopProcesses(ctx context.Context, p Provider, k int) (models.TopProcesses, error) {
	if k < 0 {
		k = 0
	}

	procs, err := p.Processes(ctx)
	if err != nil {
		return models.TopProcesses{}, err
	}

	sort.SliceStable(procs, func(i, j int) bool {
		return procs[i].Mem.RSS > procs[j].Mem.RSS
	})

	if len(procs) > k {
		procs = procs[:k]
	}

	return models.TopProcesses(procs), nil
}

// Boot time sampler. Served on demand through the command bridge.
package collector

import (
	"context"

	"github.com/Guliveer/vitalis/spy/internal/models"
)

// SampleBootTime returns the boot timestamp in unix seconds.
func SampleBootTime(ctx context.Context, p Provider) (models.BootTime, error) {
	bt, err := p.BootTime(ctx)
	if err != nil {
		return 0, err
	}
	return models.BootTime(bt), nil
}

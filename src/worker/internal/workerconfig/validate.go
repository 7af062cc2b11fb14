package workerconfig

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
)

func (c Config) Validate() error {
	if err := c.validateQueues(); err != nil {
		return err
	}
	if err := c.validateSeparation(); err != nil {
		return err
	}
	if err := c.validateReaper(); err != nil {
		return err
	}
	return c.validateModels()
}

func (c Config) validateQueues() error {
	if c.Queues.SeparationConsumers < 1 {
		return errors.New("queues.separation_consumers must be at least 1")
	}
	if c.Queues.FastConsumers < 1 {
		return errors.New("queues.fast_consumers must be at least 1")
	}
	if c.Devices.Accelerators < 0 {
		return errors.New("devices.accelerators must not be negative")
	}
	return nil
}

func (c Config) validateSeparation() error {
	switch c.Separation.Isolation {
	case ProcessIsolation, GoroutineIsolation:
	default:
		return fmt.Errorf("separation.isolation must be %q or %q, got %q", ProcessIsolation, GoroutineIsolation, c.Separation.Isolation)
	}
	if c.Separation.Timeout < 0 {
		return errors.New("separation.timeout must not be negative")
	}
	if c.Separation.Attempts < 1 {
		return errors.New("separation.attempts must be at least 1")
	}
	return nil
}

func (c Config) validateReaper() error {
	if !c.Reaper.Enabled {
		return nil
	}
	if c.Reaper.ThresholdMinutes < 1 {
		return errors.New("reaper.threshold_minutes must be at least 1")
	}
	if c.Reaper.IntervalMinutes < 1 {
		return errors.New("reaper.interval_minutes must be at least 1")
	}
	return nil
}

func (c Config) validateModels() error {
	if c.Models.RetryInterval < 0 {
		return errors.New("models.retry_interval must not be negative")
	}

	seen := map[backend.Kind]bool{}
	for i, entry := range c.Models.Catalog {
		if _, ok := backend.ParseKind(string(entry.Kind)); !ok {
			return fmt.Errorf("models.catalog[%d]: unknown backend kind %q", i, entry.Kind)
		}
		if seen[entry.Kind] {
			return fmt.Errorf("models.catalog[%d]: backend %q is listed twice", i, entry.Kind)
		}
		seen[entry.Kind] = true

		if entry.Name == "" {
			return fmt.Errorf("models.catalog[%d]: name is required", i)
		}
		if entry.WeightsURL == "" || entry.ConfigURL == "" {
			return fmt.Errorf("models.catalog[%d]: weights_url and config_url are required", i)
		}
	}
	return nil
}

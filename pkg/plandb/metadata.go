package plandb

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/wingedpig/cidrplan/pkg/model"
	"github.com/wingedpig/cidrplan/pkg/util/ipcodec"
)

const schemaVersion = 1

// Metadata keys
const (
	metaKeySchema           = "schema"
	metaKeyBuiltAt          = "built_at"
	metaKeyPlanID           = "plan_id"
	metaKeyGeneratorVersion = "generator_version"
)

// SetMetadata sets a metadata key-value pair.
func (d *DB) SetMetadata(key, value string) error {
	return d.Put(ipcodec.MetaKey(key), []byte(value))
}

// GetMetadata retrieves a metadata value.
func (d *DB) GetMetadata(key string) (string, error) {
	value, err := d.Get(ipcodec.MetaKey(key))
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return string(value), nil
}

// SetSchemaVersion sets the database schema version.
func (d *DB) SetSchemaVersion(version int) error {
	return d.SetMetadata(metaKeySchema, fmt.Sprintf("%d", version))
}

// GetSchemaVersion retrieves the database schema version.
func (d *DB) GetSchemaVersion() (int, error) {
	value, err := d.GetMetadata(metaKeySchema)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}
	var version int
	if _, err := fmt.Sscanf(value, "%d", &version); err != nil {
		return 0, fmt.Errorf("invalid schema version: %w", err)
	}
	return version, nil
}

// SetBuiltAt sets the plan build timestamp.
func (d *DB) SetBuiltAt(t time.Time) error {
	return d.SetMetadata(metaKeyBuiltAt, t.Format(time.RFC3339))
}

// GetBuiltAt retrieves the plan build timestamp.
func (d *DB) GetBuiltAt() (time.Time, error) {
	value, err := d.GetMetadata(metaKeyBuiltAt)
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

// GetPlanID retrieves the unique ID stamped on the stored plan.
func (d *DB) GetPlanID() (string, error) {
	return d.GetMetadata(metaKeyPlanID)
}

// SetGeneratorVersion sets the generator version (e.g. release or git SHA).
func (d *DB) SetGeneratorVersion(version string) error {
	return d.SetMetadata(metaKeyGeneratorVersion, version)
}

// GetGeneratorVersion retrieves the generator version.
func (d *DB) GetGeneratorVersion() (string, error) {
	return d.GetMetadata(metaKeyGeneratorVersion)
}

// InitializeMetadata stamps a freshly written plan: schema version, build
// time, a new plan ID and the generator version.
func (d *DB) InitializeMetadata(generatorVersion string) error {
	if err := d.SetSchemaVersion(schemaVersion); err != nil {
		return err
	}
	if err := d.SetBuiltAt(time.Now()); err != nil {
		return err
	}
	if err := d.SetMetadata(metaKeyPlanID, uuid.NewString()); err != nil {
		return err
	}
	return d.SetGeneratorVersion(generatorVersion)
}

// Stats aggregates the stored plan by provider and account.
func (d *DB) Stats(ctx context.Context) (*model.PlanStats, error) {
	stats := &model.PlanStats{
		RecordsByCloud:   make(map[string]int64),
		RecordsByAccount: make(map[string]int64),
	}

	version, err := d.GetSchemaVersion()
	if err != nil {
		log.Printf("WARN: Failed to get schema version: %v", err)
	}
	stats.SchemaVersion = version

	builtAt, err := d.GetBuiltAt()
	if err != nil {
		log.Printf("WARN: Failed to get built_at: %v", err)
	}
	stats.LastBuiltAt = builtAt

	planID, err := d.GetPlanID()
	if err != nil {
		log.Printf("WARN: Failed to get plan ID: %v", err)
	}
	stats.PlanID = planID

	generatorVersion, err := d.GetGeneratorVersion()
	if err != nil {
		log.Printf("WARN: Failed to get generator version: %v", err)
	}
	stats.GeneratorVersion = generatorVersion

	err = d.IterateAllocations(func(rec *model.Allocation) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats.TotalRecords++
		stats.RecordsByCloud[rec.CloudProvider]++
		stats.RecordsByAccount[rec.AccountName]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return stats, nil
}

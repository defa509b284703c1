package config

import (
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/intent"
	"github.com/nspcc-dev/spendkit/pkg/storage/dbconfig"
)

// Relation names accepted in the configuration.
const (
	RelationNone       = "none"
	RelationConcurrent = "concurrent"
)

// ApplicationConfiguration config specific to the tool.
type ApplicationConfiguration struct {
	LogLevel        string                   `yaml:"LogLevel"`
	LogPath         string                   `yaml:"LogPath"`
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	// CacheSize is the number of coin records cached by the simulator.
	CacheSize int `yaml:"CacheSize"`
	// Timestamp is the initial ledger time of a fresh ledger.
	Timestamp uint64 `yaml:"Timestamp"`
	// Relation ties spends of the same asset in a bundle: "none" (default)
	// or "concurrent".
	Relation   string       `yaml:"Relation"`
	Prometheus BasicService `yaml:"Prometheus"`
}

// Validate checks the configuration for errors.
func (a ApplicationConfiguration) Validate() error {
	if a.CacheSize < 0 {
		return fmt.Errorf("negative cache size %d", a.CacheSize)
	}
	if _, err := a.GetRelation(); err != nil {
		return err
	}
	switch a.DBConfiguration.Type {
	case dbconfig.InMemoryDB, dbconfig.LevelDB, dbconfig.BoltDB, "":
	default:
		return fmt.Errorf("unknown storage type %q", a.DBConfiguration.Type)
	}
	return nil
}

// GetRelation returns the configured spend relation.
func (a ApplicationConfiguration) GetRelation() (intent.Relation, error) {
	switch a.Relation {
	case "", RelationNone:
		return intent.RelationNone, nil
	case RelationConcurrent:
		return intent.RelationAssertConcurrent, nil
	default:
		return 0, fmt.Errorf("unknown relation %q", a.Relation)
	}
}

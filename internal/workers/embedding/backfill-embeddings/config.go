// internal/workers/embedding/backfill-embeddings/config.go
package backfillembeddings

import "time"

const DefaultCommitInterval = 10

type Config struct {
	// CommitInterval is the number of successful updates per transaction.
	CommitInterval int
	// Dimension is the vector length every written embedding must have.
	Dimension int
	// Timeout bounds the whole run; zero means no deadline.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		CommitInterval: DefaultCommitInterval,
		Dimension:      384,
	}
}

func (c *Config) commitInterval() int {
	if c.CommitInterval <= 0 {
		return DefaultCommitInterval
	}
	return c.CommitInterval
}

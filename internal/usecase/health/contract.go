package health

import "context"

// DBPinger checks storage connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker verifies the embedding provider is reachable.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// ChatChecker verifies the chat service is reachable.
type ChatChecker interface {
	ActiveChannels(ctx context.Context) (map[string]struct{}, error)
}

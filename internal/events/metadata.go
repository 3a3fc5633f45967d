package events

import "context"

const (
	HeaderCorrelationID = "X-Correlation-Id"
	HeaderCausationID   = "X-Causation-Id"
)

// PublishMetadata links a published event to the request that caused it.
type PublishMetadata struct {
	CorrelationID string
	CausationID   string
}

type metadataKey struct{}

func WithMetadata(ctx context.Context, md PublishMetadata) context.Context {
	return context.WithValue(ctx, metadataKey{}, md)
}

func MetadataFromContext(ctx context.Context) PublishMetadata {
	md, _ := ctx.Value(metadataKey{}).(PublishMetadata)
	return md
}

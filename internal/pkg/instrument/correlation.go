package instrument

import "context"

// CorrelationHeader carries the correlation ID across HTTP and message hops.
const CorrelationHeader = "X-Correlation-ID"

type correlationKey struct{}

// GetCorrelationID returns the correlation ID stored in ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

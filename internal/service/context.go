package service

import "context"

type contextKey string

const operatorKey contextKey = "operator"

// OperatorInfo is the authenticated caller of a request.
type OperatorInfo struct {
	UserID   int64
	Username string
	Role     string
	// BasicAuth is set when the caller used the configured admin credentials
	// instead of a user token.
	BasicAuth bool
}

func (o *OperatorInfo) IsAdmin() bool {
	return o != nil && o.Role == "ADMIN"
}

// WithOperator injects the operator info into the context
func WithOperator(ctx context.Context, op *OperatorInfo) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}

// GetOperatorInfo retrieves the operator info from the context
func GetOperatorInfo(ctx context.Context) *OperatorInfo {
	val, ok := ctx.Value(operatorKey).(*OperatorInfo)
	if !ok {
		return nil
	}
	return val
}

// GetOperator returns the operator's username, or "system" for background work.
func GetOperator(ctx context.Context) string {
	op := GetOperatorInfo(ctx)
	if op == nil {
		return "system"
	}
	return op.Username
}

const requestMetaKey contextKey = "request_meta"

// RequestMeta identifies the HTTP request a service call belongs to.
type RequestMeta struct {
	TraceID string
	IP      string
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey, meta)
}

// GetRequestMeta returns the zero value outside a request.
func GetRequestMeta(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey).(RequestMeta)
	return meta
}

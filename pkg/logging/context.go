package logging

import (
	"context"
)

type contextKey string

const (
	traceIDKey        contextKey = "trace_id"
	appIDKey          contextKey = "app_id"
	conversationIDKey contextKey = "conversation_id"
	eventKey          contextKey = "event"
	serviceNameKey    contextKey = "service_name"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func WithAppID(ctx context.Context, appID string) context.Context {
	return context.WithValue(ctx, appIDKey, appID)
}

func WithConversationID(ctx context.Context, conversationID string) context.Context {
	return context.WithValue(ctx, conversationIDKey, conversationID)
}

func WithEvent(ctx context.Context, event string) context.Context {
	return context.WithValue(ctx, eventKey, event)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, serviceNameKey, serviceName)
}

func GetTraceID(ctx context.Context) string {
	return getString(ctx, traceIDKey)
}

func GetAppID(ctx context.Context) string {
	return getString(ctx, appIDKey)
}

func GetConversationID(ctx context.Context) string {
	return getString(ctx, conversationIDKey)
}

func GetEvent(ctx context.Context) string {
	return getString(ctx, eventKey)
}

func GetServiceName(ctx context.Context) string {
	return getString(ctx, serviceNameKey)
}

func getString(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetLogFields returns the identifying fields stored in ctx as zap
// key/value pairs.
func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 10)

	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, "trace_id", traceID)
	}

	if appID := GetAppID(ctx); appID != "" {
		fields = append(fields, "app_id", appID)
	}

	if conversationID := GetConversationID(ctx); conversationID != "" {
		fields = append(fields, "conversation_id", conversationID)
	}

	if event := GetEvent(ctx); event != "" {
		fields = append(fields, "event", event)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	return fields
}

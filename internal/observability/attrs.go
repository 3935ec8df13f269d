package observability

import "go.opentelemetry.io/otel/attribute"

func attrString(key, value string) attribute.KeyValue { return attribute.String(key, value) }
func attrInt(key string, value int) attribute.KeyValue { return attribute.Int(key, value) }

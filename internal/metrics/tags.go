package metrics

import "fmt"

// Tag formats a DataDog "key:value" tag.
func Tag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}

// NamespaceTag tags a cache namespace.
func NamespaceTag(namespace string) string {
	return Tag("namespace", namespace)
}

// TierTag tags the cache tier (memory/persistent).
func TierTag(tier string) string {
	return Tag("tier", tier)
}

// StrategyTag tags the eviction strategy (lru/fifo).
func StrategyTag(strategy string) string {
	return Tag("strategy", strategy)
}

// OperationTag tags an operation name.
func OperationTag(op string) string {
	return Tag("operation", op)
}

// OutcomeTag tags an outcome (success/failure).
func OutcomeTag(outcome string) string {
	return Tag("outcome", outcome)
}

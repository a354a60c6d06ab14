package logging

// Common field constructors for the conversion domain.

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float64 field
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Any creates a field holding an arbitrary value
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Component tags log entries with the emitting converter component
func Component(name string) Field {
	return Field{Key: "component", Value: name}
}

// Node tags log entries with a topology node id
func Node(id string) Field {
	return Field{Key: "node", Value: id}
}

// Port tags log entries with a port id
func Port(id string) Field {
	return Field{Key: "port", Value: id}
}

// Rule tags log entries with a flow rule id
func Rule(id int) Field {
	return Field{Key: "flowrule", Value: id}
}

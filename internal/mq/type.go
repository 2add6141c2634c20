package mq

import "strings"

// Type identifies which backend implementation handles a queue.
// The string values are wire-stable and lowercase.
type Type string

const (
	// TypeInProcess is the in-process FIFO backend. Its wire value is kept
	// as "java" for compatibility with existing clients.
	TypeInProcess Type = "java"

	// TypeRedis is the remote list-store backend
	TypeRedis Type = "redis"

	// TypeRabbitMQ is the broker backend
	TypeRabbitMQ Type = "rabbitmq"
)

// Types returns every supported backend type
func Types() []Type {
	return []Type{TypeInProcess, TypeRedis, TypeRabbitMQ}
}

// ParseType resolves a backend type from an arbitrary string.
// Matching is case-insensitive; empty or unknown input resolves to
// TypeInProcess and never fails.
func ParseType(s string) Type {
	s = strings.TrimSpace(s)
	for _, t := range Types() {
		if strings.EqualFold(string(t), s) {
			return t
		}
	}
	return TypeInProcess
}

// Valid reports whether t is one of the supported backend types
func (t Type) Valid() bool {
	switch t {
	case TypeInProcess, TypeRedis, TypeRabbitMQ:
		return true
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// queueKey is the identity of a queue: "<type>:<name>"
func queueKey(t Type, name string) string {
	return string(t) + ":" + name
}

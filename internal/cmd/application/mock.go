// Package application holds test doubles for cmd/application.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/uppbod"
	app "github.com/agentstation/uppbod/cmd/application"
	"github.com/agentstation/uppbod/pkg/reconciler"
	"github.com/agentstation/uppbod/pkg/sync"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	ClientFunc       func(opts ...uppbod.Option) (*uppbod.Client, error)
	SyncOptionsFunc  func() []sync.Option
	StatusFieldFunc  func() string
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Client returns a client using the mock function or nil.
func (m *Mock) Client(opts ...uppbod.Option) (*uppbod.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(opts...)
	}
	return nil, nil
}

// SyncOptions returns run options using the mock function or none.
func (m *Mock) SyncOptions() []sync.Option {
	if m.SyncOptionsFunc != nil {
		return m.SyncOptionsFunc()
	}
	return nil
}

// StatusField returns the status column using the mock function or the default.
func (m *Mock) StatusField() string {
	if m.StatusFieldFunc != nil {
		return m.StatusFieldFunc()
	}
	return reconciler.DefaultStatusField
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builder using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}

var _ app.Application = (*Mock)(nil)

// Package transaction tracks cleanup actions for an in-flight install so a
// mid-pipeline failure can undo temp files and partially placed artifacts.
package transaction

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// UndoFunc reverses one operation.
type UndoFunc func() error

type operation struct {
	name string
	undo UndoFunc
}

// Manager holds a stack of undo operations for one install run.
type Manager struct {
	mu     sync.Mutex
	ops    []operation
	logger *zerolog.Logger
}

// NewManager creates a transaction manager.
func NewManager(logger *zerolog.Logger) *Manager {
	return &Manager{logger: logger}
}

// Add registers an undo operation. Operations run in reverse order on
// rollback.
func (m *Manager) Add(name string, undo UndoFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, operation{name: name, undo: undo})
}

// Rollback runs all registered undo operations LIFO and clears the stack.
// Individual failures are collected; rollback always attempts every entry.
func (m *Manager) Rollback() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ops) == 0 {
		return nil
	}

	if m.logger != nil {
		m.logger.Info().Int("operations", len(m.ops)).Msg("rolling back install")
	}

	var errs []error
	for i := len(m.ops) - 1; i >= 0; i-- {
		op := m.ops[i]
		if m.logger != nil {
			m.logger.Debug().Str("operation", op.name).Msg("undoing")
		}
		if err := op.undo(); err != nil {
			errs = append(errs, fmt.Errorf("undo %q: %w", op.name, err))
			if m.logger != nil {
				m.logger.Error().Err(err).Str("operation", op.name).Msg("undo failed")
			}
		}
	}

	m.ops = nil

	if len(errs) > 0 {
		return fmt.Errorf("rollback completed with errors: %v", errs)
	}
	return nil
}

// Commit clears the stack, confirming the install succeeded.
func (m *Manager) Commit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = nil
}

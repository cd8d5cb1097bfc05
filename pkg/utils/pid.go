package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// PIDManager writes and removes the process ID file for long-running
// daemons such as the deployment worker.
type PIDManager struct {
	pidFile string
}

// NewPIDManager creates a PIDManager for the given file path.
func NewPIDManager(pidFile string) *PIDManager {
	return &PIDManager{pidFile: pidFile}
}

// WritePID writes the current process ID to the PID file, creating the
// parent directory when needed.
func (p *PIDManager) WritePID() error {
	if err := os.MkdirAll(filepath.Dir(p.pidFile), 0755); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	return os.WriteFile(p.pidFile, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

// RemovePID removes the PID file.
func (p *PIDManager) RemovePID() error {
	return os.Remove(p.pidFile)
}

// GetPIDFile returns the PID file path.
func (p *PIDManager) GetPIDFile() string {
	return p.pidFile
}

//go:build !windows

package geometry

// DefaultSources returns the screen source; window geometry is not queried here.
func DefaultSources() []Source {
	return []Source{screenSource()}
}

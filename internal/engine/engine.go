// Package engine wraps the external tagged-data processing engine (Arelle)
// behind a session-scoped boundary. A session owns the scratch state of one
// run: the captured log buffer, the facts export and the engine's cache and
// config directories, all of which are released by Close.
package engine

import (
	"context"
	"strings"
)

// Fact is one tagged value the engine exported for a filing. Name is the
// qualified tag name as the engine reports it, either prefix:LocalName or
// {namespace-uri}LocalName.
type Fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LocalName strips the namespace qualifier from the fact's tag name.
func (f Fact) LocalName() string {
	name := f.Name
	if i := strings.LastIndex(name, "}"); i >= 0 {
		return name[i+1:]
	}
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Options configures a single engine run.
type Options struct {
	// EntrypointFile is the primary document the engine loads.
	EntrypointFile string
	// Packages are taxonomy package archives made available to the run.
	Packages []string
	// Plugins to activate, by name.
	Plugins []string
	// PluginOptions are extra long-form flags contributed by plugins,
	// keyed by flag name without the leading dashes. An empty value
	// renders as a bare switch.
	PluginOptions map[string]string
	// LogFormat is the engine's log line format.
	LogFormat string
	// DisablePersistentConfig keeps the run from touching shared engine
	// state outside the session scratch.
	DisablePersistentConfig bool
}

// Session is one scoped engine run. Run may be called once; Logs is valid
// at any point after Run returns, including on failure. Close must always
// be called.
type Session interface {
	// Run executes the engine. The boolean is the engine's own verdict;
	// a non-nil error means the engine could not be run at all.
	Run(ctx context.Context) (bool, error)
	// Logs returns everything the engine wrote while running.
	Logs() string
	// Facts loads the facts the engine exported during a successful run.
	Facts() ([]Fact, error)
	// Close releases the session scratch.
	Close() error
}

// Engine opens engine sessions. The production implementation shells out
// to the Arelle command line; tests substitute their own.
type Engine interface {
	OpenSession(opts Options) (Session, error)
}

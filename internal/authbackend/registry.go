package authbackend

import "sync"

var (
	registryMu sync.Mutex
	registered Backend
)

// Register installs a plugin backend. It must be called before the
// coordinator is constructed; once selected, the backend is fixed for the
// life of the process. A second registration replaces the first, which only
// matters in tests.
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registered = b
}

// Registered returns the plugin backend, if one was registered.
func Registered() (Backend, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registered, registered != nil
}

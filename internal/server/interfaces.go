package server

// Server is the lifecycle contract of a transport server hosting the sync
// API. RunServer blocks until shutdown is requested; Shutdown drains
// in-flight sync calls before releasing the listener.
type Server interface {
	RunServer()
	Shutdown()
}

// Package service runs long-lived subsystems in dependency order
package service

// Service is a subsystem the Hub owns from construction to shutdown
// The hub calls Init on every service, then Start, and Stop in reverse order on exit
type Service interface {
	// Name is the key other services list in Dependencies
	Name() string

	// Dependencies names services whose Init and Start run first
	Dependencies() []string

	// Init receives the args given at registration, typed per service
	Init(args ...any) error

	// Start runs after every registered service has initialized
	Start() error

	// Stop releases everything Start acquired; repeated calls return nil
	Stop() error
}

// ResourcePublisher receives a runtime handle; the receiver switches on its type
type ResourcePublisher func(resource any)

// ResourceContributor is optional; services without it are skipped by ContributeAll
type ResourceContributor interface {
	Contribute(publish ResourcePublisher)
}

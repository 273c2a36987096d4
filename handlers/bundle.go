package handlers

import (
	dispatchRepo "fixitquick/database/repository/dispatch"
	providerRepo "fixitquick/database/repository/provider"
	"fixitquick/services/dispatch"
)

// HandlerBundle groups the endpoint handlers and their shared dependencies.
type HandlerBundle struct {
	Coordinator  dispatch.Coordinator
	Repo         dispatchRepo.DispatchRepository
	ProviderRepo providerRepo.ProviderRepository
	Events       *dispatch.Broker
}

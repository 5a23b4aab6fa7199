package models

var (
	Providers           = register(Endpoint{App: "circuits", Model: "providers"})
	ProviderNetworks    = register(Endpoint{App: "circuits", Model: "provider-networks"})
	CircuitTypes        = register(Endpoint{App: "circuits", Model: "circuit-types"})
	Circuits            = register(Endpoint{App: "circuits", Model: "circuits", Loners: []string{"^cid$"}})
	CircuitTerminations = register(Endpoint{App: "circuits", Model: "circuit-terminations"})
)

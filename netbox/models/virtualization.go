package models

var (
	VirtualMachines = register(Endpoint{App: "virtualization", Model: "virtual-machines"})
	VMInterfaces    = register(Endpoint{App: "virtualization", Model: "interfaces"})
	Clusters        = register(Endpoint{App: "virtualization", Model: "clusters"})
)

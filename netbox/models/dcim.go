package models

var (
	Sites          = register(Endpoint{App: "dcim", Model: "sites"})
	SiteGroups     = register(Endpoint{App: "dcim", Model: "site-groups"})
	Regions        = register(Endpoint{App: "dcim", Model: "regions"})
	Locations      = register(Endpoint{App: "dcim", Model: "locations"})
	Racks          = register(Endpoint{App: "dcim", Model: "racks"})
	Manufacturers  = register(Endpoint{App: "dcim", Model: "manufacturers"})
	Platforms      = register(Endpoint{App: "dcim", Model: "platforms"})
	DeviceRoles    = register(Endpoint{App: "dcim", Model: "device-roles"})
	DeviceTypes    = register(Endpoint{App: "dcim", Model: "device-types"})
	Devices        = register(Endpoint{App: "dcim", Model: "devices"})
	Interfaces     = register(Endpoint{App: "dcim", Model: "interfaces", Loners: []string{"^device_id$", "^mac_address$"}})
	FrontPorts     = register(Endpoint{App: "dcim", Model: "front-ports"})
	RearPorts      = register(Endpoint{App: "dcim", Model: "rear-ports"})
	Cables         = register(Endpoint{App: "dcim", Model: "cables"})
	ConsolePorts   = register(Endpoint{App: "dcim", Model: "console-ports"})
	PowerPorts     = register(Endpoint{App: "dcim", Model: "power-ports"})
	VirtualChassis = register(Endpoint{App: "dcim", Model: "virtual-chassis"})
)

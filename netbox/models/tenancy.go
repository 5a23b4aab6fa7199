package models

var (
	Tenants      = register(Endpoint{App: "tenancy", Model: "tenants"})
	TenantGroups = register(Endpoint{App: "tenancy", Model: "tenant-groups"})
	Contacts     = register(Endpoint{App: "tenancy", Model: "contacts"})

	Tags = register(Endpoint{App: "extras", Model: "tags"})
)

// Package resource declares the instance-metadata record types served by the
// mock: instances, keypairs and credentials. Each type is a schema composed
// from the shared base, registered once at package initialization.
package resource

import (
	"github.com/google/uuid"

	"github.com/alexcoman/arestor/model"
)

// Base carries the fields shared by every resource. resource_id gets a fresh
// unique value per record through its default factory.
var Base = model.NewSchema("Base",
	model.Field{
		Name: "resource_id",
		Key:  "resource_id",
		Kind: model.String,
		DefaultFunc: func() any {
			return uuid.NewString()
		},
	},
)

// Instance describes one mocked compute instance.
var Instance = Base.Extend("Instance",
	model.Field{Name: "name", Key: "name", Kind: model.String, Required: true},
	model.Field{Name: "hostname", Key: "hostname", Kind: model.String},
	model.Field{Name: "availability_zone", Key: "availability_zone", Kind: model.String},
	model.Field{Name: "project_id", Key: "project_id", Kind: model.String},
	model.Field{Name: "launch_index", Key: "launch_index", Kind: model.Int, Default: int64(0)},
	model.Field{Name: "random_seed", Key: "random_seed", Kind: model.String},
	model.Field{Name: "user_data", Key: "user_data", Kind: model.String},
	model.Field{
		Name: "metadata",
		Key:  "metadata",
		Kind: model.Map,
		DefaultFunc: func() any {
			return map[string]any{}
		},
	},
)

// Keypair describes a public key made available to instances.
var Keypair = Base.Extend("Keypair",
	model.Field{Name: "name", Key: "name", Kind: model.String, Required: true},
	model.Field{Name: "public_key", Key: "public_key", Kind: model.String, Required: true},
	model.Field{Name: "fingerprint", Key: "fingerprint", Kind: model.String},
	model.Field{Name: "key_type", Key: "key_type", Kind: model.String, Default: "ssh"},
)

// Credential carries per-user secrets. The payload fields hold whatever the
// cipher collaborator produced; the user is fixed once the record exists.
var Credential = Base.Extend("Credential",
	model.Field{Name: "user", Key: "user", Kind: model.String, Required: true, ReadOnly: true},
	model.Field{Name: "password", Key: "password", Kind: model.String},
	model.Field{Name: "x509_cert", Key: "x509_cert", Kind: model.String},
)

// Registry holds every resource schema, keyed by record type name, for
// request layers that dispatch raw payloads by type.
var Registry = newRegistry()

func newRegistry() *model.Registry {
	r := model.NewRegistry()
	r.Register(Instance)
	r.Register(Keypair)
	r.Register(Credential)
	return r
}

// NewInstance creates a store-bound Instance record from the given fields.
func NewInstance(store model.Store, fields map[string]any) (*model.Record, error) {
	return model.NewWithStore(Instance, store, fields)
}

// NewKeypair creates a store-bound Keypair record from the given fields.
func NewKeypair(store model.Store, fields map[string]any) (*model.Record, error) {
	return model.NewWithStore(Keypair, store, fields)
}

// NewCredential creates a store-bound Credential record from the given fields.
func NewCredential(store model.Store, fields map[string]any) (*model.Record, error) {
	return model.NewWithStore(Credential, store, fields)
}

package weather

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ProvisionResult tells what Provision found or did.
type ProvisionResult struct {
	Index   string
	Existed bool
	Created bool
}

// Provisioner makes sure the target index exists with the expected schema.
// It is meant to run once per process, before the first cycle.
type Provisioner struct {
	store  Store
	index  string
	schema IndexSchema
	log    *zap.SugaredLogger
}

// NewProvisioner creates a Provisioner for index using schema.
func NewProvisioner(store Store, index string, schema IndexSchema, log *zap.SugaredLogger) *Provisioner {
	return &Provisioner{
		store:  store,
		index:  index,
		schema: schema,
		log:    log,
	}
}

// Provision checks for the index and creates it when absent. If the existence
// check fails no creation is attempted and the *StoreError is returned.
// An existing index is never updated.
func (p *Provisioner) Provision(ctx context.Context) (ProvisionResult, error) {
	res := ProvisionResult{Index: p.index}

	exists, err := p.store.IndexExists(ctx, p.index)
	if err != nil {
		p.log.Errorw("provisioner: index existence check failed", "index", p.index, "error", err)
		return res, err
	}
	if exists {
		p.log.Infow("provisioner: index already present", "index", p.index)
		res.Existed = true
		return res, nil
	}

	if err := p.store.CreateIndex(ctx, p.index, p.schema); err != nil {
		// Someone else created it between our check and our create.
		if errors.Is(err, ErrIndexAlreadyExists) {
			p.log.Infow("provisioner: index created concurrently", "index", p.index)
			res.Existed = true
			return res, nil
		}
		p.log.Errorw("provisioner: index creation failed", "index", p.index, "error", err)
		return res, err
	}

	p.log.Infow("provisioner: index created", "index", p.index,
		"shards", p.schema.Shards, "replicas", p.schema.Replicas)
	res.Created = true
	return res, nil
}

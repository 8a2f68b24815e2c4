package weather

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProvision(t *testing.T) {
	storeDown := &StoreError{Op: "exists", Index: DefaultIndex, Err: errors.New("connection refused")}
	createFailed := &StoreError{Op: "create", Index: DefaultIndex, StatusCode: 400, Err: errors.New("bad mapping")}
	raced := &StoreError{Op: "create", Index: DefaultIndex, StatusCode: 400, Err: ErrIndexAlreadyExists}

	tests := []struct {
		name        string
		store       *fakeStore
		wantCreates int
		wantResult  ProvisionResult
		wantErr     error
	}{
		{
			name:        "index absent is created once",
			store:       &fakeStore{exists: false},
			wantCreates: 1,
			wantResult:  ProvisionResult{Index: DefaultIndex, Created: true},
		},
		{
			name:        "index present is left alone",
			store:       &fakeStore{exists: true},
			wantCreates: 0,
			wantResult:  ProvisionResult{Index: DefaultIndex, Existed: true},
		},
		{
			// Inherited behaviour: an inconclusive check never leads to a create.
			name:        "existence check failure skips creation",
			store:       &fakeStore{existsErr: storeDown},
			wantCreates: 0,
			wantResult:  ProvisionResult{Index: DefaultIndex},
			wantErr:     storeDown,
		},
		{
			name:        "creation failure is reported",
			store:       &fakeStore{createErr: createFailed},
			wantCreates: 1,
			wantResult:  ProvisionResult{Index: DefaultIndex},
			wantErr:     createFailed,
		},
		{
			name:        "concurrent creation counts as existing",
			store:       &fakeStore{createErr: raced},
			wantCreates: 1,
			wantResult:  ProvisionResult{Index: DefaultIndex, Existed: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvisioner(tt.store, DefaultIndex, DefaultIndexSchema(), zap.NewNop().Sugar())

			res, err := p.Provision(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsStoreError(err))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantResult, res)
			assert.Equal(t, 1, tt.store.existsCalls)
			assert.Len(t, tt.store.created, tt.wantCreates)
		})
	}
}

func TestProvision_CreatesWithDefaultSchema(t *testing.T) {
	fs := &fakeStore{}
	p := NewProvisioner(fs, DefaultIndex, DefaultIndexSchema(), zap.NewNop().Sugar())

	_, err := p.Provision(context.Background())
	require.NoError(t, err)
	require.Len(t, fs.created, 1)

	schema := fs.created[0]
	assert.Equal(t, 1, schema.Shards)
	assert.Equal(t, 0, schema.Replicas)
	assert.Equal(t, "geo_point", schema.Properties["coord"].Type)
}

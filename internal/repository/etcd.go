package repository

import (
	"context"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// EtcdToolRepository satisfies workflow.ToolLookup by reading a tool's
// deprecated flag from etcd under toolKeyPrefix+toolID. An unreachable
// cluster surfaces as repository_unavailable — the fail-closed path of
// spec.md §4.1, not a not-found.
type EtcdToolRepository struct {
	client     *clientv3.Client
	keyPrefix  string
	timeout    time.Duration
}

const defaultToolKeyPrefix = "/substrate/tools/"

// NewEtcdToolRepository dials endpoints with clientv3's default dial
// timeout handling.
func NewEtcdToolRepository(endpoints []string, dialTimeout time.Duration) (*EtcdToolRepository, error) {
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	cli, err := clientv3.New(clientv3.Config{Endpoints: endpoints, DialTimeout: dialTimeout})
	if err != nil {
		return nil, valueobjects.Wrap(valueobjects.ErrRepositoryUnavailable, err)
	}
	return &EtcdToolRepository{client: cli, keyPrefix: defaultToolKeyPrefix, timeout: dialTimeout}, nil
}

// Lookup reports a tool's deprecated flag from its etcd value ("deprecated"
// or anything else meaning active); a request-level timeout or connection
// failure is wrapped as repository_unavailable rather than ok=false, so
// callers never mistake an outage for a genuinely-missing tool.
func (r *EtcdToolRepository) Lookup(ctx context.Context, toolID string) (deprecated bool, ok bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.Get(ctx, r.keyPrefix+toolID)
	if err != nil {
		return false, false, valueobjects.Wrap(valueobjects.ErrRepositoryUnavailable, err)
	}
	if len(resp.Kvs) == 0 {
		return false, false, nil
	}
	return strings.TrimSpace(string(resp.Kvs[0].Value)) == "deprecated", true, nil
}

// Put writes a tool's status, for admin-surface use.
func (r *EtcdToolRepository) Put(ctx context.Context, toolID, status string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.client.Put(ctx, r.keyPrefix+toolID, status); err != nil {
		return valueobjects.Wrap(valueobjects.ErrRepositoryUnavailable, err)
	}
	return nil
}

func (r *EtcdToolRepository) Close() error { return r.client.Close() }

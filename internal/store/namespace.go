package store

import "context"

type namespaced struct {
	kv     KV
	prefix string
}

// Namespace scopes every key of kv under ns. Closing the namespace does not close kv.
func Namespace(kv KV, ns string) KV {
	return &namespaced{kv: kv, prefix: ns + "/"}
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.kv.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.kv.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.kv.Delete(ctx, n.prefix+key)
}

func (n *namespaced) DeletePrefix(ctx context.Context, prefix string) error {
	return n.kv.DeletePrefix(ctx, n.prefix+prefix)
}

func (n *namespaced) Close() error { return nil }

package family

// SnapshotKey is the key the tree is stored under.
const SnapshotKey = "familyTreeData"

// KeyValue is the slice of a key-value store the tree needs.
// Get returns nil, nil for a missing key.
type KeyValue interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// SaveTo writes the snapshot to kv. Failures are logged, never returned:
// an unsaved edit must not interrupt the session.
func (t *Tree) SaveTo(kv KeyValue) {
	data, err := t.ExportJSON()
	if err != nil {
		t.log.Error("Failed to save", "error", err)
		return
	}
	if err := kv.Put(SnapshotKey, data); err != nil {
		t.log.Error("Failed to save", "error", err)
		return
	}
	t.log.Info("Saved", "bytes", len(data))
}

// LoadFrom restores the snapshot stored in kv. It reports false when nothing
// was stored. A malformed stored snapshot leaves the tree unchanged.
func (t *Tree) LoadFrom(kv KeyValue) (bool, error) {
	data, err := kv.Get(SnapshotKey)
	if err != nil {
		t.log.Error("Failed to load", "error", err)
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := t.ImportJSON(data); err != nil {
		return false, err
	}
	t.log.Info("Loaded", "personCount", t.Len())
	return true, nil
}

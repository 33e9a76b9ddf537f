package client

import "github.com/google/uuid"

const sessionKey = "traceflow_session_id"

// SessionID returns the stable session identifier held in the store,
// generating and persisting a new one on first use. A storage failure degrades
// to a fresh unpersisted identifier so callers never have to handle an error.
func SessionID(store Storage) string {
	if raw, ok, err := store.Get(sessionKey); err == nil && ok && len(raw) > 0 {
		return string(raw)
	}
	id := uuid.NewString()
	_ = store.Set(sessionKey, []byte(id))
	return id
}

// ResetSessionID discards the persisted identifier and returns a new one.
func ResetSessionID(store Storage) string {
	_ = store.Delete(sessionKey)
	return SessionID(store)
}

package services

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/lexvia/lexvia-web-ui/internal/models"
)

// BoltDB is the local advisory cache. It keeps the last reconciled
// conversation per chat session so a reopened chat renders instantly while the
// authoritative state fetch is in flight, and remembers recently opened cases
// per user. Reconciliation always overwrites it; nothing here is a source of
// truth.
type BoltDB struct {
	db *bolt.DB
}

var (
	conversationsBucket = []byte("conversations")
	recentCasesBucket   = []byte("recent-cases")
)

// NewBoltDB opens the cache file at path, creating it with 0600 permissions if
// needed, and ensures its buckets exist.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(conversationsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(recentCasesBucket)
		return err
	})

	return BoltDB{db: db}, err
}

// Conversation returns the cached conversation for a session id. The second
// return value reports whether a snapshot was present.
func (b BoltDB) Conversation(_ context.Context, sessionID string) (models.Conversation, bool, error) {
	var (
		conv  models.Conversation
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(conversationsBucket)
		if bkt == nil {
			return nil
		}
		v := bkt.Get([]byte(sessionID))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &conv); err != nil {
			return fmt.Errorf("failed to unmarshal conversation: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return models.Conversation{}, false, err
	}
	return conv, found, nil
}

// SaveConversation stores a conversation snapshot keyed by its session id.
func (b BoltDB) SaveConversation(_ context.Context, conv models.Conversation) error {
	if conv.SessionID == "" {
		return fmt.Errorf("conversation has no session id")
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(conversationsBucket)
		if bkt == nil {
			return nil
		}
		v, err := json.Marshal(conv)
		if err != nil {
			return fmt.Errorf("failed to marshal conversation: %w", err)
		}
		return bkt.Put([]byte(conv.SessionID), v)
	})
}

// DeleteConversation drops the cached snapshot for a session id, if any.
func (b BoltDB) DeleteConversation(_ context.Context, sessionID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(conversationsBucket)
		if bkt == nil {
			return nil
		}
		return bkt.Delete([]byte(sessionID))
	})
}

// RecentCases returns the cached recent-case list for a user.
func (b BoltDB) RecentCases(_ context.Context, userID int) ([]models.Case, error) {
	var cases []models.Case
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(recentCasesBucket)
		if bkt == nil {
			return nil
		}
		v := bkt.Get(recentCasesKey(userID))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &cases); err != nil {
			return fmt.Errorf("failed to unmarshal cases: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cases, nil
}

// SaveRecentCases stores a user's recent-case list.
func (b BoltDB) SaveRecentCases(_ context.Context, userID int, cases []models.Case) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(recentCasesBucket)
		if bkt == nil {
			return nil
		}
		v, err := json.Marshal(cases)
		if err != nil {
			return fmt.Errorf("failed to marshal cases: %w", err)
		}
		return bkt.Put(recentCasesKey(userID), v)
	})
}

// Close releases the underlying database file.
func (b BoltDB) Close() error {
	return b.db.Close()
}

func recentCasesKey(userID int) []byte {
	return []byte(fmt.Sprintf("user-%d", userID))
}

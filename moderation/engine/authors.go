package engine

import "sync"

// AuthorRegistry maps content ids to their authors. The penalty and
// reporting subsystems resolve authors through it when they need to act on
// the person behind a piece of content.
type AuthorRegistry struct {
	mu        sync.Mutex
	byContent map[string]string
}

func NewAuthorRegistry() *AuthorRegistry {
	return &AuthorRegistry{byContent: make(map[string]string)}
}

func (r *AuthorRegistry) Record(contentID, authorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byContent[contentID] = authorID
}

// Resolve satisfies moderation.AuthorResolver.
func (r *AuthorRegistry) Resolve(contentID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	author, ok := r.byContent[contentID]
	return author, ok && author != ""
}

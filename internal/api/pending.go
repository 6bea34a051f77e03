package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
)

// pendingUpload is a password-protected file waiting for its password.
type pendingUpload struct {
	data []byte
	meta models.StatementMetadata
}

// pendingUploads holds uploads between the 401 answer and the unlock call.
// Entries expire so abandoned uploads do not pin memory.
type pendingUploads struct {
	cache *cache.Cache
}

func newPendingUploads(ttl time.Duration) *pendingUploads {
	return &pendingUploads{cache: cache.New(ttl, 2*ttl)}
}

// put stores the upload without its password and returns the new id.
func (p *pendingUploads) put(data []byte, meta models.StatementMetadata) string {
	meta.Password = ""
	id := uuid.NewString()
	p.cache.Set(id, pendingUpload{data: data, meta: meta}, cache.DefaultExpiration)
	return id
}

func (p *pendingUploads) get(id string) (pendingUpload, bool) {
	v, ok := p.cache.Get(id)
	if !ok {
		return pendingUpload{}, false
	}
	return v.(pendingUpload), true
}

func (p *pendingUploads) remove(id string) {
	p.cache.Delete(id)
}

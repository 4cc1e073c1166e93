package domain

// Document represents a document in the store
type Document map[string]interface{}

// ID returns the document's "_id" field, or "" if it has none
func (d Document) ID() string {
	id, _ := d["_id"].(string)
	return id
}

// Clone returns a shallow copy of the document
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge returns a shallow merge of patch onto base. Patch keys win on
// conflict; "_id" is never overwritten by a patch.
func Merge(base, patch Document) Document {
	out := base.Clone()
	if out == nil {
		out = make(Document, len(patch))
	}
	for k, v := range patch {
		if k == "_id" {
			continue
		}
		out[k] = v
	}
	return out
}

// Collection represents a collection of documents
type Collection struct {
	Name      string              `json:"name"`
	Documents map[string]Document `json:"documents"`
}

// NewCollection creates a new collection
func NewCollection(name string) *Collection {
	return &Collection{
		Name:      name,
		Documents: make(map[string]Document),
	}
}

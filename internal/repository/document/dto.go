package document

import (
	"encoding/json"
	"fmt"

	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
)

// parseJSONGetResult decodes the reply of JSON.GET/JSON.MGET with path "$",
// which wraps the document in a one-element array. A bare object is accepted too.
func parseJSONGetResult(raw []byte) (domdoc.Doc, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	if raw[0] == '[' {
		var docs []domdoc.Doc
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("unmarshal json array: %w", err)
		}
		if len(docs) == 0 {
			return nil, nil
		}
		return docs[0], nil
	}

	var doc domdoc.Doc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal json object: %w", err)
	}
	return doc, nil
}

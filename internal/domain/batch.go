package domain

import "encoding/json"

// BatchItemError describes a single failed position of a batch request.
type BatchItemError struct {
	Barcode string `json:"barcode"`
	Error   string `json:"error"`
}

// BatchItem is the outcome of one batch position: either a resolved product
// or an error descriptor, never both. The zero value is invalid.
type BatchItem struct {
	Product *Product
	Err     *BatchItemError
}

// MarshalJSON encodes the item as the product document or as the error
// descriptor, matching the wire contract of the batch endpoint.
func (it BatchItem) MarshalJSON() ([]byte, error) {
	if it.Err != nil {
		return json.Marshal(it.Err)
	}
	return json.Marshal(it.Product)
}

// BatchMetadata carries the aggregate counters of a batch resolution.
// Items whose fetch or persistence failed count only toward Requested.
type BatchMetadata struct {
	Requested int `json:"requested"`
	Fetched   int `json:"fetched"`
	Cached    int `json:"cached"`
}

// BatchResponse is the full result of a batch resolution. Results has the
// same length and order as the requested barcode list.
type BatchResponse struct {
	Metadata BatchMetadata `json:"metadata"`
	Results  []BatchItem   `json:"results"`
}

package models

// Product is keyed by id, a uuid assigned on create.
type Product struct {
	ID          string  `json:"id" dynamodbav:"id"`
	Name        string  `json:"name" dynamodbav:"name" binding:"required"`
	Description string  `json:"description" dynamodbav:"description"`
	ImageFile   string  `json:"imageFile" dynamodbav:"imageFile"`
	Price       float64 `json:"price" dynamodbav:"price" binding:"gte=0"`
	Category    string  `json:"category" dynamodbav:"category"`
}

// UpdatableFields are the attributes PATCH may set.
var UpdatableFields = map[string]bool{
	"name":        true,
	"description": true,
	"imageFile":   true,
	"price":       true,
	"category":    true,
}

// ImageUpload is returned for a presigned product image PUT.
type ImageUpload struct {
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method"`
	Key       string            `json:"key"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresIn int64             `json:"expires_in"`
}

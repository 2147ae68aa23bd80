package models

// ProductDTO is the multipart form accepted when creating a product.
// The image itself travels as the "file" part and is handled separately.
type ProductDTO struct {
	Name        string  `form:"name" json:"name" validate:"required,min=3,max=200" message:"Title must be between 3 and 200 characters"`
	Price       float64 `form:"price" json:"price" validate:"gte=0,lte=10000000" message:"Price must be between 0 and 10,000,000"`
	Thumbnail   string  `form:"thumbnail" json:"thumbnail"`
	Description string  `form:"description" json:"description"`
	CategoryID  string  `form:"category_id" json:"category_id"`
}

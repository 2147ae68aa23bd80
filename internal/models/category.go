package models

import "fmt"

// CategoryDTO is the JSON body accepted when creating a category.
type CategoryDTO struct {
	Name string `json:"name" validate:"required" message:"Category's name can not be empty"`
}

func (c CategoryDTO) String() string {
	return fmt.Sprintf("CategoryDTO(name=%s)", c.Name)
}

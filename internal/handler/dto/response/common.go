package response

import (
	"github.com/google/uuid"
)

type OKResponse struct {
	OK bool `json:"ok"`
}

type DeletedResponse struct {
	OK        bool      `json:"ok"`
	DeletedID uuid.UUID `json:"deletedId"`
}

package domain

import "time"

// RelationshipSheet 上传的关系表，Matrix[i][j] 是第 i+1 位和第 j+1 位宾客之间的亲密度
type RelationshipSheet struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Guests      []string    `json:"guests"`
	Matrix      [][]float64 `json:"matrix,omitempty"`
	CreatedBy   int64       `json:"createdBy"`
	CreatedAt   time.Time   `json:"createdAt"`
	Version     int32       `json:"-"`
}

// GuestCount 宾客数量
func (s *RelationshipSheet) GuestCount() int {
	return len(s.Matrix)
}

package req

// UpdateUserReq is a partial update; nil fields are left unchanged.
type UpdateUserReq struct {
	Password *string `json:"password" binding:"omitempty,min=8,max=72,strongpw"`
	Address  *string `json:"address" binding:"omitempty,min=10,max=100"`
}

func (r UpdateUserReq) HasUpdates() bool {
	return r.Password != nil || r.Address != nil
}

type ListUsersQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=0"`
	Size      int    `form:"size" binding:"omitempty,min=1,max=100"`
	Sort      string `form:"sort" binding:"omitempty,oneof=id username name createdAt"`
	Direction string `form:"direction" binding:"omitempty,oneof=asc desc ASC DESC"`
}

type PageQuery struct {
	Page int `form:"page" binding:"omitempty,min=0"`
	Size int `form:"size" binding:"omitempty,min=1,max=100"`
}

type BroadcastReq struct {
	AgeGroup int    `json:"ageGroup" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

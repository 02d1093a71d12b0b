package model

// CreateUserRequest 注册（按 email upsert）
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required,nonblank,max=100"`
	Email string `json:"email" binding:"required,email,max=255"`
}

// AntStepRequest ant-step 调整，delta 为步数
type AntStepRequest struct {
	Delta *int64 `json:"delta" binding:"required,oneof=-3 -2 -1 1 2"`
}

// HealthEditRequest 健康值调整
type HealthEditRequest struct {
	Delta *int64 `json:"delta" binding:"required,oneof=-20 -10 -5 5 10 20"`
}

// SpendAntsRequest 直接消费 ants
type SpendAntsRequest struct {
	Delta *int64 `json:"delta" binding:"required,min=0"`
}

// CreateAnteaterRequest 创建食蚁兽
type CreateAnteaterRequest struct {
	UID  int64  `json:"uid" binding:"required,gt=0"`
	Name string `json:"name" binding:"required,nonblank,max=100"`
}

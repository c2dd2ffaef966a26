package model

// Video is a caption attached to a video reference the app does not own.
type Video struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	URI       string `gorm:"column:uri;type:text;not null" json:"uri"`
	Caption   string `gorm:"column:caption;type:text;not null" json:"caption"`
	CreatedAt int64  `gorm:"column:createdAt;autoCreateTime:false;not null" json:"createdAt"`
}

// TableName returns the table name for Video
func (Video) TableName() string {
	return "videos"
}

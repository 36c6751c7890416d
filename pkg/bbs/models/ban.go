package models

// Ban blocks sessions whose username or remote IP matches.
type Ban struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username *string `gorm:"index;size:255" json:"username,omitempty"`
	IP       *string `gorm:"index;size:64" json:"ip,omitempty"`
	Reason   string  `gorm:"not null" json:"reason"`
}

// TableName returns the table name for Ban.
func (Ban) TableName() string {
	return "bans"
}

// Validate checks that the ban targets at least a username or an IP.
func (b *Ban) Validate() error {
	if (b.Username == nil || *b.Username == "") && (b.IP == nil || *b.IP == "") {
		return ErrInvalidBan
	}
	return nil
}

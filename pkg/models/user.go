package models

// Learner is a person studying vocabulary, optionally linked to a partner
type Learner struct {
	ID                  int64  `json:"id" db:"id"` // Telegram User ID
	Username            string `json:"username" db:"username"`
	PartnerID           *int64 `json:"partner_id" db:"partner_id"`
	Language            string `json:"language" db:"language"` // target language code, e.g. "es"
	WordsPerDay         int    `json:"words_per_day" db:"words_per_day"`
	NotificationEnabled bool   `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int    `json:"notification_hour" db:"notification_hour"` // Hour of day for notifications (0-23)
}

// Partner returns the linked partner id, or 0 for solo learners.
func (l Learner) Partner() int64 {
	if l.PartnerID == nil {
		return 0
	}
	return *l.PartnerID
}

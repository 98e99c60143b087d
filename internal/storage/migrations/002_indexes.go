package migrations

import "gorm.io/gorm"

var indexes = []struct {
	name string
	sql  string
}{
	{"idx_polls_created_at", "CREATE INDEX IF NOT EXISTS idx_polls_created_at ON polls(created_at DESC)"},
	{"idx_poll_options_position", "CREATE INDEX IF NOT EXISTS idx_poll_options_position ON poll_options(poll_id, position)"},
	{"idx_ballots_option", "CREATE INDEX IF NOT EXISTS idx_ballots_option ON ballots(poll_id, option_id)"},
}

// migration002Up creates query indexes
func migration002Up(db *gorm.DB) error {
	for _, idx := range indexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			return err
		}
	}
	return nil
}

// migration002Down drops query indexes
func migration002Down(db *gorm.DB) error {
	for _, idx := range indexes {
		if err := db.Exec("DROP INDEX IF EXISTS " + idx.name).Error; err != nil {
			return err
		}
	}
	return nil
}

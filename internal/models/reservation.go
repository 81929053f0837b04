package models

import "time"

// Reservation holds one student's meal for one day. The composite unique
// index on (student_id, booking_for_date) is what serializes concurrent
// bookings; do not drop it.
type Reservation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	StudentID      uint      `gorm:"not null;uniqueIndex:idx_reservations_student_date" json:"student_id"`
	Student        User      `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	MenuItemID     uint      `gorm:"not null;index" json:"food_item_id"`
	MenuItem       MenuItem  `gorm:"constraint:OnDelete:RESTRICT" json:"food_item"`
	BookingForDate Date      `gorm:"not null;uniqueIndex:idx_reservations_student_date;index" json:"booking_for_date"`
	CreatedAt      time.Time `json:"created_at"`
}

package employee

import "time"

// Employee is owned by the store. Email and HireDate are fixed at creation.
type Employee struct {
	ID        int       `gorm:"primaryKey"`
	FirstName string    `gorm:"size:50;not null"`
	LastName  string    `gorm:"size:50;not null;index"`
	Email     string    `gorm:"size:255;not null;uniqueIndex:uq_employee_email"`
	JobTitle  string    `gorm:"size:100;not null"`
	HireDate  time.Time `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Employee) TableName() string {
	return "employees"
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

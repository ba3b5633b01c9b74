package state

import "time"

// Step текущий шаг диалога записи
type Step string

const (
	StepNone  Step = "" // Нет активного диалога
	StepDate  Step = "choosing_date"
	StepTime  Step = "choosing_time"
	StepName  Step = "enter_name"
	StepPhone Step = "enter_phone"
)

// Draft данные записи, собранные к текущему шагу
type Draft struct {
	Step      Step
	Date      string
	Time      string
	Slots     []string // время, предложенное пользователю на выбранную дату
	Name      string
	Phone     string
	UpdatedAt time.Time
}

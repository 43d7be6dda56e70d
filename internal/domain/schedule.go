package domain

import (
	"fmt"
	"sort"
	"time"
)

type Weekday string

const (
	WeekdayMonday    Weekday = "monday"
	WeekdayTuesday   Weekday = "tuesday"
	WeekdayWednesday Weekday = "wednesday"
	WeekdayThursday  Weekday = "thursday"
	WeekdayFriday    Weekday = "friday"
	WeekdaySaturday  Weekday = "saturday"
	WeekdaySunday    Weekday = "sunday"
)

var Weekdays = []Weekday{
	WeekdayMonday,
	WeekdayTuesday,
	WeekdayWednesday,
	WeekdayThursday,
	WeekdayFriday,
	WeekdaySaturday,
	WeekdaySunday,
}

func WeekdayOf(date time.Time) Weekday {
	switch date.Weekday() {
	case time.Monday:
		return WeekdayMonday
	case time.Tuesday:
		return WeekdayTuesday
	case time.Wednesday:
		return WeekdayWednesday
	case time.Thursday:
		return WeekdayThursday
	case time.Friday:
		return WeekdayFriday
	case time.Saturday:
		return WeekdaySaturday
	default:
		return WeekdaySunday
	}
}

// TimeWindow — непрерывный интервал времени в пределах дня, "HH:MM", полуоткрытый [Start, End).
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (w TimeWindow) Validate() error {
	start, err := ParseClock(w.Start)
	if err != nil {
		return NewValidationError(fmt.Sprintf("неверный формат времени начала окна %q, ожидается HH:MM", w.Start))
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return NewValidationError(fmt.Sprintf("неверный формат времени окончания окна %q, ожидается HH:MM", w.End))
	}
	if start >= end {
		return NewValidationError(fmt.Sprintf("начало окна %s должно быть раньше окончания %s", w.Start, w.End))
	}
	return nil
}

// Overlaps — тест пересечения полуоткрытых интервалов: s1 < e2 && s2 < e1.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start < other.End && other.Start < w.End
}

// ParseClock переводит "HH:MM" в минуты от полуночи. Часы и минуты обязаны
// быть с ведущим нулем: только такие строки сравнимы лексикографически.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("ожидается время в формате HH:MM, получено %q", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

type WeeklySchedule map[Weekday][]TimeWindow

func NewWeeklySchedule() WeeklySchedule {
	ws := make(WeeklySchedule, len(Weekdays))
	for _, day := range Weekdays {
		ws[day] = []TimeWindow{}
	}
	return ws
}

func (ws WeeklySchedule) Validate() error {
	for day := range ws {
		known := false
		for _, d := range Weekdays {
			if day == d {
				known = true
				break
			}
		}
		if !known {
			return NewValidationError(fmt.Sprintf("неизвестный день недели %q", day))
		}
	}
	for _, day := range Weekdays {
		if err := ValidateWindows(string(day), ws[day]); err != nil {
			return err
		}
	}
	return nil
}

// ValidateWindows проверяет каждое окно и все C(n,2) пары на пересечение.
func ValidateWindows(label string, windows []TimeWindow) error {
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	for i := 0; i < len(windows); i++ {
		for j := i + 1; j < len(windows); j++ {
			if windows[i].Overlaps(windows[j]) {
				return NewValidationError(fmt.Sprintf(
					"пересекающиеся окна (%s): [%s-%s) и [%s-%s)",
					label,
					windows[i].Start, windows[i].End,
					windows[j].Start, windows[j].End,
				))
			}
		}
	}
	return nil
}

// Normalize сортирует окна каждого дня по времени начала для детерминированной генерации слотов.
func (ws WeeklySchedule) Normalize() {
	for day, windows := range ws {
		sort.Slice(windows, func(i, j int) bool {
			return windows[i].Start < windows[j].Start
		})
		ws[day] = windows
	}
}

const (
	MinSlotDurationMinutes = 15
	MaxSlotDurationMinutes = 120
	MinBufferMinutes       = 0
	MaxBufferMinutes       = 30
	MinAppointmentsPerDay  = 1
	MaxAppointmentsPerDay  = 50
)

type BookingPolicy struct {
	SlotDurationMinutes   int          `json:"slot_duration_minutes"`
	BufferMinutes         int          `json:"buffer_minutes"`
	MaxAppointmentsPerDay int          `json:"max_appointments_per_day"`
	EmergencyEnabled      bool         `json:"emergency_enabled"`
	EmergencyWindows      []TimeWindow `json:"emergency_windows"`
	IsActive              bool         `json:"is_active"`
	Notes                 string       `json:"notes"`
}

func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		SlotDurationMinutes:   30,
		BufferMinutes:         5,
		MaxAppointmentsPerDay: 20,
		EmergencyEnabled:      false,
		EmergencyWindows:      []TimeWindow{},
		IsActive:              true,
	}
}

func (p BookingPolicy) Validate() error {
	if p.SlotDurationMinutes < MinSlotDurationMinutes || p.SlotDurationMinutes > MaxSlotDurationMinutes {
		return NewValidationError(fmt.Sprintf("длительность слота должна быть от %d до %d минут", MinSlotDurationMinutes, MaxSlotDurationMinutes))
	}
	if p.BufferMinutes < MinBufferMinutes || p.BufferMinutes > MaxBufferMinutes {
		return NewValidationError(fmt.Sprintf("перерыв между слотами должен быть от %d до %d минут", MinBufferMinutes, MaxBufferMinutes))
	}
	if p.MaxAppointmentsPerDay < MinAppointmentsPerDay || p.MaxAppointmentsPerDay > MaxAppointmentsPerDay {
		return NewValidationError(fmt.Sprintf("максимум записей в день должен быть от %d до %d", MinAppointmentsPerDay, MaxAppointmentsPerDay))
	}
	if err := ValidateWindows("экстренные окна", p.EmergencyWindows); err != nil {
		return err
	}
	return nil
}

type Schedule struct {
	ID        int64          `json:"id"`
	DoctorID  int64          `json:"doctor_id"`
	Weekly    WeeklySchedule `json:"weekly"`
	Policy    BookingPolicy  `json:"policy"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DefaultSchedule — пустое расписание, материализуемое при первом обращении врача.
func DefaultSchedule(doctorID int64) Schedule {
	now := time.Now()
	return Schedule{
		DoctorID:  doctorID,
		Weekly:    NewWeeklySchedule(),
		Policy:    DefaultBookingPolicy(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Schedule) Validate() error {
	if err := s.Weekly.Validate(); err != nil {
		return err
	}
	return s.Policy.Validate()
}

type UpdateScheduleDTO struct {
	Weekly                *WeeklySchedule `json:"weekly"`
	SlotDurationMinutes   *int            `json:"slot_duration_minutes"`
	BufferMinutes         *int            `json:"buffer_minutes"`
	MaxAppointmentsPerDay *int            `json:"max_appointments_per_day"`
	EmergencyEnabled      *bool           `json:"emergency_enabled"`
	EmergencyWindows      *[]TimeWindow   `json:"emergency_windows"`
	IsActive              *bool           `json:"is_active"`
	Notes                 *string         `json:"notes"`
}

// Slot — эфемерный интервал для записи, не хранится в БД.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// GenerateSlots обходит каждое окно с шагом "длительность + перерыв" и выдает
// слоты, целиком помещающиеся в окно. Окна обрабатываются независимо, слот
// никогда не пересекает границу окна. Функция чистая: одинаковый вход всегда
// дает одинаковый результат.
func GenerateSlots(windows []TimeWindow, policy BookingPolicy) []Slot {
	slots := make([]Slot, 0)
	step := policy.SlotDurationMinutes + policy.BufferMinutes

	for _, w := range windows {
		start, err := ParseClock(w.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(w.End)
		if err != nil {
			continue
		}

		for cur := start; cur+policy.SlotDurationMinutes <= end; cur += step {
			slots = append(slots, Slot{
				Start: FormatClock(cur),
				End:   FormatClock(cur + policy.SlotDurationMinutes),
			})
		}
	}

	return slots
}

// SlotsForDate — кандидаты слотов на дату: окна дня недели плюс экстренные окна,
// если они включены. Неактивное расписание не дает слотов.
func (s *Schedule) SlotsForDate(date time.Time) []Slot {
	if !s.Policy.IsActive {
		return []Slot{}
	}

	windows := s.Weekly[WeekdayOf(date)]
	if s.Policy.EmergencyEnabled && len(s.Policy.EmergencyWindows) > 0 {
		combined := make([]TimeWindow, 0, len(windows)+len(s.Policy.EmergencyWindows))
		combined = append(combined, windows...)
		combined = append(combined, s.Policy.EmergencyWindows...)
		windows = combined
	}

	return GenerateSlots(windows, s.Policy)
}

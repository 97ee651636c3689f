package entity

import (
	"time"
)

// Meta общие поля каждой записи. Заполняются только хранилищем.
type Meta struct {
	ID        string     `json:"id" db:"id" goqu:"skipupdate"`
	UserID    int        `json:"userId" db:"user_id" goqu:"skipupdate"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at" goqu:"skipupdate"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt *time.Time `json:"deletedAt" db:"deleted_at"`
}

// Entity запись любой из синхронизируемых таблиц.
type Entity interface {
	Table() Table
	Base() *Meta
}

// Child запись, ссылающаяся на рептилию.
type Child interface {
	ParentID() string
}

type defaulter interface {
	applyDefaults()
}

func (m *Meta) Base() *Meta {
	return m
}

// Deleted сообщает, помечена ли запись как удаленная.
func (m *Meta) Deleted() bool {
	return m.DeletedAt != nil
}

// Owned сообщает, принадлежит ли запись пользователю.
func (m *Meta) Owned(userID int) bool {
	return m.UserID == userID
}

type ReptileData struct {
	Name       string     `json:"name" db:"name" minLength:"1" maxLength:"120"`
	Species    string     `json:"species" db:"species" minLength:"1" maxLength:"120"`
	Morph      string     `json:"morph,omitempty" db:"morph" maxLength:"120"`
	Sex        string     `json:"sex,omitempty" db:"sex" enum:"MALE,FEMALE,UNKNOWN"`
	BirthDate  *time.Time `json:"birthDate,omitempty" db:"birth_date"`
	AcquiredAt *time.Time `json:"acquiredAt,omitempty" db:"acquired_at"`
	Notes      string     `json:"notes,omitempty" db:"notes" maxLength:"2000"`
}

type Reptile struct {
	Meta
	ReptileData
}

func (*Reptile) Table() Table { return Reptiles }

func (r *Reptile) applyDefaults() {
	if r.Sex == "" {
		r.Sex = "UNKNOWN"
	}
}

type FeedingData struct {
	ReptileID string    `json:"reptileId" db:"reptile_id" minLength:"1"`
	FedAt     time.Time `json:"fedAt" db:"fed_at"`
	PreyType  string    `json:"preyType" db:"prey_type" minLength:"1" maxLength:"120"`
	PreySize  string    `json:"preySize,omitempty" db:"prey_size" maxLength:"60"`
	Quantity  int       `json:"quantity,omitempty" db:"quantity" minimum:"1"`
	Accepted  *bool     `json:"accepted,omitempty" db:"accepted"`
	Notes     string    `json:"notes,omitempty" db:"notes" maxLength:"2000"`
}

type Feeding struct {
	Meta
	FeedingData
}

func (*Feeding) Table() Table { return Feedings }

func (f *Feeding) ParentID() string { return f.ReptileID }

func (f *Feeding) applyDefaults() {
	if f.Quantity == 0 {
		f.Quantity = 1
	}
}

type ShedData struct {
	ReptileID string    `json:"reptileId" db:"reptile_id" minLength:"1"`
	ShedAt    time.Time `json:"shedAt" db:"shed_at"`
	Complete  *bool     `json:"complete,omitempty" db:"complete"`
	Quality   string    `json:"quality,omitempty" db:"quality" enum:"GOOD,FAIR,POOR"`
	Notes     string    `json:"notes,omitempty" db:"notes" maxLength:"2000"`
}

type Shed struct {
	Meta
	ShedData
}

func (*Shed) Table() Table { return Sheds }

func (s *Shed) ParentID() string { return s.ReptileID }

type WeightData struct {
	ReptileID  string    `json:"reptileId" db:"reptile_id" minLength:"1"`
	MeasuredAt time.Time `json:"measuredAt" db:"measured_at"`
	Grams      float64   `json:"grams" db:"grams" exclusiveMinimum:"0"`
	Notes      string    `json:"notes,omitempty" db:"notes" maxLength:"2000"`
}

type Weight struct {
	Meta
	WeightData
}

func (*Weight) Table() Table { return Weights }

func (w *Weight) ParentID() string { return w.ReptileID }

type EnvironmentLogData struct {
	ReptileID    string    `json:"reptileId" db:"reptile_id" minLength:"1"`
	RecordedAt   time.Time `json:"recordedAt" db:"recorded_at"`
	TemperatureC *float64  `json:"temperatureC,omitempty" db:"temperature_c" minimum:"-20" maximum:"60"`
	HumidityPct  *float64  `json:"humidityPct,omitempty" db:"humidity_pct" minimum:"0" maximum:"100"`
	Notes        string    `json:"notes,omitempty" db:"notes" maxLength:"2000"`
}

type EnvironmentLog struct {
	Meta
	EnvironmentLogData
}

func (*EnvironmentLog) Table() Table { return EnvironmentLogs }

func (e *EnvironmentLog) ParentID() string { return e.ReptileID }

// PhotoData хранит только метаданные, сам файл живет во внешнем хранилище.
type PhotoData struct {
	ReptileID  string     `json:"reptileId" db:"reptile_id" minLength:"1"`
	StorageKey string     `json:"storageKey" db:"storage_key" minLength:"1" maxLength:"512"`
	Caption    string     `json:"caption,omitempty" db:"caption" maxLength:"500"`
	TakenAt    *time.Time `json:"takenAt,omitempty" db:"taken_at"`
}

type Photo struct {
	Meta
	PhotoData
}

func (*Photo) Table() Table { return Photos }

func (p *Photo) ParentID() string { return p.ReptileID }

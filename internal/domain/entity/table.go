package entity

// Table идентифицирует синхронизируемую таблицу. Набор закрыт: только константы ниже.
type Table string

const (
	Reptiles        Table = "reptiles"
	Feedings        Table = "feedings"
	Sheds           Table = "sheds"
	Weights         Table = "weights"
	EnvironmentLogs Table = "environmentLogs"
	Photos          Table = "photos"
)

// Tables возвращает все таблицы в порядке выдачи pull.
func Tables() []Table {
	return []Table{Reptiles, Feedings, Sheds, Weights, EnvironmentLogs, Photos}
}

// ParseTable принимает имя таблицы из протокола синхронизации.
func ParseTable(name string) (Table, bool) {
	for _, t := range Tables() {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}

// SQLName имя таблицы в базе данных.
func (t Table) SQLName() string {
	switch t {
	case EnvironmentLogs:
		return "environment_logs"
	default:
		return string(t)
	}
}

func (t Table) String() string {
	return string(t)
}

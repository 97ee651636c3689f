package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mitchellh/mapstructure"
)

// Ключи Meta, которые клиент не может задать через payload.
var metaKeys = []string{"id", "userId", "createdAt", "updatedAt", "deletedAt"}

// Schema описывает поля одной таблицы и проверяет payload по JSON Schema.
type Schema struct {
	table    Table
	newFn    func() Entity
	registry huma.Registry
	schema   *huma.Schema
}

// Catalog схемы всех таблиц. Строится один раз при старте.
type Catalog struct {
	schemas map[Table]*Schema
}

func NewCatalog() *Catalog {
	registry := huma.NewMapRegistry("#/components/schemas/", huma.DefaultSchemaNamer)

	c := &Catalog{schemas: make(map[Table]*Schema, len(Tables()))}
	c.add(registry, Reptiles, ReptileData{}, func() Entity { return &Reptile{} })
	c.add(registry, Feedings, FeedingData{}, func() Entity { return &Feeding{} })
	c.add(registry, Sheds, ShedData{}, func() Entity { return &Shed{} })
	c.add(registry, Weights, WeightData{}, func() Entity { return &Weight{} })
	c.add(registry, EnvironmentLogs, EnvironmentLogData{}, func() Entity { return &EnvironmentLog{} })
	c.add(registry, Photos, PhotoData{}, func() Entity { return &Photo{} })

	return c
}

func (c *Catalog) add(registry huma.Registry, t Table, data any, newFn func() Entity) {
	c.schemas[t] = &Schema{
		table:    t,
		newFn:    newFn,
		registry: registry,
		schema:   registry.Schema(reflect.TypeOf(data), false, ""),
	}
}

// Schema возвращает схему таблицы.
func (c *Catalog) Schema(t Table) (*Schema, error) {
	s, ok := c.schemas[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, t)
	}
	return s, nil
}

// New создает пустую запись таблицы.
func (c *Catalog) New(t Table) (Entity, error) {
	s, err := c.Schema(t)
	if err != nil {
		return nil, err
	}
	return s.New(), nil
}

func (s *Schema) Table() Table {
	return s.table
}

func (s *Schema) New() Entity {
	return s.newFn()
}

// Build накладывает payload на base и возвращает проверенную запись с пустой Meta.
// null в payload удаляет поле из base.
func (s *Schema) Build(base, payload map[string]any) (Entity, error) {
	merged := make(map[string]any, len(base)+len(payload))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range payload {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	for _, k := range metaKeys {
		delete(merged, k)
	}

	if err := s.validate(merged); err != nil {
		return nil, err
	}

	e := s.newFn()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  stringToTimeHook,
		ErrorUnused: true,
		Squash:      true,
		TagName:     "json",
		Result:      e,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err := dec.Decode(merged); err != nil {
		var me *mapstructure.Error
		if errors.As(err, &me) {
			return nil, newValidationError(s.table, me.Errors...)
		}
		return nil, newValidationError(s.table, err.Error())
	}

	if d, ok := e.(defaulter); ok {
		d.applyDefaults()
	}

	return e, nil
}

func (s *Schema) validate(fields map[string]any) error {
	res := &huma.ValidateResult{}
	pb := huma.NewPathBuffer(make([]byte, 0, 64), 0)
	pb.Push("payload")

	huma.Validate(s.registry, s.schema, pb, huma.ModeWriteToServer, fields, res)
	if len(res.Errors) == 0 {
		return nil
	}

	details := make([]string, 0, len(res.Errors))
	for _, err := range res.Errors {
		var d *huma.ErrorDetail
		if errors.As(err, &d) {
			details = append(details, fmt.Sprintf("%s: %s", d.Location, d.Message))
			continue
		}
		details = append(details, err.Error())
	}

	return newValidationError(s.table, details...)
}

// Fields возвращает поля записи без Meta в JSON-представлении.
func Fields(e Entity) (map[string]any, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.Table(), err)
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", e.Table(), err)
	}

	for _, k := range metaKeys {
		delete(fields, k)
	}
	return fields, nil
}

// SameContent сравнивает записи без учета Meta.
func SameContent(a, b Entity) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Table() != b.Table() {
		return false
	}
	return cmp.Equal(a, b, cmpopts.IgnoreTypes(Meta{}))
}

func stringToTimeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}

	t, err := time.Parse(time.RFC3339Nano, data.(string))
	if err != nil {
		return nil, err
	}
	return t.UTC(), nil
}

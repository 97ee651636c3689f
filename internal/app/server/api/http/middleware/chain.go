package middleware

import (
	"github.com/danielgtaylor/huma/v2"
)

// Func сигнатура мидлвари huma
type Func = func(ctx huma.Context, next func(huma.Context))

// Chain общий набор мидлварей для всех групп маршрутов.
// Каждая группа получает собственную копию, базовый набор не меняется.
type Chain struct {
	base huma.Middlewares
}

func NewChain(mws ...Func) *Chain {
	c := &Chain{base: make(huma.Middlewares, 0, len(mws))}
	c.Use(mws...)
	return c
}

// Use дописывает мидлвари в базовый набор
func (c *Chain) Use(mws ...Func) {
	c.base = append(c.base, mws...)
}

// With базовый набор плюс мидлвари группы в конце
func (c *Chain) With(extra ...Func) huma.Middlewares {
	out := make(huma.Middlewares, 0, len(c.base)+len(extra))
	out = append(out, c.base...)
	return append(out, extra...)
}

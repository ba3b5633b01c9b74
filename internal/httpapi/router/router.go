// Package router сопоставляет (метод, путь) с обработчиками по шаблонам вида
// /api/users/{id}. Шаблоны компилируются один раз при регистрации, при пересечении
// побеждает маршрут, зарегистрированный первым. Метаданные маршрута используются
// только для OpenAPI документа и на диспетчеризацию не влияют.
package router

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Handler обработчик маршрута. Ошибку превращает в ответ вызывающая сторона.
type Handler func(w http.ResponseWriter, r *http.Request, p Params) error

// Params значения параметров пути
type Params map[string]string

// Get возвращает параметр или пустую строку
func (p Params) Get(name string) string {
	return p[name]
}

// Int64 разбирает параметр как целое число
func (p Params) Int64(name string) (int64, error) {
	v, ok := p[name]
	if !ok {
		return 0, fmt.Errorf("path parameter %q is missing", name)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("path parameter %q must be an integer", name)
	}
	return n, nil
}

// Route зарегистрированный маршрут
type Route struct {
	Method  string
	Pattern string
	Handler Handler
	Meta    Meta

	segments []segment
}

type segmentKind int

const (
	literal segmentKind = iota
	param
	catchAll
)

type segment struct {
	kind  segmentKind
	value string // текст для literal, имя для param и catchAll
}

// Router таблица маршрутов. Регистрация допустима только до Seal,
// после Seal таблица неизменяема и безопасна для конкурентного чтения.
type Router struct {
	routes []*Route
	sealed bool
}

func New() *Router {
	return &Router{}
}

// Handle регистрирует маршрут. Некорректный шаблон и регистрация после Seal - ошибка программиста, поэтому panic.
func (r *Router) Handle(method, pattern string, h Handler, meta Meta) {
	if r.sealed {
		panic(fmt.Sprintf("router: register %s %s after seal", method, pattern))
	}
	if h == nil {
		panic(fmt.Sprintf("router: nil handler for %s %s", method, pattern))
	}

	segments, err := compile(pattern)
	if err != nil {
		panic(fmt.Sprintf("router: %v", err))
	}

	r.routes = append(r.routes, &Route{
		Method:   strings.ToUpper(method),
		Pattern:  pattern,
		Handler:  h,
		Meta:     meta,
		segments: segments,
	})
}

func (r *Router) Get(pattern string, h Handler, meta Meta) {
	r.Handle(http.MethodGet, pattern, h, meta)
}

func (r *Router) Post(pattern string, h Handler, meta Meta) {
	r.Handle(http.MethodPost, pattern, h, meta)
}

func (r *Router) Put(pattern string, h Handler, meta Meta) {
	r.Handle(http.MethodPut, pattern, h, meta)
}

func (r *Router) Delete(pattern string, h Handler, meta Meta) {
	r.Handle(http.MethodDelete, pattern, h, meta)
}

func (r *Router) Options(pattern string, h Handler, meta Meta) {
	r.Handle(http.MethodOptions, pattern, h, meta)
}

// Seal замораживает таблицу маршрутов
func (r *Router) Seal() {
	r.sealed = true
}

// Routes возвращает маршруты в порядке регистрации
func (r *Router) Routes() []*Route {
	return append([]*Route(nil), r.routes...)
}

// Match ищет первый маршрут с точным совпадением метода и пути.
// ok=false означает 404.
func (r *Router) Match(method, path string) (route *Route, params Params, ok bool) {
	parts := splitPath(path)
	for _, rt := range r.routes {
		if rt.Method != method {
			continue
		}
		if p, ok := rt.match(parts); ok {
			return rt, p, true
		}
	}
	return nil, nil, false
}

func (rt *Route) match(parts []string) (Params, bool) {
	var params Params
	set := func(name, value string) {
		if params == nil {
			params = make(Params, len(rt.segments))
		}
		params[name] = value
	}

	for i, seg := range rt.segments {
		if seg.kind == catchAll {
			set(seg.value, strings.Join(parts[i:], "/"))
			return params, true
		}
		if i >= len(parts) {
			return nil, false
		}

		switch seg.kind {
		case literal:
			if parts[i] != seg.value {
				return nil, false
			}
		case param:
			if parts[i] == "" {
				return nil, false
			}
			set(seg.value, parts[i])
		}
	}

	if len(parts) != len(rt.segments) {
		return nil, false
	}
	if params == nil {
		params = Params{}
	}
	return params, true
}

func compile(pattern string) ([]segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("pattern %q must start with /", pattern)
	}

	parts := splitPath(pattern)
	segments := make([]segment, 0, len(parts))
	seen := make(map[string]bool)

	for i, part := range parts {
		if !strings.HasPrefix(part, "{") || !strings.HasSuffix(part, "}") {
			if strings.ContainsAny(part, "{}") {
				return nil, fmt.Errorf("pattern %q: malformed segment %q", pattern, part)
			}
			segments = append(segments, segment{kind: literal, value: part})
			continue
		}

		name := part[1 : len(part)-1]
		kind := param
		if strings.HasSuffix(name, "...") {
			if i != len(parts)-1 {
				return nil, fmt.Errorf("pattern %q: catch-all must be the last segment", pattern)
			}
			name = strings.TrimSuffix(name, "...")
			kind = catchAll
		}
		if name == "" || strings.ContainsAny(name, "{}") {
			return nil, fmt.Errorf("pattern %q: empty or malformed parameter name", pattern)
		}
		if seen[name] {
			return nil, fmt.Errorf("pattern %q: duplicate parameter %q", pattern, name)
		}
		seen[name] = true

		segments = append(segments, segment{kind: kind, value: name})
	}

	return segments, nil
}

// splitPath "/a/b" -> ["a", "b"], "/" -> [""]
func splitPath(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

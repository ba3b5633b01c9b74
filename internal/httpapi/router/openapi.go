package router

import (
	"net/http"
	"strconv"
	"strings"
)

// Meta документация маршрута
type Meta struct {
	Summary     string
	Tags        []string
	Query       []QueryParam
	RequestBody Schema
	Responses   map[int]string // статус -> описание
	// Hidden исключает маршрут из OpenAPI (preflight, сама документация)
	Hidden bool
}

// QueryParam параметр строки запроса
type QueryParam struct {
	Name        string
	Type        string // string, integer
	Required    bool
	Description string
}

// Schema заготовка JSON Schema в виде map
type Schema map[string]any

// Object собирает схему объекта из полей name -> type
func Object(required []string, props map[string]string) Schema {
	properties := make(map[string]any, len(props))
	for name, typ := range props {
		if strings.HasPrefix(typ, "[]") {
			properties[name] = map[string]any{
				"type":  "array",
				"items": map[string]any{"type": strings.TrimPrefix(typ, "[]")},
			}
			continue
		}
		properties[name] = map[string]any{"type": typ}
	}

	s := Schema{"type": "object", "properties": properties}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// Info заголовок документа
type Info struct {
	Title       string
	Version     string
	Description string
}

// OpenAPI строит документ OpenAPI 3 по зарегистрированным маршрутам
func (r *Router) OpenAPI(info Info) map[string]any {
	paths := make(map[string]any)

	for _, rt := range r.routes {
		if rt.Meta.Hidden {
			continue
		}

		path, pathParams := openAPIPath(rt.segments)
		item, ok := paths[path].(map[string]any)
		if !ok {
			item = make(map[string]any)
			paths[path] = item
		}

		method := strings.ToLower(rt.Method)
		// Первый зарегистрированный маршрут выигрывает и в документации
		if _, exists := item[method]; exists {
			continue
		}
		item[method] = rt.operation(pathParams)
	}

	doc := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   info.Title,
			"version": info.Version,
		},
		"paths": paths,
	}
	if info.Description != "" {
		doc["info"].(map[string]any)["description"] = info.Description
	}
	return doc
}

func (rt *Route) operation(pathParams []string) map[string]any {
	op := map[string]any{}
	if rt.Meta.Summary != "" {
		op["summary"] = rt.Meta.Summary
	}
	if len(rt.Meta.Tags) > 0 {
		op["tags"] = rt.Meta.Tags
	}

	var params []any
	for _, name := range pathParams {
		params = append(params, map[string]any{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   map[string]any{"type": "string"},
		})
	}
	for _, q := range rt.Meta.Query {
		typ := q.Type
		if typ == "" {
			typ = "string"
		}
		p := map[string]any{
			"name":     q.Name,
			"in":       "query",
			"required": q.Required,
			"schema":   map[string]any{"type": typ},
		}
		if q.Description != "" {
			p["description"] = q.Description
		}
		params = append(params, p)
	}
	if len(params) > 0 {
		op["parameters"] = params
	}

	if rt.Meta.RequestBody != nil {
		op["requestBody"] = map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{"schema": map[string]any(rt.Meta.RequestBody)},
			},
		}
	}

	responses := make(map[string]any)
	for status, desc := range rt.Meta.Responses {
		responses[strconv.Itoa(status)] = map[string]any{"description": desc}
	}
	if len(responses) == 0 {
		responses[strconv.Itoa(http.StatusOK)] = map[string]any{"description": http.StatusText(http.StatusOK)}
	}
	op["responses"] = responses

	return op
}

// openAPIPath переводит сегменты в путь OpenAPI: {name...} становится {name}
func openAPIPath(segments []segment) (string, []string) {
	var (
		b      strings.Builder
		params []string
	)
	for _, seg := range segments {
		b.WriteByte('/')
		switch seg.kind {
		case literal:
			b.WriteString(seg.value)
		default:
			b.WriteString("{" + seg.value + "}")
			params = append(params, seg.value)
		}
	}
	return b.String(), params
}

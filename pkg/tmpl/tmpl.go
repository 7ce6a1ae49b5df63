package tmpl

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"text/template"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"env": os.Getenv,
		"required": func(msg string, v interface{}) (interface{}, error) {
			if v == nil {
				return nil, errors.New(msg)
			}
			if s, ok := v.(string); ok && s == "" {
				return nil, errors.New(msg)
			}
			return v, nil
		},
		"default": func(d, v interface{}) interface{} {
			if v == nil {
				return d
			}
			if s, ok := v.(string); ok && s == "" {
				return d
			}
			return v
		},
	}
}

func Render(name, text string, data interface{}) (string, error) {
	tpl := template.New(name).Option("missingkey=error").Funcs(funcMap())
	tpl, err := tpl.Parse(text)
	if err != nil {
		return "", err
	}
	buf := &bytes.Buffer{}
	if err := tpl.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderArgs renders every string found in args, descending into nested maps and lists.
func RenderArgs(args map[string]interface{}, data map[string]interface{}) (map[string]interface{}, error) {
	res := map[string]interface{}{}

	for k, v := range args {
		r, err := renderValue(k, v, data)
		if err != nil {
			return nil, err
		}
		res[k] = r
	}

	return res, nil
}

func renderValue(k string, v interface{}, data map[string]interface{}) (interface{}, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		return RenderArgs(t, data)
	case []interface{}:
		res := make([]interface{}, 0, len(t))
		for i, e := range t {
			r, err := renderValue(fmt.Sprintf("%s[%d]", k, i), e, data)
			if err != nil {
				return nil, err
			}
			res = append(res, r)
		}
		return res, nil
	case string:
		return Render(fmt.Sprintf("%s: \"%s\"", k, t), t, data)
	case int, int64, float64, bool, nil:
		return t, nil
	}

	return nil, fmt.Errorf("unsupported type: value=%v, type=%T", v, v)
}

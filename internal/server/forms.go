package server

import (
	"sort"

	"github.com/gin-gonic/gin"
)

const contextFormKey = "form"

// formSpec names the inputs a form renders. Errors for any other field are
// shown as general form errors.
type formSpec struct {
	fields  map[string]bool
	aliases map[string]string
}

func newFormSpec(fields []string, aliases map[string]string) *formSpec {
	fs := &formSpec{fields: make(map[string]bool, len(fields)), aliases: aliases}
	for _, f := range fields {
		fs.fields[f] = true
	}
	return fs
}

var (
	loginForm    = newFormSpec([]string{"email", "password"}, map[string]string{"username": "email"})
	registerForm = newFormSpec([]string{"email", "password", "password_confirm"}, map[string]string{"username": "email"})
	courseForm   = newFormSpec(
		[]string{"code", "name", "description", "type", "price", "rent_time"},
		map[string]string{"title": "name", "rentTime": "rent_time"},
	)
	lessonForm = newFormSpec([]string{"course", "name", "content", "order_index"}, nil)
)

func useForm(c *gin.Context, fs *formSpec) {
	c.Set(contextFormKey, fs)
}

func formFrom(c *gin.Context) *formSpec {
	v, ok := c.Get(contextFormKey)
	if !ok {
		return nil
	}
	fs, _ := v.(*formSpec)
	return fs
}

// splitFormErrors attaches each message to the form input it belongs to.
// Messages for unknown fields are collected in a sorted general list.
func splitFormErrors(details map[string]string, fs *formSpec) (map[string]string, []string) {
	fields := make(map[string]string, len(details))
	var general []string

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		msg := details[key]
		name := key
		if fs != nil {
			if alias, ok := fs.aliases[key]; ok {
				name = alias
			}
		}
		switch {
		case name == "":
			general = append(general, msg)
		case fs == nil || fs.fields[name]:
			if _, taken := fields[name]; taken {
				general = append(general, msg)
				continue
			}
			fields[name] = msg
		default:
			general = append(general, msg)
		}
	}
	if len(fields) == 0 {
		fields = nil
	}
	return fields, general
}

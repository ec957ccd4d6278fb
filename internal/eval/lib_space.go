package eval

import (
	"github.com/leapstack-labs/spacelua/internal/space"
)

// BindSpace exposes sp to scripts as the global table "space".
func BindSpace(env *Env, sp space.Space) {
	env.Root().Define("space", newLib("space", map[string]BuiltinFunc{
		"listPages": func(c *Call) ([]Value, error) {
			pages, err := sp.ListPages(c.Context)
			if err != nil {
				return nil, err
			}
			t := NewTable()
			for _, meta := range pages {
				t.Append(metaTable(meta))
			}
			return []Value{t}, nil
		},
		"readPage": func(c *Call) ([]Value, error) {
			name := c.String()
			if err := c.Err(); err != nil {
				return nil, err
			}
			page, err := sp.ReadPage(c.Context, name)
			if err != nil {
				return nil, err
			}
			return []Value{page.Text}, nil
		},
		"writePage": func(c *Call) ([]Value, error) {
			name, text := c.String(), c.String()
			if err := c.Err(); err != nil {
				return nil, err
			}
			meta, err := sp.WritePage(c.Context, name, text)
			if err != nil {
				return nil, err
			}
			return []Value{metaTable(meta)}, nil
		},
		"deletePage": func(c *Call) ([]Value, error) {
			name := c.String()
			if err := c.Err(); err != nil {
				return nil, err
			}
			return nil, sp.DeletePage(c.Context, name)
		},
	}))
}

func metaTable(meta space.PageMeta) *Table {
	t := NewTable()
	t.SetField("name", meta.Name)
	t.SetField("created", FromGo(meta.Created))
	t.SetField("lastModified", FromGo(meta.LastModified))
	t.SetField("perm", meta.Perm)
	if len(meta.Attributes) > 0 {
		t.SetField("attributes", FromGo(meta.Attributes))
	}
	return t
}

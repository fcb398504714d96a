// Package templates holds the trending meme template gallery.
package templates

import "strings"

// Template is a gallery entry backed by a remote image.
type Template struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

var trending = []Template{
	{ID: "1", Name: "Distracted Boyfriend", URL: "https://i.imgflip.com/1ur9b0.jpg"},
	{ID: "2", Name: "Two Buttons", URL: "https://i.imgflip.com/1g8my4.jpg"},
	{ID: "3", Name: "Woman Yelling at Cat", URL: "https://i.imgflip.com/30zz5g.jpg"},
	{ID: "4", Name: "Drake Hotline Bling", URL: "https://i.imgflip.com/1bij.jpg"},
	{ID: "5", Name: "This Is Fine", URL: "https://i.imgflip.com/wx8ld.jpg"},
	{ID: "6", Name: "Expanding Brain", URL: "https://i.imgflip.com/1jwhww.jpg"},
}

// Trending returns a copy of the gallery in display order.
func Trending() []Template {
	out := make([]Template, len(trending))
	copy(out, trending)
	return out
}

// Default is the template the editor starts with.
func Default() Template { return trending[0] }

// Lookup finds a template by id.
func Lookup(id string) (Template, bool) {
	id = strings.TrimSpace(id)
	for _, t := range trending {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

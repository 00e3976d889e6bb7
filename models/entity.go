package models

import (
	"time"

	"github.com/rushhourgame/spatial/spatial"
)

// Entity is the payload the world attaches to every indexed object.
type Entity struct {
	Name      string    `json:"name,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EntityObject is an indexed world entity.
type EntityObject = spatial.Object[Entity]

// EntityView is the JSON representation of an indexed entity.
type EntityView struct {
	ID     int                `json:"id"`
	Type   spatial.ObjectType `json:"type"`
	X      float64            `json:"x"`
	Y      float64            `json:"y"`
	Z      float64            `json:"z"`
	Width  float64            `json:"width"`
	Height float64            `json:"height"`
	Depth  float64            `json:"depth"`
	Entity
}

func NewEntityView(o *EntityObject) EntityView {
	return EntityView{
		ID:     o.ID,
		Type:   o.Type,
		X:      o.X,
		Y:      o.Y,
		Z:      o.Z,
		Width:  o.Width,
		Height: o.Height,
		Depth:  o.Depth,
		Entity: o.Data,
	}
}

func EntityViews(objects []*EntityObject) []EntityView {
	views := make([]EntityView, len(objects))
	for i, o := range objects {
		views[i] = NewEntityView(o)
	}
	return views
}
